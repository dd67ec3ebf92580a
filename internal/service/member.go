package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/repository"
)

const (
	invitationTokenLength = 32
	invitationTokenChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	invitationTTL         = 7 * 24 * time.Hour
)

// generateInvitationToken returns a fresh random opaque token for a pending
// invitation.
func generateInvitationToken() (string, error) {
	buf := make([]byte, invitationTokenLength)
	max := big.NewInt(int64(len(invitationTokenChars)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invitation token: %w", err)
		}
		buf[i] = invitationTokenChars[n.Int64()]
	}
	return string(buf), nil
}

// AddMemberInput carries the fields accepted when adding a team member.
type AddMemberInput struct {
	UserID           string
	Email            string
	DisplayName      string
	Role             domain.Role
	InvitationStatus domain.InvitationStatus
}

// UpdateMemberInput carries a partial member update; nil fields are left
// untouched. HasUnknownFields marks request keys outside the supported set;
// unprivileged requesters are not allowed to send them.
type UpdateMemberInput struct {
	Role             *domain.Role
	DisplayName      *string
	InvitationStatus *domain.InvitationStatus
	HasUnknownFields bool
}

// RemovalResult reports the outcome of removing a member, distinguishing
// self-removal from removal by another member.
type RemovalResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ResendResult reports the outcome of resending an invitation.
type ResendResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Note    string `json:"note"`
}

// MemberService orchestrates membership lookups, permission checks, invitation
// lifecycle transitions and the denormalized team-size counter.
type MemberService struct {
	teamRepo   repository.TeamRepository
	memberRepo repository.MemberRepository
	gate       *PermissionGate
	guard      *TeamGuard
	inviter    InvitationSender
	logger     *slog.Logger
}

// NewMemberService creates a new MemberService
func NewMemberService(
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	gate *PermissionGate,
	guard *TeamGuard,
	inviter InvitationSender,
	logger *slog.Logger,
) *MemberService {
	return &MemberService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		gate:       gate,
		guard:      guard,
		inviter:    inviter,
		logger:     logger,
	}
}

// List returns the members of a team. With no status filter all members are
// returned ordered by (status, role, created_at); with a filter only members
// in that status ordered by (role, created_at). Any team member may list.
func (s *MemberService) List(ctx context.Context, teamID uuid.UUID, requesterID string, status *domain.InvitationStatus) ([]*domain.TeamMember, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	if _, err := s.guard.Membership(ctx, teamID, requesterID); err != nil {
		return nil, err
	}

	if status != nil && !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	return s.memberRepo.List(ctx, teamID, status)
}

// Get returns a single member record in any status. Any team member may read.
func (s *MemberService) Get(ctx context.Context, teamID, memberID uuid.UUID, requesterID string) (*domain.TeamMember, error) {
	if _, err := s.guard.Membership(ctx, teamID, requesterID); err != nil {
		return nil, err
	}

	return s.memberRepo.GetByID(ctx, teamID, memberID)
}

// Add creates a new member record. Only owners and admins may add. Duplicate
// registered members and duplicate pending invitations (by user id or by
// invitee email) are rejected as conflicts; the storage layer's unique
// indexes turn a concurrent double-add into the same deterministic conflict.
func (s *MemberService) Add(ctx context.Context, teamID uuid.UUID, input AddMemberInput, requesterID string) (*domain.TeamMember, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	requester, err := s.guard.Membership(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(requester.Role, ActionAdd, "", "", false); err != nil {
		s.logger.Warn("member add denied", "team_id", teamID, "requester", requesterID)
		return nil, err
	}

	if input.UserID == "" && input.Email == "" {
		return nil, domain.ErrMemberIdentityRequired
	}

	if input.UserID != "" {
		existing, err := s.memberRepo.GetByUserID(ctx, teamID, input.UserID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Warn("duplicate member add rejected",
				"team_id", teamID, "user_id", input.UserID, "status", existing.InvitationStatus)
			if existing.InvitationStatus == domain.StatusPending {
				return nil, domain.ErrPendingInvitation
			}
			return nil, domain.ErrAlreadyMember
		}
	}

	if input.Email != "" {
		pending, err := s.memberRepo.GetPendingByEmail(ctx, teamID, input.Email)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			s.logger.Warn("duplicate email invitation rejected", "team_id", teamID, "email", input.Email)
			return nil, domain.ErrEmailPendingInvitation
		}
	}

	if !input.Role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	status := input.InvitationStatus
	if status == "" {
		status = domain.StatusActive
	}
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	member := &domain.TeamMember{
		ID:               uuid.New(),
		TeamID:           teamID,
		UserID:           input.UserID,
		Email:            input.Email,
		DisplayName:      input.DisplayName,
		Role:             input.Role,
		InvitationStatus: status,
	}

	if status == domain.StatusPending {
		token, err := generateInvitationToken()
		if err != nil {
			return nil, err
		}
		expiresAt := time.Now().UTC().Add(invitationTTL)
		member.InvitationToken = token
		member.InvitationExpiresAt = &expiresAt
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	if status == domain.StatusPending {
		if err := s.inviter.SendInvitation(ctx, member, ""); err != nil {
			s.logger.Warn("invitation delivery failed",
				"team_id", teamID, "member_id", member.ID, "error", err)
		}
	}

	s.RecomputeTeamSize(ctx, teamID)

	s.logger.Info("member added", "team_id", teamID, "member_id", member.ID, "role", member.Role)
	return member, nil
}

// Update applies a partial update to a member record. Role changes, display
// name and invitation status transitions go through the permission gate;
// member/viewer requesters may only touch their own display name. Moving to
// active clears the invitation credentials, moving to pending issues fresh
// ones when none are set.
func (s *MemberService) Update(ctx context.Context, teamID, memberID uuid.UUID, input UpdateMemberInput, requesterID string) (*domain.TeamMember, error) {
	member, err := s.memberRepo.GetByID(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}

	requester, err := s.guard.Membership(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}

	requested := domain.Role("")
	if input.Role != nil {
		requested = *input.Role
	}
	if err := s.gate.Check(requester.Role, ActionUpdate, member.Role, requested, member.IsSelf(requesterID)); err != nil {
		s.logger.Warn("member update denied",
			"team_id", teamID, "member_id", memberID, "requester", requesterID)
		return nil, err
	}

	// member/viewer requesters may only change their own display_name
	if !requester.Role.IsPrivileged() && (input.Role != nil || input.InvitationStatus != nil || input.HasUnknownFields) {
		return nil, domain.ErrRestrictedField
	}

	// Demoting or deactivating the sole remaining active owner is rejected
	// the same way removal is.
	demotesOwner := member.Role == domain.RoleOwner && member.InvitationStatus == domain.StatusActive &&
		((input.Role != nil && *input.Role != domain.RoleOwner) ||
			(input.InvitationStatus != nil && *input.InvitationStatus != domain.StatusActive))
	if demotesOwner {
		owners, err := s.memberRepo.CountActiveOwners(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			s.logger.Warn("last owner demotion rejected", "team_id", teamID, "member_id", memberID)
			return nil, domain.ErrLastOwner
		}
	}

	if input.Role != nil && input.Role.IsValid() {
		member.Role = *input.Role
	}
	if input.DisplayName != nil {
		member.DisplayName = *input.DisplayName
	}

	statusChanged := false
	if input.InvitationStatus != nil && input.InvitationStatus.IsValid() {
		newStatus := *input.InvitationStatus
		statusChanged = newStatus != member.InvitationStatus
		member.InvitationStatus = newStatus

		switch {
		case newStatus == domain.StatusActive && member.InvitationToken != "":
			member.InvitationToken = ""
			member.InvitationExpiresAt = nil
		case newStatus == domain.StatusPending && member.InvitationToken == "":
			token, err := generateInvitationToken()
			if err != nil {
				return nil, err
			}
			expiresAt := time.Now().UTC().Add(invitationTTL)
			member.InvitationToken = token
			member.InvitationExpiresAt = &expiresAt
		}
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	if statusChanged {
		s.RecomputeTeamSize(ctx, teamID)
	}

	s.logger.Info("member updated", "team_id", teamID, "member_id", memberID)
	return member, nil
}

// Remove soft-deletes a member by moving them to the inactive status. The row
// is retained. Admins cannot remove owners or other admins, member/viewer may
// only remove themselves, and the last active owner can never be removed.
func (s *MemberService) Remove(ctx context.Context, teamID, memberID uuid.UUID, requesterID string) (*RemovalResult, error) {
	member, err := s.memberRepo.GetByID(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}

	requester, err := s.guard.Membership(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Check(requester.Role, ActionRemove, member.Role, "", member.IsSelf(requesterID)); err != nil {
		s.logger.Warn("member removal denied",
			"team_id", teamID, "member_id", memberID, "requester", requesterID)
		return nil, err
	}

	if member.Role == domain.RoleOwner {
		owners, err := s.memberRepo.CountActiveOwners(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			s.logger.Warn("last owner removal rejected", "team_id", teamID, "member_id", memberID)
			return nil, domain.ErrLastOwner
		}
	}

	member.InvitationStatus = domain.StatusInactive
	member.InvitationToken = ""
	member.InvitationExpiresAt = nil

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	s.RecomputeTeamSize(ctx, teamID)

	message := "Member has been removed from the team"
	if member.IsSelf(requesterID) {
		message = "You have left the team"
	}

	s.logger.Info("member removed", "team_id", teamID, "member_id", memberID)
	return &RemovalResult{Status: "success", Message: message}, nil
}

// ResendInvitation regenerates the invitation credentials of a pending or
// expired member: a fresh token, status forced back to pending and the expiry
// pushed forward. Delivery is handed to the invitation sender.
func (s *MemberService) ResendInvitation(ctx context.Context, teamID, memberID uuid.UUID, requesterID, customMessage string) (*ResendResult, error) {
	if _, err := s.guard.RequireRole(ctx, teamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}

	if member.InvitationStatus != domain.StatusPending && member.InvitationStatus != domain.StatusExpired {
		s.logger.Warn("invitation resend rejected",
			"team_id", teamID, "member_id", memberID, "status", member.InvitationStatus)
		return nil, domain.ErrInvalidResendStatus
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(invitationTTL)

	member.InvitationToken = token
	member.InvitationStatus = domain.StatusPending
	member.InvitationExpiresAt = &expiresAt

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	if err := s.inviter.SendInvitation(ctx, member, customMessage); err != nil {
		s.logger.Warn("invitation delivery failed",
			"team_id", teamID, "member_id", member.ID, "error", err)
	}

	s.logger.Info("invitation resent", "team_id", teamID, "member_id", memberID)
	return &ResendResult{
		Status:  "success",
		Message: fmt.Sprintf("Invitation resent to %s", member.Email),
		Note:    "In a production system, an email would be sent with a new invitation link",
	}, nil
}

// RecomputeTeamSize refreshes the denormalized team_size counter from a live
// count of active members. Best effort: failures are logged and never
// propagated, the counter is derivable from member rows at any time.
func (s *MemberService) RecomputeTeamSize(ctx context.Context, teamID uuid.UUID) {
	count, err := s.memberRepo.CountActive(ctx, teamID)
	if err != nil {
		s.logger.Error("failed to count active members", "team_id", teamID, "error", err)
		return
	}

	if err := s.teamRepo.SetTeamSize(ctx, teamID, count); err != nil {
		s.logger.Error("failed to update team size", "team_id", teamID, "error", err)
		return
	}

	s.logger.Info("team size updated", "team_id", teamID, "team_size", count)
}
