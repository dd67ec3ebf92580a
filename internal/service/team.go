package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/repository"
)

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL-safe slug from a team name.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleaner.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CreateTeamInput carries the fields accepted when creating a team.
type CreateTeamInput struct {
	Name        string
	Slug        string
	Description string
}

// UpdateTeamInput carries a partial team update; nil fields are left
// untouched.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// TeamService orchestrates team CRUD and enrolls the creator as the first
// owner.
type TeamService struct {
	teamRepo   repository.TeamRepository
	memberRepo repository.MemberRepository
	guard      *TeamGuard
	logger     *slog.Logger
}

// NewTeamService creates a new TeamService
func NewTeamService(
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	guard *TeamGuard,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		guard:      guard,
		logger:     logger,
	}
}

// Create creates a team and an active owner member record for the creator.
// The slug is derived from the name when not given; a taken slug is a
// conflict.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput, creator domain.UserInfo) (*domain.Team, error) {
	slug := input.Slug
	if slug == "" {
		slug = slugify(input.Name)
	}

	team := &domain.Team{
		ID:              uuid.New(),
		Name:            input.Name,
		Slug:            slug,
		Description:     input.Description,
		TeamSize:        1,
		CreatedByUserID: creator.ID,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	owner := &domain.TeamMember{
		ID:               uuid.New(),
		TeamID:           team.ID,
		UserID:           creator.ID,
		Email:            creator.Email,
		DisplayName:      creator.Name,
		Role:             domain.RoleOwner,
		InvitationStatus: domain.StatusActive,
	}

	if err := s.memberRepo.Create(ctx, owner); err != nil {
		return nil, err
	}

	s.logger.Info("team created", "team_id", team.ID, "slug", team.Slug, "created_by", creator.ID)
	return team, nil
}

// List returns the active teams the user belongs to.
func (s *TeamService) List(ctx context.Context, userID string) ([]*domain.Team, error) {
	return s.teamRepo.ListByUser(ctx, userID)
}

// Get returns a team. Only its members may read it.
func (s *TeamService) Get(ctx context.Context, teamID uuid.UUID, requesterID string) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.Membership(ctx, teamID, requesterID); err != nil {
		return nil, err
	}

	return team, nil
}

// Update applies a partial update to a team. Only owners and admins may
// update; setting is_active to false soft-deletes the team and is reserved
// for owners.
func (s *TeamService) Update(ctx context.Context, teamID uuid.UUID, input UpdateTeamInput, requesterID string) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, teamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if input.IsActive != nil && !*input.IsActive {
		if _, err := s.guard.RequireRole(ctx, teamID, requesterID, domain.RoleOwner); err != nil {
			return nil, err
		}
		if err := s.teamRepo.Deactivate(ctx, teamID); err != nil {
			return nil, err
		}
		team.IsActive = false
		s.logger.Info("team deactivated", "team_id", teamID, "by", requesterID)
		return team, nil
	}

	if input.Name != nil {
		team.Name = *input.Name
	}
	if input.Description != nil {
		team.Description = *input.Description
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, err
	}

	s.logger.Info("team updated", "team_id", teamID, "by", requesterID)
	return team, nil
}
