package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/repository"
)

// MemberAction identifies an operation on a team member record.
type MemberAction string

// Actions covered by the membership policy.
const (
	ActionView         MemberAction = "view"
	ActionAdd          MemberAction = "add"
	ActionUpdate       MemberAction = "update"
	ActionRemove       MemberAction = "remove"
	ActionResendInvite MemberAction = "resend_invite"
)

// memberDecision is the outcome the policy table assigns to a (requester role,
// action) pair. Qualifiers on the target are resolved in Check.
type memberDecision int

const (
	denyAll memberDecision = iota
	allowAll
	// allowUnprivilegedTargets denies when the target's current or requested
	// role is owner or admin.
	allowUnprivilegedTargets
	// allowSelfOnly permits the action only on the requester's own record.
	allowSelfOnly
)

type policyKey struct {
	Requester domain.Role
	Action    MemberAction
}

// memberPolicy is the authorization matrix. Pairs absent from the table are
// denied. Viewing is open to every team member regardless of role; the
// last-owner invariant is enforced separately by the member service because it
// depends on team state, not on roles alone.
var memberPolicy = map[policyKey]memberDecision{
	{domain.RoleOwner, ActionView}:         allowAll,
	{domain.RoleOwner, ActionAdd}:          allowAll,
	{domain.RoleOwner, ActionUpdate}:       allowAll,
	{domain.RoleOwner, ActionRemove}:       allowAll,
	{domain.RoleOwner, ActionResendInvite}: allowAll,

	{domain.RoleAdmin, ActionView}:         allowAll,
	{domain.RoleAdmin, ActionAdd}:          allowAll,
	{domain.RoleAdmin, ActionUpdate}:       allowUnprivilegedTargets,
	{domain.RoleAdmin, ActionRemove}:       allowUnprivilegedTargets,
	{domain.RoleAdmin, ActionResendInvite}: allowAll,

	{domain.RoleMember, ActionView}:   allowAll,
	{domain.RoleMember, ActionUpdate}: allowSelfOnly,
	{domain.RoleMember, ActionRemove}: allowSelfOnly,

	{domain.RoleViewer, ActionView}:   allowAll,
	{domain.RoleViewer, ActionUpdate}: allowSelfOnly,
	{domain.RoleViewer, ActionRemove}: allowSelfOnly,
}

// PermissionGate decides whether a requester role may perform a member action
// on a target. It is a pure policy lookup with no storage access.
type PermissionGate struct{}

// NewPermissionGate creates a new PermissionGate
func NewPermissionGate() *PermissionGate {
	return &PermissionGate{}
}

// Check applies the policy table. target is the target member's current role,
// requested is the role the requester is trying to assign (empty when the
// action does not change roles), isSelf marks actions on the requester's own
// record.
func (g *PermissionGate) Check(requester domain.Role, action MemberAction, target, requested domain.Role, isSelf bool) error {
	switch memberPolicy[policyKey{requester, action}] {
	case allowAll:
		return nil
	case allowUnprivilegedTargets:
		if target.IsPrivileged() || requested.IsPrivileged() {
			if action == ActionRemove {
				return domain.ErrAdminRemovePrivileged
			}
			return domain.ErrAdminModifyPrivileged
		}
		return nil
	case allowSelfOnly:
		if isSelf {
			return nil
		}
		if action == ActionRemove {
			return domain.ErrSelfRemoveOnly
		}
		return domain.ErrSelfUpdateOnly
	default:
		return domain.ErrForbidden
	}
}

// TeamGuard is the membership lookup collaborator shared by the membership,
// team and integration services.
type TeamGuard struct {
	memberRepo repository.MemberRepository
}

// NewTeamGuard creates a new TeamGuard
func NewTeamGuard(memberRepo repository.MemberRepository) *TeamGuard {
	return &TeamGuard{memberRepo: memberRepo}
}

// Membership returns the requester's member record for the team. A caller
// with no record at all fails with ErrNotTeamMember, never with an empty
// result.
func (g *TeamGuard) Membership(ctx context.Context, teamID uuid.UUID, userID string) (*domain.TeamMember, error) {
	member, err := g.memberRepo.GetByUserID(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotTeamMember
	}
	return member, nil
}

// RequireRole returns the requester's member record only when their role is
// one of the allowed roles.
func (g *TeamGuard) RequireRole(ctx context.Context, teamID uuid.UUID, userID string, roles ...domain.Role) (*domain.TeamMember, error) {
	member, err := g.Membership(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if member.Role == role {
			return member, nil
		}
	}
	return nil, domain.ErrForbidden
}
