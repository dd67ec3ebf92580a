package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toban/contribhub/internal/domain"
)

// OverviewStats represents platform-wide statistics
type OverviewStats struct {
	TotalTeams         int `json:"total_teams"`
	ActiveMembers      int `json:"active_members"`
	PendingInvitations int `json:"pending_invitations"`
	TotalIntegrations  int `json:"total_integrations"`
	ActiveIntegrations int `json:"active_integrations"`
}

// TeamStats represents statistics for a single team
type TeamStats struct {
	TeamID             uuid.UUID      `json:"team_id"`
	MembersByStatus    map[string]int `json:"members_by_status"`
	MembersByRole      map[string]int `json:"members_by_role"`
	OwnedIntegrations  int            `json:"owned_integrations"`
	SharedIntegrations int            `json:"shared_integrations"`
}

// StatsService handles statistics queries
type StatsService struct {
	db *pgxpool.Pool
}

// NewStatsService creates a new StatsService
func NewStatsService(db *pgxpool.Pool) *StatsService {
	return &StatsService{db: db}
}

// GetStats returns overall statistics
func (s *StatsService) GetStats(ctx context.Context) (*OverviewStats, error) {
	stats := &OverviewStats{}

	query := `
		SELECT
			(SELECT COUNT(*) FROM teams WHERE is_active = true) as total_teams,
			(SELECT COUNT(*) FROM team_members WHERE invitation_status = 'active') as active_members,
			(SELECT COUNT(*) FROM team_members WHERE invitation_status = 'pending') as pending_invitations,
			(SELECT COUNT(*) FROM integrations) as total_integrations,
			(SELECT COUNT(*) FROM integrations WHERE status = 'active') as active_integrations
	`

	if err := s.db.QueryRow(ctx, query).Scan(
		&stats.TotalTeams,
		&stats.ActiveMembers,
		&stats.PendingInvitations,
		&stats.TotalIntegrations,
		&stats.ActiveIntegrations,
	); err != nil {
		return nil, err
	}

	return stats, nil
}

// GetTeamStats returns statistics for a specific team. Only its members may
// read them.
func (s *StatsService) GetTeamStats(ctx context.Context, teamID uuid.UUID, requesterID string) (*TeamStats, error) {
	var isMember bool
	membershipQuery := `
		SELECT EXISTS (
			SELECT 1 FROM team_members
			WHERE team_id = $1 AND user_id = $2 AND invitation_status != 'inactive'
		)
	`
	if err := s.db.QueryRow(ctx, membershipQuery, teamID, requesterID).Scan(&isMember); err != nil {
		return nil, err
	}
	if !isMember {
		return nil, domain.ErrNotTeamMember
	}

	stats := &TeamStats{
		TeamID:          teamID,
		MembersByStatus: map[string]int{},
		MembersByRole:   map[string]int{},
	}

	memberQuery := `
		SELECT invitation_status, role, COUNT(*)
		FROM team_members
		WHERE team_id = $1
		GROUP BY invitation_status, role
	`

	rows, err := s.db.Query(ctx, memberQuery, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, role string
		var count int
		if err := rows.Scan(&status, &role, &count); err != nil {
			return nil, err
		}
		stats.MembersByStatus[status] += count
		stats.MembersByRole[role] += count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	integrationQuery := `
		SELECT
			(SELECT COUNT(*) FROM integrations WHERE owner_team_id = $1) as owned,
			(SELECT COUNT(*) FROM integration_shares WHERE team_id = $1 AND status = 'active') as shared
	`

	if err := s.db.QueryRow(ctx, integrationQuery, teamID).Scan(
		&stats.OwnedIntegrations,
		&stats.SharedIntegrations,
	); err != nil {
		return nil, err
	}

	return stats, nil
}
