package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toban/contribhub/internal/domain"
)

// Имена уникальных индексов из миграции 000001: по ним конфликт вставки
// превращается в детерминированную доменную ошибку вместо гонки двух запросов
const (
	constraintTeamUser     = "uq_team_members_team_user"
	constraintPendingEmail = "uq_team_members_pending_email"
)

// MemberRepository реализует repository.MemberRepository для PostgreSQL
type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository создает новый экземпляр MemberRepository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `
	id, team_id, user_id, email, display_name, role,
	invitation_status, invitation_token, invitation_expires_at,
	created_at, updated_at
`

func scanMember(row pgx.Row) (*domain.TeamMember, error) {
	var m domain.TeamMember
	var userID, email, displayName, token *string
	err := row.Scan(
		&m.ID, &m.TeamID, &userID, &email, &displayName, &m.Role,
		&m.InvitationStatus, &token, &m.InvitationExpiresAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		m.UserID = *userID
	}
	if email != nil {
		m.Email = *email
	}
	if displayName != nil {
		m.DisplayName = *displayName
	}
	if token != nil {
		m.InvitationToken = *token
	}
	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create создает новую запись участника
func (r *MemberRepository) Create(ctx context.Context, member *domain.TeamMember) error {
	query := `
		INSERT INTO team_members (
			id, team_id, user_id, email, display_name, role,
			invitation_status, invitation_token, invitation_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		member.ID, member.TeamID,
		nullable(member.UserID), nullable(member.Email), nullable(member.DisplayName),
		member.Role, member.InvitationStatus,
		nullable(member.InvitationToken), member.InvitationExpiresAt,
	).Scan(&member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			switch pgErr.ConstraintName {
			case constraintTeamUser:
				return domain.ErrAlreadyMember
			case constraintPendingEmail:
				return domain.ErrEmailPendingInvitation
			}
			return domain.ErrAlreadyMember
		}
		return err
	}

	return nil
}

// GetByID получает участника команды по ID записи (любой статус)
func (r *MemberRepository) GetByID(ctx context.Context, teamID, memberID uuid.UUID) (*domain.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE team_id = $1 AND id = $2
	`

	member, err := scanMember(r.db.QueryRow(ctx, query, teamID, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	return member, nil
}

// GetByUserID получает запись участника по ID пользователя в любом статусе
func (r *MemberRepository) GetByUserID(ctx context.Context, teamID uuid.UUID, userID string) (*domain.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`

	member, err := scanMember(r.db.QueryRow(ctx, query, teamID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return member, nil
}

// GetPendingByEmail получает ожидающее приглашение по email для еще не
// зарегистрированного пользователя
func (r *MemberRepository) GetPendingByEmail(ctx context.Context, teamID uuid.UUID, email string) (*domain.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE team_id = $1 AND user_id IS NULL AND email = $2 AND invitation_status = 'pending'
	`

	member, err := scanMember(r.db.QueryRow(ctx, query, teamID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return member, nil
}

// List возвращает участников команды с сортировкой, зависящей от фильтра
func (r *MemberRepository) List(ctx context.Context, teamID uuid.UUID, status *domain.InvitationStatus) ([]*domain.TeamMember, error) {
	var rows pgx.Rows
	var err error

	if status == nil {
		query := `
			SELECT ` + memberColumns + `
			FROM team_members
			WHERE team_id = $1
			ORDER BY invitation_status, role, created_at
		`
		rows, err = r.db.Query(ctx, query, teamID)
	} else {
		query := `
			SELECT ` + memberColumns + `
			FROM team_members
			WHERE team_id = $1 AND invitation_status = $2
			ORDER BY role, created_at
		`
		rows, err = r.db.Query(ctx, query, teamID, *status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.TeamMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// Update сохраняет изменения записи участника
func (r *MemberRepository) Update(ctx context.Context, member *domain.TeamMember) error {
	query := `
		UPDATE team_members
		SET role = $1,
		    display_name = $2,
		    invitation_status = $3,
		    invitation_token = $4,
		    invitation_expires_at = $5,
		    updated_at = NOW()
		WHERE team_id = $6 AND id = $7
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		member.Role, nullable(member.DisplayName), member.InvitationStatus,
		nullable(member.InvitationToken), member.InvitationExpiresAt,
		member.TeamID, member.ID,
	).Scan(&member.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrMemberNotFound
		}
		return err
	}

	return nil
}

// CountActiveOwners считает активных владельцев команды
func (r *MemberRepository) CountActiveOwners(ctx context.Context, teamID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM team_members
		WHERE team_id = $1 AND role = 'owner' AND invitation_status = 'active'
	`

	var count int
	if err := r.db.QueryRow(ctx, query, teamID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// CountActive считает активных участников команды
func (r *MemberRepository) CountActive(ctx context.Context, teamID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM team_members
		WHERE team_id = $1 AND invitation_status = 'active'
	`

	var count int
	if err := r.db.QueryRow(ctx, query, teamID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
