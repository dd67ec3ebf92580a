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

// TeamRepository реализует repository.TeamRepository для PostgreSQL
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create создает новую команду
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (id, name, slug, description, team_size, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING is_active, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		team.ID, team.Name, team.Slug, team.Description, team.TeamSize, team.CreatedByUserID,
	).Scan(&team.IsActive, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (slug already taken)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrTeamExists
		}
		return err
	}

	return nil
}

// GetByID получает активную команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	query := `
		SELECT id, name, slug, description, team_size, is_active, created_by_user_id, created_at, updated_at
		FROM teams
		WHERE id = $1 AND is_active = true
	`

	var team domain.Team
	err := r.db.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Slug,
		&team.Description,
		&team.TeamSize,
		&team.IsActive,
		&team.CreatedByUserID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	return &team, nil
}

// ListByUser возвращает активные команды, в которых пользователь состоит
// (любой статус участия, кроме inactive)
func (r *TeamRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.description, t.team_size, t.is_active,
		       t.created_by_user_id, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1
		  AND m.invitation_status != 'inactive'
		  AND t.is_active = true
		ORDER BY t.created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(
			&team.ID, &team.Name, &team.Slug, &team.Description, &team.TeamSize,
			&team.IsActive, &team.CreatedByUserID, &team.CreatedAt, &team.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}

	return teams, rows.Err()
}

// Update обновляет название и описание команды
func (r *TeamRepository) Update(ctx context.Context, team *domain.Team) error {
	query := `
		UPDATE teams
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND is_active = true
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, team.Name, team.Description, team.ID).Scan(&team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTeamNotFound
		}
		return err
	}

	return nil
}

// Deactivate мягко удаляет команду, участники и интеграции остаются в базе
func (r *TeamRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE teams SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active = true`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}

	return nil
}

// SetTeamSize записывает денормализованный счетчик активных участников
func (r *TeamRepository) SetTeamSize(ctx context.Context, id uuid.UUID, size int) error {
	query := `UPDATE teams SET team_size = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, size, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}

	return nil
}
