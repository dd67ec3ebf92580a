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

// IntegrationRepository реализует repository.IntegrationRepository для PostgreSQL
type IntegrationRepository struct {
	db *pgxpool.Pool
}

// NewIntegrationRepository создает новый экземпляр IntegrationRepository
func NewIntegrationRepository(db *pgxpool.Pool) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

const integrationColumns = `
	id, name, description, service_type, status, metadata,
	owner_team_id, created_by_user_id, workspace_id, last_used_at,
	created_at, updated_at
`

func scanIntegration(row pgx.Row) (*domain.Integration, error) {
	var in domain.Integration
	var description, workspaceID *string
	err := row.Scan(
		&in.ID, &in.Name, &description, &in.ServiceType, &in.Status, &in.Metadata,
		&in.OwnerTeamID, &in.CreatedByUserID, &workspaceID, &in.LastUsedAt,
		&in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		in.Description = *description
	}
	if workspaceID != nil {
		in.WorkspaceID = *workspaceID
	}
	return &in, nil
}

// Create создает новую интеграцию
func (r *IntegrationRepository) Create(ctx context.Context, integration *domain.Integration) error {
	query := `
		INSERT INTO integrations (
			id, name, description, service_type, status, metadata,
			owner_team_id, created_by_user_id, workspace_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		integration.ID, integration.Name, nullable(integration.Description),
		integration.ServiceType, integration.Status, integration.Metadata,
		integration.OwnerTeamID, integration.CreatedByUserID, nullable(integration.WorkspaceID),
	).Scan(&integration.CreatedAt, &integration.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrIntegrationExists
		}
		return err
	}

	return nil
}

// GetByID получает интеграцию по ID
func (r *IntegrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Integration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integrations
		WHERE id = $1
	`

	integration, err := scanIntegration(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntegrationNotFound
		}
		return nil, err
	}

	return integration, nil
}

// ListByTeam возвращает интеграции, которыми команда владеет или которые ей
// активно расшарены
func (r *IntegrationRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.Integration, error) {
	query := `
		SELECT DISTINCT ` + prefixedIntegrationColumns + `
		FROM integrations i
		LEFT JOIN integration_shares s
		       ON s.integration_id = i.id AND s.status = 'active'
		WHERE i.owner_team_id = $1 OR s.team_id = $1
		ORDER BY i.created_at
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var integrations []*domain.Integration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, integration)
	}

	return integrations, rows.Err()
}

const prefixedIntegrationColumns = `
	i.id, i.name, i.description, i.service_type, i.status, i.metadata,
	i.owner_team_id, i.created_by_user_id, i.workspace_id, i.last_used_at,
	i.created_at, i.updated_at
`

// Update сохраняет изменения интеграции
func (r *IntegrationRepository) Update(ctx context.Context, integration *domain.Integration) error {
	query := `
		UPDATE integrations
		SET name = $1, description = $2, status = $3, metadata = $4,
		    last_used_at = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		integration.Name, nullable(integration.Description), integration.Status,
		integration.Metadata, integration.LastUsedAt, integration.ID,
	).Scan(&integration.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrIntegrationNotFound
		}
		return err
	}

	return nil
}

// CreateCredential сохраняет учетные данные интеграции
func (r *IntegrationRepository) CreateCredential(ctx context.Context, credential *domain.IntegrationCredential) error {
	query := `
		INSERT INTO integration_credentials (
			id, integration_id, credential_type, secret_value, refresh_token, expires_at, scopes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		credential.ID, credential.IntegrationID, credential.CredentialType,
		credential.SecretValue, nullable(credential.RefreshToken),
		credential.ExpiresAt, credential.Scopes,
	).Scan(&credential.CreatedAt, &credential.UpdatedAt)
}

// ListCredentials возвращает учетные данные интеграции
func (r *IntegrationRepository) ListCredentials(ctx context.Context, integrationID uuid.UUID) ([]*domain.IntegrationCredential, error) {
	query := `
		SELECT id, integration_id, credential_type, secret_value, refresh_token,
		       expires_at, scopes, created_at, updated_at
		FROM integration_credentials
		WHERE integration_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, integrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var credentials []*domain.IntegrationCredential
	for rows.Next() {
		var c domain.IntegrationCredential
		var refreshToken *string
		if err := rows.Scan(
			&c.ID, &c.IntegrationID, &c.CredentialType, &c.SecretValue, &refreshToken,
			&c.ExpiresAt, &c.Scopes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if refreshToken != nil {
			c.RefreshToken = *refreshToken
		}
		credentials = append(credentials, &c)
	}

	return credentials, rows.Err()
}

// UpsertResource вставляет или обновляет ресурс по внешнему идентификатору
func (r *IntegrationRepository) UpsertResource(ctx context.Context, resource *domain.ServiceResource) error {
	query := `
		INSERT INTO service_resources (
			id, integration_id, resource_type, external_id, name, metadata, last_synced_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (integration_id, resource_type, external_id) DO UPDATE
		SET name = EXCLUDED.name,
		    metadata = EXCLUDED.metadata,
		    last_synced_at = EXCLUDED.last_synced_at,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		resource.ID, resource.IntegrationID, resource.ResourceType,
		resource.ExternalID, resource.Name, resource.Metadata, resource.LastSyncedAt,
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)
}

// GetResource получает ресурс интеграции по ID
func (r *IntegrationRepository) GetResource(ctx context.Context, integrationID, resourceID uuid.UUID) (*domain.ServiceResource, error) {
	query := `
		SELECT id, integration_id, resource_type, external_id, name, metadata,
		       last_synced_at, created_at, updated_at
		FROM service_resources
		WHERE integration_id = $1 AND id = $2
	`

	var res domain.ServiceResource
	err := r.db.QueryRow(ctx, query, integrationID, resourceID).Scan(
		&res.ID, &res.IntegrationID, &res.ResourceType, &res.ExternalID, &res.Name,
		&res.Metadata, &res.LastSyncedAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}

	return &res, nil
}

// ListResources возвращает ресурсы интеграции, опционально по типу
func (r *IntegrationRepository) ListResources(ctx context.Context, integrationID uuid.UUID, resourceType string) ([]*domain.ServiceResource, error) {
	var rows pgx.Rows
	var err error

	if resourceType == "" {
		query := `
			SELECT id, integration_id, resource_type, external_id, name, metadata,
			       last_synced_at, created_at, updated_at
			FROM service_resources
			WHERE integration_id = $1
			ORDER BY resource_type, name
		`
		rows, err = r.db.Query(ctx, query, integrationID)
	} else {
		query := `
			SELECT id, integration_id, resource_type, external_id, name, metadata,
			       last_synced_at, created_at, updated_at
			FROM service_resources
			WHERE integration_id = $1 AND resource_type = $2
			ORDER BY name
		`
		rows, err = r.db.Query(ctx, query, integrationID, resourceType)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*domain.ServiceResource
	for rows.Next() {
		var res domain.ServiceResource
		if err := rows.Scan(
			&res.ID, &res.IntegrationID, &res.ResourceType, &res.ExternalID, &res.Name,
			&res.Metadata, &res.LastSyncedAt, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		resources = append(resources, &res)
	}

	return resources, rows.Err()
}

// CreateShare создает шаринг интеграции команде
func (r *IntegrationRepository) CreateShare(ctx context.Context, share *domain.IntegrationShare) error {
	query := `
		INSERT INTO integration_shares (
			id, integration_id, team_id, share_level, status, shared_by_user_id
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		share.ID, share.IntegrationID, share.TeamID,
		share.ShareLevel, share.Status, share.SharedByUserID,
	).Scan(&share.CreatedAt, &share.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyShared
		}
		return err
	}

	return nil
}

// GetShare получает шаринг по интеграции и команде в любом статусе
func (r *IntegrationRepository) GetShare(ctx context.Context, integrationID, teamID uuid.UUID) (*domain.IntegrationShare, error) {
	query := `
		SELECT id, integration_id, team_id, share_level, status, revoked_at,
		       shared_by_user_id, created_at, updated_at
		FROM integration_shares
		WHERE integration_id = $1 AND team_id = $2
	`

	var share domain.IntegrationShare
	err := r.db.QueryRow(ctx, query, integrationID, teamID).Scan(
		&share.ID, &share.IntegrationID, &share.TeamID, &share.ShareLevel,
		&share.Status, &share.RevokedAt, &share.SharedByUserID,
		&share.CreatedAt, &share.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &share, nil
}

// UpdateShare сохраняет изменения шаринга
func (r *IntegrationRepository) UpdateShare(ctx context.Context, share *domain.IntegrationShare) error {
	query := `
		UPDATE integration_shares
		SET share_level = $1, status = $2, revoked_at = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		share.ShareLevel, share.Status, share.RevokedAt, share.ID,
	).Scan(&share.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrShareNotFound
		}
		return err
	}

	return nil
}

// ListShares возвращает все шаринги интеграции
func (r *IntegrationRepository) ListShares(ctx context.Context, integrationID uuid.UUID) ([]*domain.IntegrationShare, error) {
	query := `
		SELECT id, integration_id, team_id, share_level, status, revoked_at,
		       shared_by_user_id, created_at, updated_at
		FROM integration_shares
		WHERE integration_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, integrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*domain.IntegrationShare
	for rows.Next() {
		var share domain.IntegrationShare
		if err := rows.Scan(
			&share.ID, &share.IntegrationID, &share.TeamID, &share.ShareLevel,
			&share.Status, &share.RevokedAt, &share.SharedByUserID,
			&share.CreatedAt, &share.UpdatedAt,
		); err != nil {
			return nil, err
		}
		shares = append(shares, &share)
	}

	return shares, rows.Err()
}

// CreateAccess создает доступ команды к ресурсу
func (r *IntegrationRepository) CreateAccess(ctx context.Context, access *domain.ResourceAccess) error {
	query := `
		INSERT INTO resource_access (
			id, resource_id, team_id, access_level, granted_by_user_id
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		access.ID, access.ResourceID, access.TeamID,
		access.AccessLevel, access.GrantedByUserID,
	).Scan(&access.CreatedAt, &access.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrAccessExists
		}
		return err
	}

	return nil
}

// RecordEvent добавляет запись в журнал событий интеграции
func (r *IntegrationRepository) RecordEvent(ctx context.Context, event *domain.IntegrationEvent) error {
	query := `
		INSERT INTO integration_events (
			id, integration_id, event_type, details, actor_user_id, affected_team_id
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return r.db.QueryRow(ctx, query,
		event.ID, event.IntegrationID, event.EventType,
		event.Details, event.ActorUserID, event.AffectedTeamID,
	).Scan(&event.CreatedAt)
}

// ListEvents возвращает журнал событий интеграции, новые записи первыми
func (r *IntegrationRepository) ListEvents(ctx context.Context, integrationID uuid.UUID) ([]*domain.IntegrationEvent, error) {
	query := `
		SELECT id, integration_id, event_type, details, actor_user_id, affected_team_id, created_at
		FROM integration_events
		WHERE integration_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, integrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.IntegrationEvent
	for rows.Next() {
		var e domain.IntegrationEvent
		if err := rows.Scan(
			&e.ID, &e.IntegrationID, &e.EventType, &e.Details,
			&e.ActorUserID, &e.AffectedTeamID, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}
