package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/repository"
)

// CreateIntegrationInput carries the fields accepted when connecting an
// external service. When OAuthCode is set the code is exchanged for an access
// token and the resulting credential is stored alongside the integration.
type CreateIntegrationInput struct {
	Name        string
	Description string
	ServiceType domain.IntegrationType
	OAuthCode   string
	RedirectURI string
	Metadata    map[string]any
}

// UpdateIntegrationInput carries a partial integration update; nil fields are
// left untouched.
type UpdateIntegrationInput struct {
	Name        *string
	Description *string
	Status      *domain.IntegrationStatus
}

// IntegrationService orchestrates external service connections: credentials,
// cross-team sharing, resource sync and the audit trail.
type IntegrationService struct {
	integrationRepo repository.IntegrationRepository
	teamRepo        repository.TeamRepository
	guard           *TeamGuard
	exchanger       OAuthExchanger
	listers         map[domain.IntegrationType]ResourceLister
	logger          *slog.Logger
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(
	integrationRepo repository.IntegrationRepository,
	teamRepo repository.TeamRepository,
	guard *TeamGuard,
	exchanger OAuthExchanger,
	listers map[domain.IntegrationType]ResourceLister,
	logger *slog.Logger,
) *IntegrationService {
	return &IntegrationService{
		integrationRepo: integrationRepo,
		teamRepo:        teamRepo,
		guard:           guard,
		exchanger:       exchanger,
		listers:         listers,
		logger:          logger,
	}
}

// Create connects an external service to a team. Only owners and admins of
// the team may connect. With an OAuth code the code is exchanged first and
// the integration is bound to the returned workspace.
func (s *IntegrationService) Create(ctx context.Context, teamID uuid.UUID, input CreateIntegrationInput, requesterID string) (*domain.Integration, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, teamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if !input.ServiceType.IsValid() {
		return nil, domain.ErrInvalidServiceType
	}

	integration := &domain.Integration{
		ID:              uuid.New(),
		Name:            input.Name,
		Description:     input.Description,
		ServiceType:     input.ServiceType,
		Status:          domain.IntegrationActive,
		Metadata:        input.Metadata,
		OwnerTeamID:     teamID,
		CreatedByUserID: requesterID,
	}

	var token *OAuthToken
	if input.OAuthCode != "" {
		var err error
		token, err = s.exchanger.Exchange(ctx, input.OAuthCode, input.RedirectURI)
		if err != nil {
			s.logger.Error("oauth exchange failed",
				"team_id", teamID, "service_type", input.ServiceType, "error", err)
			return nil, err
		}

		integration.WorkspaceID = token.WorkspaceID
		if integration.Metadata == nil {
			integration.Metadata = map[string]any{}
		}
		integration.Metadata["workspace_name"] = token.WorkspaceName
		if integration.Name == "" {
			integration.Name = token.WorkspaceName
		}
	}

	if err := s.integrationRepo.Create(ctx, integration); err != nil {
		return nil, err
	}

	if token != nil {
		credential := &domain.IntegrationCredential{
			ID:             uuid.New(),
			IntegrationID:  integration.ID,
			CredentialType: domain.CredentialOAuthToken,
			SecretValue:    token.AccessToken,
			Scopes:         splitScopes(token.Scope),
		}
		if err := s.integrationRepo.CreateCredential(ctx, credential); err != nil {
			return nil, err
		}
	}

	s.recordEvent(ctx, integration.ID, domain.EventCreated, requesterID, nil, map[string]any{
		"service_type": integration.ServiceType,
	})

	s.logger.Info("integration created",
		"integration_id", integration.ID, "team_id", teamID, "service_type", integration.ServiceType)
	return integration, nil
}

// Get returns an integration readable by the requester.
func (s *IntegrationService) Get(ctx context.Context, integrationID uuid.UUID, requesterID string) (*domain.Integration, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if err := s.requireReadAccess(ctx, integration, requesterID); err != nil {
		return nil, err
	}

	return integration, nil
}

// ListByTeam returns the integrations the team owns plus those actively
// shared with it. Any team member may list.
func (s *IntegrationService) ListByTeam(ctx context.Context, teamID uuid.UUID, requesterID string) ([]*domain.Integration, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	if _, err := s.guard.Membership(ctx, teamID, requesterID); err != nil {
		return nil, err
	}

	return s.integrationRepo.ListByTeam(ctx, teamID)
}

// Update applies a partial update to an integration. Only owners and admins
// of the owning team may update.
func (s *IntegrationService) Update(ctx context.Context, integrationID uuid.UUID, input UpdateIntegrationInput, requesterID string) (*domain.Integration, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, integration.OwnerTeamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	eventType := domain.EventUpdated
	if input.Name != nil {
		integration.Name = *input.Name
	}
	if input.Description != nil {
		integration.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, domain.ErrInvalidIntegrationStatus
		}
		if *input.Status == domain.IntegrationDisconnected && integration.Status != domain.IntegrationDisconnected {
			eventType = domain.EventDisconnected
		}
		integration.Status = *input.Status
	}

	if err := s.integrationRepo.Update(ctx, integration); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, integrationID, eventType, requesterID, nil, nil)

	s.logger.Info("integration updated", "integration_id", integrationID, "by", requesterID)
	return integration, nil
}

// Share grants another team access to an integration. A previously revoked
// share is reactivated in place; an already active share is a conflict.
func (s *IntegrationService) Share(ctx context.Context, integrationID, targetTeamID uuid.UUID, level domain.ShareLevel, requesterID string) (*domain.IntegrationShare, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, integration.OwnerTeamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if _, err := s.teamRepo.GetByID(ctx, targetTeamID); err != nil {
		return nil, err
	}

	if level == "" {
		level = domain.ShareReadOnly
	}
	if !level.IsValid() {
		return nil, domain.ErrInvalidShareLevel
	}

	existing, err := s.integrationRepo.GetShare(ctx, integrationID, targetTeamID)
	if err != nil {
		return nil, err
	}

	var share *domain.IntegrationShare
	if existing != nil {
		if existing.Status == domain.ShareActive {
			return nil, domain.ErrAlreadyShared
		}
		existing.Status = domain.ShareActive
		existing.ShareLevel = level
		existing.RevokedAt = nil
		existing.SharedByUserID = requesterID
		if err := s.integrationRepo.UpdateShare(ctx, existing); err != nil {
			return nil, err
		}
		share = existing
	} else {
		share = &domain.IntegrationShare{
			ID:             uuid.New(),
			IntegrationID:  integrationID,
			TeamID:         targetTeamID,
			ShareLevel:     level,
			Status:         domain.ShareActive,
			SharedByUserID: requesterID,
		}
		if err := s.integrationRepo.CreateShare(ctx, share); err != nil {
			return nil, err
		}
	}

	s.recordEvent(ctx, integrationID, domain.EventShared, requesterID, &targetTeamID, map[string]any{
		"share_level": level,
	})

	s.logger.Info("integration shared",
		"integration_id", integrationID, "team_id", targetTeamID, "share_level", level)
	return share, nil
}

// Unshare revokes a team's access to an integration. The share row is kept
// with a revocation timestamp so a later re-share reactivates it.
func (s *IntegrationService) Unshare(ctx context.Context, integrationID, targetTeamID uuid.UUID, requesterID string) error {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return err
	}

	if _, err := s.guard.RequireRole(ctx, integration.OwnerTeamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return err
	}

	share, err := s.integrationRepo.GetShare(ctx, integrationID, targetTeamID)
	if err != nil {
		return err
	}
	if share == nil || share.Status != domain.ShareActive {
		return domain.ErrShareNotFound
	}

	now := time.Now().UTC()
	share.Status = domain.ShareRevoked
	share.RevokedAt = &now

	if err := s.integrationRepo.UpdateShare(ctx, share); err != nil {
		return err
	}

	s.recordEvent(ctx, integrationID, domain.EventUnshared, requesterID, &targetTeamID, nil)

	s.logger.Info("integration unshared", "integration_id", integrationID, "team_id", targetTeamID)
	return nil
}

// ListShares returns all shares of an integration. Only owners and admins of
// the owning team may list them.
func (s *IntegrationService) ListShares(ctx context.Context, integrationID uuid.UUID, requesterID string) ([]*domain.IntegrationShare, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, integration.OwnerTeamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	return s.integrationRepo.ListShares(ctx, integrationID)
}

// SyncResources refreshes the integration's resource inventory from the
// external service. Requires stored credentials and a lister for the service
// type.
func (s *IntegrationService) SyncResources(ctx context.Context, integrationID uuid.UUID, requesterID string) ([]*domain.ServiceResource, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, integration.OwnerTeamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	lister, ok := s.listers[integration.ServiceType]
	if !ok {
		return nil, domain.ErrSyncUnsupported
	}

	credentials, err := s.integrationRepo.ListCredentials(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if len(credentials) == 0 {
		return nil, domain.ErrNoCredentials
	}

	resources, err := lister.ListResources(ctx, credentials[0].SecretValue)
	if err != nil {
		s.recordEvent(ctx, integrationID, domain.EventError, requesterID, nil, map[string]any{
			"operation": "resource_sync",
		})
		return nil, err
	}

	now := time.Now().UTC()
	for _, resource := range resources {
		resource.ID = uuid.New()
		resource.IntegrationID = integrationID
		resource.LastSyncedAt = &now
		if err := s.integrationRepo.UpsertResource(ctx, resource); err != nil {
			return nil, err
		}
	}

	integration.LastUsedAt = &now
	if err := s.integrationRepo.Update(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info("resources synced", "integration_id", integrationID, "count", len(resources))
	return resources, nil
}

// ListResources returns the synced resources of an integration, optionally
// filtered by type.
func (s *IntegrationService) ListResources(ctx context.Context, integrationID uuid.UUID, resourceType, requesterID string) ([]*domain.ServiceResource, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if err := s.requireReadAccess(ctx, integration, requesterID); err != nil {
		return nil, err
	}

	return s.integrationRepo.ListResources(ctx, integrationID, resourceType)
}

// GrantResourceAccess gives a team access to a single resource. A team other
// than the owner must already hold an active share of the integration.
func (s *IntegrationService) GrantResourceAccess(ctx context.Context, integrationID, resourceID, teamID uuid.UUID, level domain.AccessLevel, requesterID string) (*domain.ResourceAccess, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.RequireRole(ctx, integration.OwnerTeamID, requesterID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	resource, err := s.integrationRepo.GetResource(ctx, integrationID, resourceID)
	if err != nil {
		return nil, err
	}

	if level == "" {
		level = domain.AccessRead
	}
	if !level.IsValid() {
		return nil, domain.ErrInvalidAccessLevel
	}

	if teamID != integration.OwnerTeamID {
		share, err := s.integrationRepo.GetShare(ctx, integrationID, teamID)
		if err != nil {
			return nil, err
		}
		if share == nil || share.Status != domain.ShareActive {
			return nil, domain.ErrShareNotFound
		}
	}

	access := &domain.ResourceAccess{
		ID:              uuid.New(),
		ResourceID:      resource.ID,
		TeamID:          teamID,
		AccessLevel:     level,
		GrantedByUserID: requesterID,
	}

	if err := s.integrationRepo.CreateAccess(ctx, access); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, integrationID, domain.EventAccessChanged, requesterID, &teamID, map[string]any{
		"resource_id":  resource.ID,
		"access_level": level,
	})

	s.logger.Info("resource access granted",
		"integration_id", integrationID, "resource_id", resourceID, "team_id", teamID)
	return access, nil
}

// ListEvents returns the integration's audit trail, newest first.
func (s *IntegrationService) ListEvents(ctx context.Context, integrationID uuid.UUID, requesterID string) ([]*domain.IntegrationEvent, error) {
	integration, err := s.integrationRepo.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if err := s.requireReadAccess(ctx, integration, requesterID); err != nil {
		return nil, err
	}

	return s.integrationRepo.ListEvents(ctx, integrationID)
}

// requireReadAccess checks that the requester belongs to the owning team or
// to a team holding an active share.
func (s *IntegrationService) requireReadAccess(ctx context.Context, integration *domain.Integration, requesterID string) error {
	member, err := s.guard.memberRepo.GetByUserID(ctx, integration.OwnerTeamID, requesterID)
	if err != nil {
		return err
	}
	if member != nil {
		return nil
	}

	shares, err := s.integrationRepo.ListShares(ctx, integration.ID)
	if err != nil {
		return err
	}
	for _, share := range shares {
		if share.Status != domain.ShareActive {
			continue
		}
		member, err := s.guard.memberRepo.GetByUserID(ctx, share.TeamID, requesterID)
		if err != nil {
			return err
		}
		if member != nil {
			return nil
		}
	}

	return domain.ErrNotTeamMember
}

// recordEvent appends an audit record. Failures are logged and swallowed, the
// audit trail never blocks the primary operation.
func (s *IntegrationService) recordEvent(ctx context.Context, integrationID uuid.UUID, eventType domain.EventType, actorID string, affectedTeamID *uuid.UUID, details map[string]any) {
	event := &domain.IntegrationEvent{
		ID:             uuid.New(),
		IntegrationID:  integrationID,
		EventType:      eventType,
		Details:        details,
		ActorUserID:    actorID,
		AffectedTeamID: affectedTeamID,
	}

	if err := s.integrationRepo.RecordEvent(ctx, event); err != nil {
		s.logger.Error("failed to record integration event",
			"integration_id", integrationID, "event_type", eventType, "error", err)
	}
}

func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Split(scope, ",")
}
