package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationType представляет тип внешнего сервиса
type IntegrationType string

// Поддерживаемые внешние сервисы
const (
	IntegrationSlack   IntegrationType = "slack"
	IntegrationGitHub  IntegrationType = "github"
	IntegrationNotion  IntegrationType = "notion"
	IntegrationDiscord IntegrationType = "discord"
)

// IsValid проверяет, что тип сервиса входит в список поддерживаемых
func (t IntegrationType) IsValid() bool {
	switch t {
	case IntegrationSlack, IntegrationGitHub, IntegrationNotion, IntegrationDiscord:
		return true
	}
	return false
}

// IntegrationStatus представляет статус подключения интеграции
type IntegrationStatus string

// Статусы подключения
const (
	IntegrationActive       IntegrationStatus = "active"
	IntegrationDisconnected IntegrationStatus = "disconnected"
	IntegrationExpired      IntegrationStatus = "expired"
	IntegrationRevoked      IntegrationStatus = "revoked"
	IntegrationError        IntegrationStatus = "error"
)

// IsValid проверяет, что статус интеграции входит в список допустимых
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationActive, IntegrationDisconnected, IntegrationExpired, IntegrationRevoked, IntegrationError:
		return true
	}
	return false
}

// CredentialType представляет тип учетных данных интеграции
type CredentialType string

// Типы учетных данных
const (
	CredentialOAuthToken    CredentialType = "oauth_token"
	CredentialPersonalToken CredentialType = "personal_token"
	CredentialAPIKey        CredentialType = "api_key"
	CredentialAppToken      CredentialType = "app_token"
)

// IsValid проверяет, что тип учетных данных допустим
func (t CredentialType) IsValid() bool {
	switch t {
	case CredentialOAuthToken, CredentialPersonalToken, CredentialAPIKey, CredentialAppToken:
		return true
	}
	return false
}

// ShareLevel представляет уровень доступа при шаринге интеграции другой команде
type ShareLevel string

// Уровни шаринга
const (
	ShareFullAccess    ShareLevel = "full_access"
	ShareLimitedAccess ShareLevel = "limited_access"
	ShareReadOnly      ShareLevel = "read_only"
)

// IsValid проверяет, что уровень шаринга допустим
func (l ShareLevel) IsValid() bool {
	switch l {
	case ShareFullAccess, ShareLimitedAccess, ShareReadOnly:
		return true
	}
	return false
}

// AccessLevel представляет уровень доступа команды к конкретному ресурсу
type AccessLevel string

// Уровни доступа к ресурсам
const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

// IsValid проверяет, что уровень доступа допустим
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessRead, AccessWrite, AccessAdmin:
		return true
	}
	return false
}

// EventType представляет тип события в журнале интеграции
type EventType string

// Типы событий интеграции
const (
	EventCreated       EventType = "created"
	EventShared        EventType = "shared"
	EventUnshared      EventType = "unshared"
	EventUpdated       EventType = "updated"
	EventDisconnected  EventType = "disconnected"
	EventAccessChanged EventType = "access_changed"
	EventError         EventType = "error"
)

// Integration представляет подключение внешнего сервиса к команде-владельцу
type Integration struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	ServiceType     IntegrationType   `json:"service_type"`
	Status          IntegrationStatus `json:"status"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	OwnerTeamID     uuid.UUID         `json:"owner_team_id"`
	CreatedByUserID string            `json:"created_by_user_id"`
	WorkspaceID     string            `json:"workspace_id,omitempty"`
	LastUsedAt      *time.Time        `json:"last_used_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IntegrationCredential представляет сохраненные учетные данные интеграции.
// Само значение секрета никогда не попадает в ответы API.
type IntegrationCredential struct {
	ID             uuid.UUID      `json:"id"`
	IntegrationID  uuid.UUID      `json:"integration_id"`
	CredentialType CredentialType `json:"credential_type"`
	SecretValue    string         `json:"-"`
	RefreshToken   string         `json:"-"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Scopes         []string       `json:"scopes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ServiceResource представляет синхронизированный ресурс внешнего сервиса
// (канал, репозиторий, страницу и т.п.)
type ServiceResource struct {
	ID            uuid.UUID      `json:"id"`
	IntegrationID uuid.UUID      `json:"integration_id"`
	ResourceType  string         `json:"resource_type"`
	ExternalID    string         `json:"external_id"`
	Name          string         `json:"name"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	LastSyncedAt  *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ShareStatus представляет статус шаринга интеграции
type ShareStatus string

// Статусы шаринга
const (
	ShareActive  ShareStatus = "active"
	ShareRevoked ShareStatus = "revoked"
)

// IntegrationShare представляет предоставление интеграции другой команде
type IntegrationShare struct {
	ID             uuid.UUID   `json:"id"`
	IntegrationID  uuid.UUID   `json:"integration_id"`
	TeamID         uuid.UUID   `json:"team_id"`
	ShareLevel     ShareLevel  `json:"share_level"`
	Status         ShareStatus `json:"status"`
	RevokedAt      *time.Time  `json:"revoked_at,omitempty"`
	SharedByUserID string      `json:"shared_by_user_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ResourceAccess представляет доступ команды к конкретному ресурсу
type ResourceAccess struct {
	ID              uuid.UUID   `json:"id"`
	ResourceID      uuid.UUID   `json:"resource_id"`
	TeamID          uuid.UUID   `json:"team_id"`
	AccessLevel     AccessLevel `json:"access_level"`
	GrantedByUserID string      `json:"granted_by_user_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IntegrationEvent представляет запись журнала аудита интеграции
type IntegrationEvent struct {
	ID             uuid.UUID      `json:"id"`
	IntegrationID  uuid.UUID      `json:"integration_id"`
	EventType      EventType      `json:"event_type"`
	Details        map[string]any `json:"details,omitempty"`
	ActorUserID    string         `json:"actor_user_id"`
	AffectedTeamID *uuid.UUID     `json:"affected_team_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
