package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/toban/contribhub/internal/domain"
)

// TeamRepository определяет методы для работы с данными команд
type TeamRepository interface {
	// Create создает новую команду
	Create(ctx context.Context, team *domain.Team) error

	// GetByID получает активную команду по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)

	// ListByUser возвращает активные команды, в которых пользователь состоит
	ListByUser(ctx context.Context, userID string) ([]*domain.Team, error)

	// Update обновляет название и описание команды
	Update(ctx context.Context, team *domain.Team) error

	// SetTeamSize записывает денормализованный счетчик активных участников
	SetTeamSize(ctx context.Context, id uuid.UUID, size int) error

	// Deactivate мягко удаляет команду (is_active = false), строки сохраняются
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// MemberRepository определяет методы для работы с записями участников
type MemberRepository interface {
	// Create создает новую запись участника
	Create(ctx context.Context, member *domain.TeamMember) error

	// GetByID получает участника команды по ID записи (любой статус)
	GetByID(ctx context.Context, teamID, memberID uuid.UUID) (*domain.TeamMember, error)

	// GetByUserID получает запись участника по ID пользователя в любом статусе.
	// Возвращает (nil, nil) если записи нет.
	GetByUserID(ctx context.Context, teamID uuid.UUID, userID string) (*domain.TeamMember, error)

	// GetPendingByEmail получает ожидающее приглашение по email.
	// Возвращает (nil, nil) если приглашения нет.
	GetPendingByEmail(ctx context.Context, teamID uuid.UUID, email string) (*domain.TeamMember, error)

	// List возвращает участников команды. При status == nil возвращаются все
	// участники с сортировкой (статус, роль, дата создания); иначе только
	// участники с указанным статусом с сортировкой (роль, дата создания).
	List(ctx context.Context, teamID uuid.UUID, status *domain.InvitationStatus) ([]*domain.TeamMember, error)

	// Update сохраняет изменения записи участника
	Update(ctx context.Context, member *domain.TeamMember) error

	// CountActiveOwners считает активных владельцев команды
	CountActiveOwners(ctx context.Context, teamID uuid.UUID) (int, error)

	// CountActive считает активных участников команды
	CountActive(ctx context.Context, teamID uuid.UUID) (int, error)
}

// IntegrationRepository определяет методы для работы с интеграциями,
// их учетными данными, ресурсами, шарингом и журналом событий
type IntegrationRepository interface {
	// Create создает новую интеграцию
	Create(ctx context.Context, integration *domain.Integration) error

	// GetByID получает интеграцию по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Integration, error)

	// ListByTeam возвращает интеграции, которыми команда владеет или которые ей активно расшарены
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.Integration, error)

	// Update сохраняет изменения интеграции
	Update(ctx context.Context, integration *domain.Integration) error

	// CreateCredential сохраняет учетные данные интеграции
	CreateCredential(ctx context.Context, credential *domain.IntegrationCredential) error

	// ListCredentials возвращает учетные данные интеграции
	ListCredentials(ctx context.Context, integrationID uuid.UUID) ([]*domain.IntegrationCredential, error)

	// UpsertResource вставляет или обновляет ресурс по (integration_id, resource_type, external_id)
	UpsertResource(ctx context.Context, resource *domain.ServiceResource) error

	// GetResource получает ресурс интеграции по ID
	GetResource(ctx context.Context, integrationID, resourceID uuid.UUID) (*domain.ServiceResource, error)

	// ListResources возвращает ресурсы интеграции, опционально по типу
	ListResources(ctx context.Context, integrationID uuid.UUID, resourceType string) ([]*domain.ServiceResource, error)

	// CreateShare создает шаринг интеграции команде
	CreateShare(ctx context.Context, share *domain.IntegrationShare) error

	// GetShare получает шаринг по интеграции и команде в любом статусе.
	// Возвращает (nil, nil) если шаринга нет.
	GetShare(ctx context.Context, integrationID, teamID uuid.UUID) (*domain.IntegrationShare, error)

	// UpdateShare сохраняет изменения шаринга (уровень, статус, revoked_at)
	UpdateShare(ctx context.Context, share *domain.IntegrationShare) error

	// ListShares возвращает все шаринги интеграции
	ListShares(ctx context.Context, integrationID uuid.UUID) ([]*domain.IntegrationShare, error)

	// CreateAccess создает доступ команды к ресурсу
	CreateAccess(ctx context.Context, access *domain.ResourceAccess) error

	// RecordEvent добавляет запись в журнал событий интеграции
	RecordEvent(ctx context.Context, event *domain.IntegrationEvent) error

	// ListEvents возвращает журнал событий интеграции, новые записи первыми
	ListEvents(ctx context.Context, integrationID uuid.UUID) ([]*domain.IntegrationEvent, error)
}
