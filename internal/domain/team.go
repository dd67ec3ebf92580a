package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role представляет роль участника внутри команды
type Role string

// Допустимые роли участников
const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// IsValid проверяет, что роль входит в список допустимых
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// IsPrivileged сообщает, относится ли роль к управляющим (owner или admin)
func (r Role) IsPrivileged() bool {
	return r == RoleOwner || r == RoleAdmin
}

// InvitationStatus представляет статус жизненного цикла записи участника
type InvitationStatus string

// Жизненный цикл: active → (pending ⇄ expired) → inactive
const (
	StatusActive   InvitationStatus = "active"
	StatusPending  InvitationStatus = "pending"
	StatusExpired  InvitationStatus = "expired"
	StatusInactive InvitationStatus = "inactive"
)

// IsValid проверяет, что статус входит в список допустимых
func (s InvitationStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusPending, StatusExpired, StatusInactive:
		return true
	}
	return false
}

// Team представляет тенант, владеющий участниками и интеграциями.
// TeamSize — денормализованный счетчик активных участников: пересчитывается
// заново после каждой операции, влияющей на состав, и в любой момент выводим
// из строк участников.
type Team struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description,omitempty"`
	TeamSize        int       `json:"team_size"`
	IsActive        bool      `json:"is_active"`
	CreatedByUserID string    `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TeamMember представляет связь (команда, пользователь) с ролью и статусом
// приглашения. UserID пустой у приглашенных по email, которые еще не
// зарегистрировались; Email в этом случае обязателен.
// InvitationToken и InvitationExpiresAt заполнены тогда и только тогда, когда
// статус pending. Токен — секрет и никогда не сериализуется в ответах API.
type TeamMember struct {
	ID                  uuid.UUID        `json:"id"`
	TeamID              uuid.UUID        `json:"team_id"`
	UserID              string           `json:"user_id,omitempty"`
	Email               string           `json:"email,omitempty"`
	DisplayName         string           `json:"display_name,omitempty"`
	Role                Role             `json:"role"`
	InvitationStatus    InvitationStatus `json:"invitation_status"`
	InvitationToken     string           `json:"-"`
	InvitationExpiresAt *time.Time       `json:"-"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// IsSelf сообщает, принадлежит ли запись указанному пользователю
func (m *TeamMember) IsSelf(userID string) bool {
	return m.UserID != "" && m.UserID == userID
}
