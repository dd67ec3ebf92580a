package domain

import "errors"

// Доменные ошибки членства и авторизации
var (
	// ErrTeamNotFound возвращается когда команда не найдена или деактивирована
	ErrTeamNotFound = errors.New("Team not found")

	// ErrMemberNotFound возвращается когда участник команды не найден
	ErrMemberNotFound = errors.New("Team member not found")

	// ErrNotTeamMember возвращается когда вызывающий не состоит в команде
	ErrNotTeamMember = errors.New("You are not a member of this team")

	// ErrForbidden возвращается при отказе по ролевой модели без более точной причины
	ErrForbidden = errors.New("You don't have permission to perform this action")

	// ErrAdminModifyPrivileged возвращается когда админ пытается изменить владельца или другого админа
	ErrAdminModifyPrivileged = errors.New("Admins cannot modify owners or other admins")

	// ErrAdminRemovePrivileged возвращается когда админ пытается удалить владельца или другого админа
	ErrAdminRemovePrivileged = errors.New("Admins cannot remove owners or other admins")

	// ErrSelfUpdateOnly возвращается когда member/viewer пытается изменить чужую запись
	ErrSelfUpdateOnly = errors.New("You can only update your own profile")

	// ErrSelfRemoveOnly возвращается когда member/viewer пытается удалить другого участника
	ErrSelfRemoveOnly = errors.New("You can only remove yourself from the team")

	// ErrRestrictedField возвращается когда member/viewer меняет поля за пределами разрешенного набора
	ErrRestrictedField = errors.New("You can only update these fields: display_name")

	// ErrLastOwner возвращается при попытке удалить или понизить последнего активного владельца
	ErrLastOwner = errors.New("Cannot remove the last owner of the team")

	// ErrAlreadyMember возвращается когда пользователь уже состоит в команде
	ErrAlreadyMember = errors.New("User is already a member of this team")

	// ErrPendingInvitation возвращается когда у пользователя уже есть ожидающее приглашение
	ErrPendingInvitation = errors.New("User already has a pending invitation to this team")

	// ErrEmailPendingInvitation возвращается когда на email уже отправлено приглашение
	ErrEmailPendingInvitation = errors.New("This email already has a pending invitation to this team")

	// ErrInvalidRole возвращается при недопустимом значении роли
	ErrInvalidRole = errors.New("Invalid role. Valid roles are: owner, admin, member, viewer")

	// ErrInvalidStatus возвращается при недопустимом значении статуса приглашения
	ErrInvalidStatus = errors.New("Invalid invitation status. Valid statuses are: active, pending, expired, inactive")

	// ErrInvalidResendStatus возвращается при попытке переотправить приглашение участнику не в pending/expired
	ErrInvalidResendStatus = errors.New("Cannot resend invitation to a member that is not pending or expired")

	// ErrMemberIdentityRequired возвращается когда не указан ни user_id, ни email
	ErrMemberIdentityRequired = errors.New("Either user_id or email is required")
)

// Доменные ошибки команд
var (
	// ErrTeamExists возвращается при конфликте slug при создании команды
	ErrTeamExists = errors.New("A team with this slug already exists")
)

// Доменные ошибки интеграций
var (
	// ErrIntegrationNotFound возвращается когда интеграция не найдена
	ErrIntegrationNotFound = errors.New("Integration not found")

	// ErrIntegrationExists возвращается когда workspace уже подключен к команде
	ErrIntegrationExists = errors.New("This workspace is already connected to the team")

	// ErrInvalidServiceType возвращается при недопустимом типе сервиса
	ErrInvalidServiceType = errors.New("Invalid service type. Valid types are: slack, github, notion, discord")

	// ErrInvalidIntegrationStatus возвращается при недопустимом статусе интеграции
	ErrInvalidIntegrationStatus = errors.New("Invalid integration status")

	// ErrInvalidShareLevel возвращается при недопустимом уровне шаринга
	ErrInvalidShareLevel = errors.New("Invalid share level. Valid levels are: full_access, limited_access, read_only")

	// ErrInvalidAccessLevel возвращается при недопустимом уровне доступа к ресурсу
	ErrInvalidAccessLevel = errors.New("Invalid access level. Valid levels are: read, write, admin")

	// ErrNoCredentials возвращается когда у интеграции нет сохраненных учетных данных
	ErrNoCredentials = errors.New("Integration has no stored credentials")

	// ErrResourceNotFound возвращается когда ресурс интеграции не найден
	ErrResourceNotFound = errors.New("Resource not found")

	// ErrShareNotFound возвращается когда активный шаринг не найден
	ErrShareNotFound = errors.New("Integration is not shared with this team")

	// ErrAlreadyShared возвращается когда интеграция уже расшарена команде
	ErrAlreadyShared = errors.New("Integration is already shared with this team")

	// ErrAccessExists возвращается когда у команды уже есть доступ к ресурсу
	ErrAccessExists = errors.New("Team already has access to this resource")

	// ErrSyncUnsupported возвращается когда синхронизация ресурсов не реализована для типа сервиса
	ErrSyncUnsupported = errors.New("Resource sync is not supported for this service type")

	// ErrOAuthExchange возвращается когда обмен OAuth кода на токен завершился неудачей
	ErrOAuthExchange = errors.New("Failed to exchange OAuth code with the external service")
)

// Ошибки аутентификации
var (
	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")
)
