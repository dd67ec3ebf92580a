package domain

// UserInfo представляет личность аутентифицированного пользователя,
// извлеченную из JWT токена. Учетные записи ведет внешний identity provider,
// поэтому собственной таблицы пользователей у сервиса нет.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}
