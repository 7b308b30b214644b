package models

// UserRole представляет роли, известные движку конкурсов.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleLeader UserRole = "leader"
	RoleMember UserRole = "member"
)

// IsAdmin сообщает, даёт ли роль право на административные переходы
// (лидер сообщества приравнен к администратору).
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleLeader
}

// IsValidUserRole проверяет, что значение роли известно.
func IsValidUserRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleMember:
		return true
	default:
		return false
	}
}

// Identity — данные вызывающего, извлечённые из токена перед каждой
// мутирующей операцией. SuperEvaluator — флаг-способность: такая личность
// освобождена от запрета самооценивания и от уникальности оценок.
type Identity struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	Role           UserRole `json:"role"`
	SuperEvaluator bool     `json:"super_evaluator"`
}
