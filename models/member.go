package models

// Member — участник чат-сервера. Источник истины — Roster Store.
type Member struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Tag         string   `json:"tag"`
	DisplayName string   `json:"display_name"`
	RoleIDs     []string `json:"role_ids"`
	Bot         bool     `json:"bot,omitempty"`
}

// HasRole сообщает, есть ли у участника роль с данным ID.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Role — роль чат-сервера.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
