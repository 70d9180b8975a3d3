package models

// Participant — запись об участнике события, как её отдаёт турнирная платформа.
// Живёт только в пределах одного запуска.
type Participant struct {
	Handle           string `json:"handle"`
	Prefix           string `json:"prefix,omitempty"`
	LinkedAccountTag string `json:"linked_account_tag,omitempty"`
}

// FullHandle возвращает "prefix | handle" или просто handle, если префикса нет.
func (p Participant) FullHandle() string {
	return FullHandle(p.Prefix, p.Handle)
}

func FullHandle(prefix, handle string) string {
	if prefix == "" {
		return handle
	}
	return prefix + " | " + handle
}
