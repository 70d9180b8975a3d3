package models

import "sort"

// RoleSet — множество ID ролей.
type RoleSet map[string]struct{}

func NewRoleSet(ids ...string) RoleSet {
	s := make(RoleSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s RoleSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Union добавляет все роли other в s.
func (s RoleSet) Union(other RoleSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Sorted возвращает ID в отсортированном порядке (для логов и запросов).
func (s RoleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Player — участник чат-сервера, сопоставленный с регистрацией турнира.
// Строится заново на каждый запуск.
type Player struct {
	Member  *Member
	RoleIDs RoleSet
	Handle  string
	Prefix  string
}

func (p *Player) FullHandle() string {
	return FullHandle(p.Prefix, p.Handle)
}

