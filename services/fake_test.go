package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/bracket-role-sync/models"
	"github.com/Dosada05/bracket-role-sync/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ------------------------
// Fake Tournament Directory
// ------------------------

type FakeDirectory struct {
	mu    sync.Mutex
	trace []string

	Events       []models.Event
	Participants map[int][]models.Participant

	ListEventsFunc       func(ctx context.Context, slug string) ([]models.Event, error)
	ListParticipantsFunc func(ctx context.Context, eventID int) ([]models.Participant, error)
}

func (f *FakeDirectory) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeDirectory) ListEvents(ctx context.Context, slug string) ([]models.Event, error) {
	f.record("ListEvents:" + slug)
	if f.ListEventsFunc != nil {
		return f.ListEventsFunc(ctx, slug)
	}
	return f.Events, nil
}

func (f *FakeDirectory) ListParticipants(ctx context.Context, eventID int) ([]models.Participant, error) {
	f.record(fmt.Sprintf("ListParticipants:%d", eventID))
	if f.ListParticipantsFunc != nil {
		return f.ListParticipantsFunc(ctx, eventID)
	}
	return f.Participants[eventID], nil
}

func (f *FakeDirectory) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ repositories.TournamentDirectory = (*FakeDirectory)(nil)

// ------------------------
// Fake Roster Store
// ------------------------

// FakeRoster хранит участников в памяти и применяет к ним изменения,
// поэтому повторный запуск видит результат предыдущего.
type FakeRoster struct {
	mu    sync.Mutex
	trace []string

	Roles   []models.Role
	Members []models.Member

	GetManagedRolesFunc func(ctx context.Context, ids []string) ([]models.Role, error)
	AddRolesFunc        func(ctx context.Context, memberID string, roleIDs []string) error
	RemoveRolesFunc     func(ctx context.Context, memberID string, roleIDs []string) error
	SetDisplayNameFunc  func(ctx context.Context, memberID, name, auditNote string) error
}

func (f *FakeRoster) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRoster) GetManagedRoles(ctx context.Context, ids []string) ([]models.Role, error) {
	f.mu.Lock()
	f.record("GetManagedRoles")
	f.mu.Unlock()
	if f.GetManagedRolesFunc != nil {
		return f.GetManagedRolesFunc(ctx, ids)
	}
	wanted := models.NewRoleSet(ids...)
	var out []models.Role
	for _, r := range f.Roles {
		if wanted.Has(r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeRoster) ListMembers(ctx context.Context) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMembers")
	out := make([]models.Member, len(f.Members))
	for i, m := range f.Members {
		m.RoleIDs = append([]string(nil), m.RoleIDs...)
		out[i] = m
	}
	return out, nil
}

func (f *FakeRoster) AddRoles(ctx context.Context, memberID string, roleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("AddRoles:%s:%v", memberID, roleIDs))
	if f.AddRolesFunc != nil {
		return f.AddRolesFunc(ctx, memberID, roleIDs)
	}
	m := f.member(memberID)
	held := models.NewRoleSet(m.RoleIDs...)
	held.Add(roleIDs...)
	m.RoleIDs = held.Sorted()
	return nil
}

func (f *FakeRoster) RemoveRoles(ctx context.Context, memberID string, roleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("RemoveRoles:%s:%v", memberID, roleIDs))
	if f.RemoveRolesFunc != nil {
		return f.RemoveRolesFunc(ctx, memberID, roleIDs)
	}
	m := f.member(memberID)
	held := models.NewRoleSet(m.RoleIDs...)
	for _, id := range roleIDs {
		delete(held, id)
	}
	m.RoleIDs = held.Sorted()
	return nil
}

func (f *FakeRoster) SetDisplayName(ctx context.Context, memberID, name, auditNote string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("SetDisplayName:%s:%s:%s", memberID, name, auditNote))
	if f.SetDisplayNameFunc != nil {
		return f.SetDisplayNameFunc(ctx, memberID, name, auditNote)
	}
	f.member(memberID).DisplayName = name
	return nil
}

func (f *FakeRoster) member(id string) *models.Member {
	for i := range f.Members {
		if f.Members[i].ID == id {
			return &f.Members[i]
		}
	}
	panic("unknown member " + id)
}

// --- Accessors for assertions ---

func (f *FakeRoster) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Mutations возвращает только изменяющие вызовы, отсортированные для сравнения.
func (f *FakeRoster) Mutations() []string {
	var out []string
	for _, step := range f.Trace() {
		if step == "GetManagedRoles" || step == "ListMembers" {
			continue
		}
		out = append(out, step)
	}
	sort.Strings(out)
	return out
}

func (f *FakeRoster) Member(id string) models.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.member(id)
}

var _ repositories.RosterStore = (*FakeRoster)(nil)
