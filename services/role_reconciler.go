package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/bracket-role-sync/models"
	"github.com/Dosada05/bracket-role-sync/repositories"
)

const maxConcurrentMembers = 16

// RoleDiff — изменения ролей одного участника. Add и Remove не пересекаются.
type RoleDiff struct {
	Add    []string
	Remove []string
}

func (d RoleDiff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// DiffRoles сравнивает нужные роли с текущими в пределах управляемых ролей.
// Add = want − current, Remove = (managed ∩ current) − want.
func DiffRoles(current []string, want, managed models.RoleSet) RoleDiff {
	held := models.NewRoleSet(current...)

	var diff RoleDiff
	for id := range want {
		if !held.Has(id) {
			diff.Add = append(diff.Add, id)
		}
	}
	for id := range held {
		if managed.Has(id) && !want.Has(id) {
			diff.Remove = append(diff.Remove, id)
		}
	}
	sort.Strings(diff.Add)
	sort.Strings(diff.Remove)
	return diff
}

// RoleReconciler применяет изменения ролей через RosterStore.
type RoleReconciler struct {
	roster repositories.RosterStore
	logger *slog.Logger
}

func NewRoleReconciler(roster repositories.RosterStore, logger *slog.Logger) *RoleReconciler {
	return &RoleReconciler{roster: roster, logger: logger}
}

// StripNonParticipants снимает все временные роли с тех, кто не стал Player
// в этом запуске, но держит хотя бы одну из них. Постоянные роли не трогаются.
// Возвращает ID участников, с которых роли сняты.
func (r *RoleReconciler) StripNonParticipants(ctx context.Context, members []models.Member, isPlayer func(memberID string) bool, temporary []string) ([]string, error) {
	if len(temporary) == 0 {
		return nil, nil
	}
	temporary = append([]string(nil), temporary...)
	sort.Strings(temporary)

	var (
		mu       sync.Mutex
		stripped []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMembers)

	for i := range members {
		m := &members[i]
		if isPlayer(m.ID) || !holdsAny(m, temporary) {
			continue
		}
		g.Go(func() error {
			if err := r.roster.RemoveRoles(gCtx, m.ID, temporary); err != nil {
				return fmt.Errorf("failed to strip temporary roles from %s: %w", m.ID, err)
			}
			r.logger.InfoContext(gCtx, "stripped temporary roles from non-participant",
				slog.String("member_id", m.ID),
				slog.String("display_name", m.DisplayName))
			mu.Lock()
			stripped = append(stripped, m.ID)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(stripped)
	return stripped, nil
}

// Apply выполняет добавление, затем удаление. Пустые операции не вызываются.
func (r *RoleReconciler) Apply(ctx context.Context, memberID string, diff RoleDiff) error {
	if len(diff.Add) > 0 {
		if err := r.roster.AddRoles(ctx, memberID, diff.Add); err != nil {
			return fmt.Errorf("failed to add roles to %s: %w", memberID, err)
		}
	}
	if len(diff.Remove) > 0 {
		if err := r.roster.RemoveRoles(ctx, memberID, diff.Remove); err != nil {
			return fmt.Errorf("failed to remove roles from %s: %w", memberID, err)
		}
	}
	return nil
}

func holdsAny(m *models.Member, roleIDs []string) bool {
	for _, id := range roleIDs {
		if m.HasRole(id) {
			return true
		}
	}
	return false
}
