package repositories

import (
	"context"
	"log/slog"

	"github.com/Dosada05/bracket-role-sync/models"
)

type dryRunRosterStore struct {
	next   RosterStore
	logger *slog.Logger
}

// NewDryRunRosterStore читает из next, но вместо изменений только пишет в лог.
func NewDryRunRosterStore(next RosterStore, logger *slog.Logger) RosterStore {
	return &dryRunRosterStore{next: next, logger: logger}
}

func (s *dryRunRosterStore) GetManagedRoles(ctx context.Context, ids []string) ([]models.Role, error) {
	return s.next.GetManagedRoles(ctx, ids)
}

func (s *dryRunRosterStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	return s.next.ListMembers(ctx)
}

func (s *dryRunRosterStore) AddRoles(ctx context.Context, memberID string, roleIDs []string) error {
	s.logger.InfoContext(ctx, "dry run: would add roles",
		slog.String("member_id", memberID),
		slog.Any("role_ids", roleIDs))
	return nil
}

func (s *dryRunRosterStore) RemoveRoles(ctx context.Context, memberID string, roleIDs []string) error {
	s.logger.InfoContext(ctx, "dry run: would remove roles",
		slog.String("member_id", memberID),
		slog.Any("role_ids", roleIDs))
	return nil
}

func (s *dryRunRosterStore) SetDisplayName(ctx context.Context, memberID, name, auditNote string) error {
	s.logger.InfoContext(ctx, "dry run: would rename member",
		slog.String("member_id", memberID),
		slog.String("name", name),
		slog.String("reason", auditNote))
	return nil
}
