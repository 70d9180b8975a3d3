package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/bracket-role-sync/models"
	"github.com/Dosada05/bracket-role-sync/repositories"
)

// ManagedRoles — маппинги ролей одного сервера.
type ManagedRoles struct {
	Temporary models.RoleMapping
	Permanent models.RoleMapping
}

// SyncService синхронизирует роли и ники сервера с регистрациями турнира.
type SyncService struct {
	directory  repositories.TournamentDirectory
	roster     repositories.RosterStore
	reconciler *RoleReconciler
	logger     *slog.Logger
	dryRun     bool
	now        func() time.Time
}

func NewSyncService(
	directory repositories.TournamentDirectory,
	roster repositories.RosterStore,
	logger *slog.Logger,
	dryRun bool,
) *SyncService {
	return &SyncService{
		directory:  directory,
		roster:     roster,
		reconciler: NewRoleReconciler(roster, logger),
		logger:     logger,
		dryRun:     dryRun,
		now:        time.Now,
	}
}

// Run выполняет полный цикл синхронизации для турнира slug.
func (s *SyncService) Run(ctx context.Context, slug string, roles ManagedRoles) (*SyncReport, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrEmptySlug
	}
	report := &SyncReport{Tournament: slug, DryRun: s.dryRun, StartedAt: s.now()}

	temporary, permanent, err := s.resolveRoles(ctx, roles, report)
	if err != nil {
		return nil, err
	}
	mapping := mergeMappings(temporary, permanent)
	managed := models.NewRoleSet(mapping.RoleIDs()...)

	events, err := s.directory.ListEvents(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "fetched tournament events", slog.String("tournament", slug), slog.Int("events", len(events)))

	members, err := s.roster.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "fetched server members", slog.Int("members", len(members)))

	players, err := s.collectPlayers(ctx, events, members, mapping, report)
	if err != nil {
		return nil, err
	}
	report.Players = len(players.Players())

	stripped, err := s.reconciler.StripNonParticipants(ctx, members, players.Has, temporary.RoleIDs())
	if err != nil {
		return nil, err
	}
	report.Stripped = stripped

	changes, err := s.syncPlayers(ctx, players.Players(), managed)
	if err != nil {
		return nil, err
	}
	report.Changes = changes
	report.sortChanges()
	report.FinishedAt = s.now()
	return report, nil
}

// resolveRoles оставляет в маппингах только роли, существующие на сервере.
func (s *SyncService) resolveRoles(ctx context.Context, roles ManagedRoles, report *SyncReport) (models.RoleMapping, models.RoleMapping, error) {
	ids := append(roles.Temporary.RoleIDs(), roles.Permanent.RoleIDs()...)
	existing, err := s.roster.GetManagedRoles(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	if len(existing) == 0 {
		return nil, nil, ErrNoManagedRoles
	}

	found := models.NewRoleSet()
	for _, r := range existing {
		found.Add(r.ID)
	}
	for _, id := range ids {
		if !found.Has(id) {
			report.MissingRoles = append(report.MissingRoles, id)
		}
	}
	if len(report.MissingRoles) > 0 {
		sort.Strings(report.MissingRoles)
		s.logger.WarnContext(ctx, "configured roles not found on server", slog.Any("role_ids", report.MissingRoles))
	}

	return filterMapping(roles.Temporary, found), filterMapping(roles.Permanent, found), nil
}

func (s *SyncService) collectPlayers(
	ctx context.Context,
	events []models.Event,
	members []models.Member,
	mapping models.RoleMapping,
	report *SyncReport,
) (*playerIndex, error) {
	players := newPlayerIndex()
	for _, event := range events {
		roles := RolesForGame(event.GameID, event.GameName, mapping)
		if len(roles) == 0 {
			s.logger.InfoContext(ctx, "no role configured for game, skipping event",
				slog.Int("event_id", event.ID),
				slog.String("event", event.Name),
				slog.Int("game_id", event.GameID),
				slog.String("game", event.GameName))
			report.SkippedEvents = append(report.SkippedEvents, SkippedEvent{
				EventID:  event.ID,
				Name:     event.Name,
				GameID:   event.GameID,
				GameName: event.GameName,
			})
			continue
		}

		participants, err := s.directory.ListParticipants(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "fetched event participants",
			slog.Int("event_id", event.ID),
			slog.String("event", event.Name),
			slog.Int("participants", len(participants)))

		for _, p := range participants {
			member := MatchMember(members, p)
			if member == nil {
				s.logger.InfoContext(ctx, "no server member for participant",
					slog.Int("event_id", event.ID),
					slog.String("handle", p.FullHandle()))
				report.Unmatched = append(report.Unmatched, UnmatchedParticipant{EventID: event.ID, Handle: p.FullHandle()})
				continue
			}
			players.Accumulate(member, p, roles)
		}
	}
	return players, nil
}

// syncPlayers приводит роли и ники игроков к нужным. Участники обрабатываются
// параллельно, первая ошибка останавливает запуск.
func (s *SyncService) syncPlayers(ctx context.Context, players []*models.Player, managed models.RoleSet) ([]MemberChange, error) {
	var (
		mu      sync.Mutex
		changes []MemberChange
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMembers)

	for _, player := range players {
		g.Go(func() error {
			change, err := s.syncPlayer(gCtx, player, managed)
			if err != nil {
				return err
			}
			if change.Empty() {
				return nil
			}
			mu.Lock()
			changes = append(changes, change)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *SyncService) syncPlayer(ctx context.Context, player *models.Player, managed models.RoleSet) (MemberChange, error) {
	member := player.Member
	change := MemberChange{MemberID: member.ID, Handle: player.FullHandle()}

	diff := DiffRoles(member.RoleIDs, player.RoleIDs, managed)
	if err := s.reconciler.Apply(ctx, member.ID, diff); err != nil {
		return change, err
	}
	if !diff.Empty() {
		change.Added = diff.Add
		change.Removed = diff.Remove
		s.logger.InfoContext(ctx, "updated member roles",
			slog.String("member_id", member.ID),
			slog.String("handle", change.Handle),
			slog.Any("added", diff.Add),
			slog.Any("removed", diff.Remove))
	}

	if name, ok := DecideNickname(player); ok {
		if err := s.roster.SetDisplayName(ctx, member.ID, name, RenameReason); err != nil {
			return change, fmt.Errorf("failed to rename %s: %w", member.ID, err)
		}
		change.Renamed = name
		s.logger.InfoContext(ctx, "renamed member",
			slog.String("member_id", member.ID),
			slog.String("from", member.DisplayName),
			slog.String("to", name))
	}
	return change, nil
}

func filterMapping(m models.RoleMapping, keep models.RoleSet) models.RoleMapping {
	out := make(models.RoleMapping, len(m))
	for id, game := range m {
		if keep.Has(id) {
			out[id] = game
		}
	}
	return out
}

func mergeMappings(mappings ...models.RoleMapping) models.RoleMapping {
	out := models.RoleMapping{}
	for _, m := range mappings {
		for id, game := range m {
			out[id] = game
		}
	}
	return out
}
