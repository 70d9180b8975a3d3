package services

import (
	"log/slog"
	"sort"
	"time"
)

// SyncReport описывает итог одного запуска. Назад не читается.
type SyncReport struct {
	Tournament    string                 `json:"tournament"`
	DryRun        bool                   `json:"dry_run"`
	StartedAt     time.Time              `json:"started_at"`
	FinishedAt    time.Time              `json:"finished_at"`
	MissingRoles  []string               `json:"missing_roles,omitempty"`
	SkippedEvents []SkippedEvent         `json:"skipped_events,omitempty"`
	Unmatched     []UnmatchedParticipant `json:"unmatched,omitempty"`
	Players       int                    `json:"players"`
	Stripped      []string               `json:"stripped,omitempty"`
	Changes       []MemberChange         `json:"changes,omitempty"`
}

type SkippedEvent struct {
	EventID  int    `json:"event_id"`
	Name     string `json:"name"`
	GameID   int    `json:"game_id"`
	GameName string `json:"game_name"`
}

type UnmatchedParticipant struct {
	EventID int    `json:"event_id"`
	Handle  string `json:"handle"`
}

// MemberChange — что изменилось у одного Player.
type MemberChange struct {
	MemberID string   `json:"member_id"`
	Handle   string   `json:"handle"`
	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Renamed  string   `json:"renamed,omitempty"`
}

func (c MemberChange) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && c.Renamed == ""
}

func (r *SyncReport) sortChanges() {
	sort.Slice(r.Changes, func(i, j int) bool { return r.Changes[i].MemberID < r.Changes[j].MemberID })
}

// LogAttrs — сводка для итоговой строки лога.
func (r *SyncReport) LogAttrs() []any {
	renamed := 0
	for _, c := range r.Changes {
		if c.Renamed != "" {
			renamed++
		}
	}
	return []any{
		slog.String("tournament", r.Tournament),
		slog.Bool("dry_run", r.DryRun),
		slog.Int("players", r.Players),
		slog.Int("changed", len(r.Changes)),
		slog.Int("renamed", renamed),
		slog.Int("stripped", len(r.Stripped)),
		slog.Int("unmatched", len(r.Unmatched)),
		slog.Int("skipped_events", len(r.SkippedEvents)),
		slog.Duration("took", r.FinishedAt.Sub(r.StartedAt)),
	}
}
