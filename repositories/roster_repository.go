package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/Dosada05/bracket-role-sync/models"
)

const (
	discordService   = "discord"
	memberPageLimit  = 1000
	roleAuditReason  = "bracket registration sync"
	defaultUserAgent = "DiscordBot (https://github.com/Dosada05/bracket-role-sync, 1.0)"
)

var (
	ErrServerNotFound = errors.New("chat server not found or not accessible")
)

// RosterStore — участники чат-сервера, их роли и ники.
type RosterStore interface {
	GetManagedRoles(ctx context.Context, ids []string) ([]models.Role, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	AddRoles(ctx context.Context, memberID string, roleIDs []string) error
	RemoveRoles(ctx context.Context, memberID string, roleIDs []string) error
	SetDisplayName(ctx context.Context, memberID, name, auditNote string) error
}

type DiscordConfig struct {
	BaseURL    string
	Token      string
	ServerID   string
	HTTPClient *http.Client
	// RequestsPerSecond ограничивает исходящие запросы. 0 — без ограничения.
	RequestsPerSecond int
}

// DiscordRosterStore работает с REST API Discord от имени бота.
// Сессия живёт один запуск: Close освобождает соединения.
type DiscordRosterStore struct {
	client   *http.Client
	baseURL  string
	token    string
	serverID string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func NewDiscordRosterStore(cfg DiscordConfig, logger *slog.Logger) *DiscordRosterStore {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond)
	}
	return &DiscordRosterStore{
		client:   client,
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		serverID: cfg.ServerID,
		limiter:  limiter,
		logger:   logger,
	}
}

type discordRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type discordUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	GlobalName    *string `json:"global_name"`
	Bot           bool    `json:"bot"`
}

type discordMember struct {
	User  *discordUser `json:"user"`
	Nick  *string      `json:"nick"`
	Roles []string     `json:"roles"`
}

// GetManagedRoles возвращает роли сервера, чьи ID входят в ids.
func (s *DiscordRosterStore) GetManagedRoles(ctx context.Context, ids []string) ([]models.Role, error) {
	var roles []discordRole
	err := s.do(ctx, http.MethodGet, "/guilds/"+s.serverID+"/roles", nil, "", &roles)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrServerNotFound, s.serverID)
		}
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	wanted := models.NewRoleSet(ids...)
	out := make([]models.Role, 0, len(ids))
	for _, r := range roles {
		if wanted.Has(r.ID) {
			out = append(out, models.Role{ID: r.ID, Name: r.Name})
		}
	}
	return out, nil
}

// ListMembers постранично выгружает всех участников сервера в порядке ID.
func (s *DiscordRosterStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	after := "0"
	for {
		path := fmt.Sprintf("/guilds/%s/members?limit=%d&after=%s", s.serverID, memberPageLimit, after)
		var page []discordMember
		if err := s.do(ctx, http.MethodGet, path, nil, "", &page); err != nil {
			return nil, fmt.Errorf("failed to list members: %w", err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			members = append(members, toMember(m))
		}
		if len(page) < memberPageLimit {
			break
		}
		after = page[len(page)-1].User.ID
	}
	return members, nil
}

func toMember(m discordMember) models.Member {
	member := models.Member{
		ID:          m.User.ID,
		Username:    m.User.Username,
		Tag:         m.User.Username,
		DisplayName: m.User.Username,
		RoleIDs:     m.Roles,
		Bot:         m.User.Bot,
	}
	if m.User.Discriminator != "" && m.User.Discriminator != "0" {
		member.Tag = m.User.Username + "#" + m.User.Discriminator
	}
	if m.User.GlobalName != nil && *m.User.GlobalName != "" {
		member.DisplayName = *m.User.GlobalName
	}
	if m.Nick != nil && *m.Nick != "" {
		member.DisplayName = *m.Nick
	}
	return member
}

func (s *DiscordRosterStore) AddRoles(ctx context.Context, memberID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", s.serverID, memberID, roleID)
		if err := s.do(ctx, http.MethodPut, path, nil, roleAuditReason, nil); err != nil {
			return fmt.Errorf("failed to add role %s to member %s: %w", roleID, memberID, err)
		}
	}
	return nil
}

func (s *DiscordRosterStore) RemoveRoles(ctx context.Context, memberID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", s.serverID, memberID, roleID)
		if err := s.do(ctx, http.MethodDelete, path, nil, roleAuditReason, nil); err != nil {
			return fmt.Errorf("failed to remove role %s from member %s: %w", roleID, memberID, err)
		}
	}
	return nil
}

func (s *DiscordRosterStore) SetDisplayName(ctx context.Context, memberID, name, auditNote string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", s.serverID, memberID)
	if err := s.do(ctx, http.MethodPatch, path, map[string]string{"nick": name}, auditNote, nil); err != nil {
		return fmt.Errorf("failed to rename member %s: %w", memberID, err)
	}
	return nil
}

// Close освобождает простаивающие соединения сессии.
func (s *DiscordRosterStore) Close() {
	s.client.CloseIdleConnections()
}

func (s *DiscordRosterStore) do(ctx context.Context, method, path string, body any, auditReason string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+s.token)
	req.Header.Set("User-Agent", defaultUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auditReason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(auditReason))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(discordService, resp); err != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			s.logger.WarnContext(ctx, "rate limited by discord",
				slog.String("path", path),
				slog.String("retry_after", resp.Header.Get("Retry-After")))
		}
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ RosterStore = (*DiscordRosterStore)(nil)

