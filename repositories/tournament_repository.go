package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/bracket-role-sync/models"
)

const (
	startggService  = "start.gg"
	participantPage = 64
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrEventNotFound      = errors.New("event not found")
)

// TournamentDirectory отдаёт события турнира и зарегистрированных участников.
type TournamentDirectory interface {
	ListEvents(ctx context.Context, slug string) ([]models.Event, error)
	ListParticipants(ctx context.Context, eventID int) ([]models.Participant, error)
}

type StartGGConfig struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	PerPage    int
}

type startggTournamentDirectory struct {
	client   *http.Client
	endpoint string
	token    string
	perPage  int
	logger   *slog.Logger
}

func NewStartGGTournamentDirectory(cfg StartGGConfig, logger *slog.Logger) TournamentDirectory {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = participantPage
	}
	return &startggTournamentDirectory{
		client:   client,
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		perPage:  perPage,
		logger:   logger,
	}
}

const eventsQuery = `query TournamentEvents($slug: String!) {
  tournament(slug: $slug) {
    id
    events {
      id
      name
      videogame { id name }
    }
  }
}`

const entrantsQuery = `query EventEntrants($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    entrants(query: {page: $page, perPage: $perPage}) {
      pageInfo { totalPages }
      nodes {
        participants {
          gamerTag
          prefix
          user { authorizations(types: [DISCORD]) { externalUsername } }
        }
      }
    }
  }
}`

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse[T any] struct {
	Data   T          `json:"data"`
	Errors []gqlError `json:"errors"`
}

type eventsData struct {
	Tournament *struct {
		ID     int `json:"id"`
		Events []struct {
			ID        int    `json:"id"`
			Name      string `json:"name"`
			Videogame *struct {
				ID   int    `json:"id"`
				Name string `json:"name"`
			} `json:"videogame"`
		} `json:"events"`
	} `json:"tournament"`
}

type entrantsData struct {
	Event *struct {
		Entrants struct {
			PageInfo struct {
				TotalPages int `json:"totalPages"`
			} `json:"pageInfo"`
			Nodes []struct {
				Participants []struct {
					GamerTag string  `json:"gamerTag"`
					Prefix   *string `json:"prefix"`
					User     *struct {
						Authorizations []struct {
							ExternalUsername *string `json:"externalUsername"`
						} `json:"authorizations"`
					} `json:"user"`
				} `json:"participants"`
			} `json:"nodes"`
		} `json:"entrants"`
	} `json:"event"`
}

func (d *startggTournamentDirectory) ListEvents(ctx context.Context, slug string) ([]models.Event, error) {
	data, err := runQuery[eventsData](ctx, d, eventsQuery, map[string]any{"slug": slug})
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", slug, err)
	}
	if data.Tournament == nil {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, slug)
	}

	events := make([]models.Event, 0, len(data.Tournament.Events))
	for _, e := range data.Tournament.Events {
		event := models.Event{ID: e.ID, Name: e.Name}
		if e.Videogame != nil {
			event.GameID = e.Videogame.ID
			event.GameName = e.Videogame.Name
		}
		events = append(events, event)
	}
	return events, nil
}

// ListParticipants собирает все страницы участников события.
// Страницы запрашиваются по порядку: totalPages известен только после первой.
func (d *startggTournamentDirectory) ListParticipants(ctx context.Context, eventID int) ([]models.Participant, error) {
	var participants []models.Participant
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		vars := map[string]any{"eventId": eventID, "page": page, "perPage": d.perPage}
		data, err := runQuery[entrantsData](ctx, d, entrantsQuery, vars)
		if err != nil {
			return nil, fmt.Errorf("failed to list participants for event %d (page %d): %w", eventID, page, err)
		}
		if data.Event == nil {
			return nil, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
		}

		entrants := data.Event.Entrants
		if page == 1 {
			totalPages = entrants.PageInfo.TotalPages
		}
		for _, node := range entrants.Nodes {
			for _, p := range node.Participants {
				participant := models.Participant{Handle: p.GamerTag}
				if p.Prefix != nil {
					participant.Prefix = strings.TrimSpace(*p.Prefix)
				}
				if p.User != nil {
					for _, auth := range p.User.Authorizations {
						if auth.ExternalUsername != nil && *auth.ExternalUsername != "" {
							participant.LinkedAccountTag = *auth.ExternalUsername
							break
						}
					}
				}
				participants = append(participants, participant)
			}
		}
		d.logger.DebugContext(ctx, "fetched participant page",
			slog.Int("event_id", eventID),
			slog.Int("page", page),
			slog.Int("total_pages", totalPages))
	}
	return participants, nil
}

func runQuery[T any](ctx context.Context, d *startggTournamentDirectory, query string, vars map[string]any) (*T, error) {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(startggService, resp); err != nil {
		return nil, err
	}

	var out gqlResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	return &out.Data, nil
}
