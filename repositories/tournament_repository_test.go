package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-role-sync/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedQuery struct {
	Query     string
	Variables map[string]any
}

func newGraphQLServer(t *testing.T, handle func(q recordedQuery) string) (*httptest.Server, *[]recordedQuery) {
	t.Helper()
	var (
		mu      sync.Mutex
		queries []recordedQuery
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sgg-token", r.Header.Get("Authorization"))
		var q recordedQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, handle(q))
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func TestListEvents(t *testing.T) {
	srv, queries := newGraphQLServer(t, func(q recordedQuery) string {
		return `{"data":{"tournament":{"id":1,"events":[
			{"id":10,"name":"Ultimate Singles","videogame":{"id":1386,"name":"Super Smash Bros. Ultimate"}},
			{"id":11,"name":"Side Event","videogame":null}
		]}}}`
	})

	dir := NewStartGGTournamentDirectory(StartGGConfig{Endpoint: srv.URL, Token: "sgg-token"}, discardLogger())
	events, err := dir.ListEvents(context.Background(), "tournament/genesis")
	require.NoError(t, err)

	assert.Equal(t, []models.Event{
		{ID: 10, Name: "Ultimate Singles", GameID: 1386, GameName: "Super Smash Bros. Ultimate"},
		{ID: 11, Name: "Side Event"},
	}, events)
	require.Len(t, *queries, 1)
	assert.Equal(t, "tournament/genesis", (*queries)[0].Variables["slug"])
}

func TestListEventsTournamentNotFound(t *testing.T) {
	srv, _ := newGraphQLServer(t, func(q recordedQuery) string {
		return `{"data":{"tournament":null}}`
	})

	dir := NewStartGGTournamentDirectory(StartGGConfig{Endpoint: srv.URL, Token: "sgg-token"}, discardLogger())
	_, err := dir.ListEvents(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestListEventsGraphQLError(t *testing.T) {
	srv, _ := newGraphQLServer(t, func(q recordedQuery) string {
		return `{"data":null,"errors":[{"message":"Invalid authentication token"}]}`
	})

	dir := NewStartGGTournamentDirectory(StartGGConfig{Endpoint: srv.URL, Token: "sgg-token"}, discardLogger())
	_, err := dir.ListEvents(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid authentication token")
	assert.NotErrorIs(t, err, ErrTournamentNotFound)
}

func TestListParticipantsPaginatesInOrder(t *testing.T) {
	srv, queries := newGraphQLServer(t, func(q recordedQuery) string {
		page := int(q.Variables["page"].(float64))
		tag := fmt.Sprintf("Player%d", page)
		prefix := "null"
		auth := "null"
		if page == 2 {
			prefix = `" TSM "`
			auth = `{"authorizations":[{"externalUsername":null},{"externalUsername":"player2"}]}`
		}
		return fmt.Sprintf(`{"data":{"event":{"entrants":{
			"pageInfo":{"totalPages":3},
			"nodes":[{"participants":[{"gamerTag":%q,"prefix":%s,"user":%s}]}]
		}}}}`, tag, prefix, auth)
	})

	dir := NewStartGGTournamentDirectory(StartGGConfig{Endpoint: srv.URL, Token: "sgg-token", PerPage: 1}, discardLogger())
	participants, err := dir.ListParticipants(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, []models.Participant{
		{Handle: "Player1"},
		{Handle: "Player2", Prefix: "TSM", LinkedAccountTag: "player2"},
		{Handle: "Player3"},
	}, participants)

	require.Len(t, *queries, 3)
	for i, q := range *queries {
		assert.Equal(t, float64(i+1), q.Variables["page"])
		assert.Equal(t, float64(42), q.Variables["eventId"])
		assert.Equal(t, float64(1), q.Variables["perPage"])
		assert.True(t, strings.Contains(q.Query, "entrants"))
	}
}

func TestListParticipantsEventNotFound(t *testing.T) {
	srv, _ := newGraphQLServer(t, func(q recordedQuery) string {
		return `{"data":{"event":null}}`
	})

	dir := NewStartGGTournamentDirectory(StartGGConfig{Endpoint: srv.URL, Token: "sgg-token"}, discardLogger())
	_, err := dir.ListParticipants(context.Background(), 7)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestListParticipantsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	dir := NewStartGGTournamentDirectory(StartGGConfig{Endpoint: srv.URL, Token: "sgg-token"}, discardLogger())
	_, err := dir.ListParticipants(context.Background(), 7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "start.gg", apiErr.Service)
	assert.Equal(t, "boom", apiErr.Body)
}
