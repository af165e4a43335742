package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-sync/internal/provider"
	"github.com/albapepper/scoracle-sync/internal/provider/rest"
)

const testRPM = 600000 // effectively unpaced in tests

func TestForEachPageFollowsCursors(t *testing.T) {
	pages := map[string]string{
		"":   `{"data": [{"id": 1}, {"id": 2}], "meta": {"next_cursor": 25}}`,
		"25": `{"data": [{"id": 3}], "meta": {"next_cursor": 50}}`,
		"50": `{"data": [{"id": 4}], "meta": {}}`,
	}
	var cursorsSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursorsSeen = append(cursorsSeen, cursor)
		fmt.Fprint(w, pages[cursor])
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", rest.Tuning{RequestsPerMinute: testRPM}, nil)

	var ids []int
	err := c.forEachPage(context.Background(), "/players", nil, func(data json.RawMessage) error {
		var records []struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(data, &records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		return nil
	})
	require.NoError(t, err)

	// All records from all three pages, in page order, and the walk stops
	// at the page without a cursor.
	require.Equal(t, []int{1, 2, 3, 4}, ids)
	require.Equal(t, []string{"", "25", "50"}, cursorsSeen)
}

func TestForEachPageBoundsNonAdvancingCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Cursor never advances.
		fmt.Fprint(w, `{"data": [], "meta": {"next_cursor": 7}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", rest.Tuning{RequestsPerMinute: testRPM}, nil)
	err := c.forEachPage(context.Background(), "/players", nil, func(json.RawMessage) error {
		return nil
	})
	require.Error(t, err)
	require.ErrorIs(t, err, rest.ErrPermanent)
}

func TestForEachPageDoesNotMutateCallerParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{"data": [], "meta": {"next_cursor": 1}}`)
			return
		}
		fmt.Fprint(w, `{"data": [], "meta": {}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", rest.Tuning{RequestsPerMinute: testRPM}, nil)
	params := map[string][]string{"per_page": {"100"}}
	err := c.forEachPage(context.Background(), "/players", params, func(json.RawMessage) error {
		return nil
	})
	require.NoError(t, err)
	require.NotContains(t, params, "cursor")
}

func TestGetPlayersNormalizesRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"data": [
				{"id": 7, "first_name": "LeBron", "last_name": "James", "position": "F",
				 "team": {"id": 14, "name": "Lakers", "abbreviation": "LAL"}},
				{"id": 8, "first_name": "", "last_name": "", "team": null}
			],
			"meta": {}
		}`)
	}))
	defer srv.Close()

	h := &NBAHandler{client: NewClient(srv.URL, "key", rest.Tuning{RequestsPerMinute: testRPM}, nil)}

	var players []provider.Player
	err := h.GetPlayers(context.Background(), func(p provider.Player) error {
		players = append(players, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, players, 2)

	require.Equal(t, 7, players[0].ID)
	require.Equal(t, "LeBron James", players[0].Name)
	require.NotNil(t, players[0].TeamID)
	require.Equal(t, 14, *players[0].TeamID)

	// Missing names fall back to a stable placeholder; missing team stays nil.
	require.Equal(t, "Unknown", players[1].Name)
	require.Nil(t, players[1].TeamID)
}

func TestGetTeamsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [
			{"id": 1, "name": "Hawks", "abbreviation": "ATL", "city": "Atlanta",
			 "conference": "East", "division": "Southeast", "full_name": "Atlanta Hawks"}
		]}`)
	}))
	defer srv.Close()

	h := &NBAHandler{client: NewClient(srv.URL, "key", rest.Tuning{RequestsPerMinute: testRPM}, nil)}
	teams, err := h.GetTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Equal(t, "Hawks", teams[0].Name)
	require.Equal(t, "ATL", teams[0].ShortCode)
	require.Equal(t, "Atlanta Hawks", teams[0].Meta["full_name"])
}
