package sportmonks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-sync/internal/provider/rest"
)

func newTestHandler(srv *httptest.Server) *FootballHandler {
	c := newClient(srv.URL, "token", rest.Tuning{RequestsPerMinute: 600000}, nil)
	return &FootballHandler{client: c, logger: c.logger}
}

func TestGetTeamsWalksPages(t *testing.T) {
	var pagesServed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token", r.URL.Query().Get("api_token"))
		page := r.URL.Query().Get("page")
		pagesServed = append(pagesServed, page)
		switch page {
		case "1":
			fmt.Fprint(w, `{"data": [{"id": 1, "name": "Arsenal", "short_code": "ARS"}],
				"pagination": {"has_more": true}}`)
		case "2":
			fmt.Fprint(w, `{"data": [{"id": 2, "name": "Chelsea", "short_code": "CHE",
				"country": {"name": "England"}}],
				"pagination": {"has_more": false}}`)
		default:
			t.Fatalf("unexpected page %q", page)
		}
	}))
	defer srv.Close()

	h := newTestHandler(srv)
	teams, err := h.GetTeams(context.Background(), 23614)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, pagesServed)
	require.Len(t, teams, 2)
	require.Equal(t, "Arsenal", teams[0].Name)
	require.Equal(t, "England", teams[1].Country)
}

func TestGetSquadResolvesPlayerIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/squads/seasons/23614/teams/19", r.URL.Path)
		fmt.Fprint(w, `{"data": [
			{"player_id": 101, "player": {"id": 101, "firstname": "Bukayo", "lastname": "Saka"}},
			{"player_id": 0, "id": 102, "player": {"id": 102, "display_name": "G. Jesus"}},
			{"player_id": 0, "id": 0}
		]}`)
	}))
	defer srv.Close()

	h := newTestHandler(srv)
	players, err := h.GetSquad(context.Background(), 23614, 19)
	require.NoError(t, err)

	// The entry with no resolvable id is skipped entirely.
	require.Len(t, players, 2)

	require.Equal(t, 101, players[0].ID)
	require.Equal(t, "Bukayo Saka", players[0].Name)
	require.NotNil(t, players[0].TeamID)
	require.Equal(t, 19, *players[0].TeamID)

	require.Equal(t, 102, players[1].ID)
	require.Equal(t, "G. Jesus", players[1].Name)
}

func TestNormalizePlayerFallbacks(t *testing.T) {
	weight := 80.0
	height := 180.0
	posID := 26
	p := normalizePlayer(smPlayerRaw{
		ID:          7,
		Firstname:   "Martin",
		Lastname:    "Odegaard",
		PositionID:  &posID,
		Height:      &height,
		Weight:      &weight,
		Nationality: map[string]interface{}{"name": "Norway"},
	})

	require.Equal(t, "Martin Odegaard", p.Name)
	require.Equal(t, "Midfielder", p.Position)
	require.Equal(t, "Norway", p.Nationality)
	require.Equal(t, "5-11", p.Height)
	require.Equal(t, "176", p.Weight)

	// Entirely empty names fall back to the stable placeholder.
	empty := normalizePlayer(smPlayerRaw{ID: 8})
	require.Equal(t, "Unknown", empty.Name)
}

func TestExtractLeagueStatsPicksLeagueBlock(t *testing.T) {
	code := func(c string) *struct {
		Code string `json:"code"`
	} {
		return &struct {
			Code string `json:"code"`
		}{Code: c}
	}
	league := func(id int) *struct {
		League *struct {
			ID int `json:"id"`
		} `json:"league"`
	} {
		return &struct {
			League *struct {
				ID int `json:"id"`
			} `json:"league"`
		}{League: &struct {
			ID int `json:"id"`
		}{ID: id}}
	}

	blocks := []smStatBlock{
		{Season: league(501), Details: []smStatDetail{{Type: code("goals"), Value: 3.0}}},
		{Season: league(8), Details: []smStatDetail{
			{Type: code("goals"), Value: map[string]interface{}{"total": 11.0}},
			{Type: code("yellowcards"), Value: 2.0},
		}},
	}

	stats := extractLeagueStats(blocks, 8)
	require.Equal(t, 11.0, stats["goals"])
	require.Equal(t, 2.0, stats["yellow_cards"])

	require.Empty(t, extractLeagueStats(blocks, 999))
}
