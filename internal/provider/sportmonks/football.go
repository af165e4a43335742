package sportmonks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-sync/internal/provider"
	"github.com/albapepper/scoracle-sync/internal/provider/rest"
)

// FootballHandler fetches and normalizes Football data from SportMonks.
//
// SportMonks has no bulk player endpoint on the standard plan, so roster and
// stat fetches iterate team squads: teams for the season, then each team's
// squad, then (for stats) each player individually.
type FootballHandler struct {
	client *Client
	logger *slog.Logger
}

// NewFootballHandler creates a Football handler.
func NewFootballHandler(apiToken string, tune rest.Tuning, logger *slog.Logger) *FootballHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FootballHandler{
		client: NewClient(apiToken, tune, logger),
		logger: logger,
	}
}

// --------------------------------------------------------------------------
// Code override maps — SportMonks codes that don't match our canonical keys
// after simple hyphen-to-underscore replacement.
// --------------------------------------------------------------------------

var playerCodeOverrides = map[string]string{
	"passes":              "passes_total",
	"accurate-passes":     "passes_accurate",
	"total-crosses":       "crosses_total",
	"accurate-crosses":    "crosses_accurate",
	"blocked-shots":       "blocks",
	"total-duels":         "duels_total",
	"dribble-attempts":    "dribbles_attempts",
	"successful-dribbles": "dribbles_success",
	"yellowcards":         "yellow_cards",
	"redcards":            "red_cards",
	"fouls":               "fouls_committed",
	"expected-goals":      "expected_goals",
}

var standingCodeOverrides = map[string]string{
	"overall-matches-played": "matches_played",
	"overall-won":            "wins",
	"overall-draw":           "draws",
	"overall-lost":           "losses",
	"overall-goals-for":      "goals_for",
	"overall-goals-against":  "goals_against",
	"home-matches-played":    "home_played",
	"away-matches-played":    "away_played",
}

func normalizeCode(code string, overrides map[string]string) string {
	if mapped, ok := overrides[code]; ok {
		return mapped
	}
	return strings.ReplaceAll(code, "-", "_")
}

// --------------------------------------------------------------------------
// Teams
// --------------------------------------------------------------------------

type smTeamRaw struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
	Founded   *int   `json:"founded"`
	ImagePath string `json:"image_path"`
	Country   *struct {
		Name string `json:"name"`
	} `json:"country"`
	Venue *struct {
		Name     string `json:"name"`
		Capacity *int   `json:"capacity"`
		City     string `json:"city"`
	} `json:"venue"`
}

// GetTeams fetches all teams for a provider season in canonical format.
func (h *FootballHandler) GetTeams(ctx context.Context, seasonID int) ([]provider.Team, error) {
	rawItems, err := h.client.getPaginated(ctx,
		fmt.Sprintf("/teams/seasons/%d", seasonID),
		url.Values{"include": {"venue;country"}}, 50)
	if err != nil {
		return nil, fmt.Errorf("fetch football teams: %w", err)
	}

	teams := make([]provider.Team, 0, len(rawItems))
	for _, raw := range rawItems {
		var t smTeamRaw
		if err := json.Unmarshal(raw, &t); err != nil {
			h.logger.Warn("decode team", "error", err)
			continue
		}
		teams = append(teams, normalizeTeam(t))
	}
	return teams, nil
}

func normalizeTeam(raw smTeamRaw) provider.Team {
	team := provider.Team{
		ID:        raw.ID,
		Name:      raw.Name,
		ShortCode: raw.ShortCode,
		LogoURL:   raw.ImagePath,
		Founded:   raw.Founded,
		Meta:      make(map[string]interface{}),
	}
	if raw.Country != nil {
		team.Country = raw.Country.Name
	}
	if raw.Venue != nil {
		team.VenueName = raw.Venue.Name
		team.VenueCapacity = raw.Venue.Capacity
		if raw.Venue.City != "" {
			team.Meta["venue_city"] = raw.Venue.City
		}
	}
	return team
}

// --------------------------------------------------------------------------
// Squads (the roster source for reconciliation)
// --------------------------------------------------------------------------

type smSquadEntry struct {
	PlayerID int `json:"player_id"`
	ID       int `json:"id"`
	Player   *struct {
		ID          int    `json:"id"`
		Firstname   string `json:"firstname"`
		Lastname    string `json:"lastname"`
		DisplayName string `json:"display_name"`
	} `json:"player"`
}

// GetSquad fetches one team's current squad for a season. Entries without a
// resolvable player id are dropped. The returned players carry the team id
// and whatever name data the squad include provides; full profiles come
// from per-player fetches during stat seeding.
func (h *FootballHandler) GetSquad(ctx context.Context, seasonID, teamID int) ([]provider.Player, error) {
	resp, err := h.client.get(ctx,
		fmt.Sprintf("/squads/seasons/%d/teams/%d", seasonID, teamID),
		url.Values{"include": {"player"}})
	if err != nil {
		return nil, fmt.Errorf("fetch squad team %d: %w", teamID, err)
	}

	var squad []smSquadEntry
	if err := json.Unmarshal(resp.Data, &squad); err != nil {
		return nil, fmt.Errorf("decode squad team %d: %w", teamID, err)
	}

	players := make([]provider.Player, 0, len(squad))
	for _, entry := range squad {
		pid := entry.PlayerID
		if pid == 0 && entry.Player != nil {
			pid = entry.Player.ID
		}
		if pid == 0 {
			pid = entry.ID
		}
		if pid == 0 {
			continue
		}

		tid := teamID
		p := provider.Player{ID: pid, TeamID: &tid}
		if entry.Player != nil {
			p.FirstName = entry.Player.Firstname
			p.LastName = entry.Player.Lastname
			p.Name = entry.Player.DisplayName
		}
		if p.Name == "" {
			p.Name = strings.TrimSpace(p.FirstName + " " + p.LastName)
		}
		if p.Name == "" {
			p.Name = "Unknown"
		}
		players = append(players, p)
	}
	return players, nil
}

// --------------------------------------------------------------------------
// Players + Stats (squad iteration, then per-player fetches)
// --------------------------------------------------------------------------

type smPlayerRaw struct {
	ID               int           `json:"id"`
	Firstname        string        `json:"firstname"`
	Lastname         string        `json:"lastname"`
	DisplayName      string        `json:"display_name"`
	PositionID       *int          `json:"position_id"`
	Position         interface{}   `json:"position"`
	DateOfBirth      string        `json:"date_of_birth"`
	Height           *float64      `json:"height"` // cm
	Weight           *float64      `json:"weight"` // kg
	ImagePath        string        `json:"image_path"`
	Nationality      interface{}   `json:"nationality"` // string or object
	DetailedPosition interface{}   `json:"detailedposition"`
	Statistics       []smStatBlock `json:"statistics"`
}

type smStatBlock struct {
	Details []smStatDetail `json:"details"`
	Season  *struct {
		League *struct {
			ID int `json:"id"`
		} `json:"league"`
	} `json:"season"`
}

type smStatDetail struct {
	Type *struct {
		Code string `json:"code"`
	} `json:"type"`
	Value interface{} `json:"value"`
}

// GetPlayersWithStats iterates squads, fetches each player's profile and
// season statistics, and calls fn per player. Per-team and per-player fetch
// failures are logged and skipped so one bad squad doesn't sink the run.
func (h *FootballHandler) GetPlayersWithStats(ctx context.Context, seasonID int, teamIDs []int, smLeagueID int, fn func(provider.PlayerStats) error) error {
	for i, teamID := range teamIDs {
		h.logger.Info("Fetching squad", "team_id", teamID, "progress", fmt.Sprintf("%d/%d", i+1, len(teamIDs)))

		squad, err := h.GetSquad(ctx, seasonID, teamID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.Warn("squad fetch failed", "team_id", teamID, "error", err)
			continue
		}

		for j, member := range squad {
			playerResp, err := h.client.get(ctx, fmt.Sprintf("/players/%d", member.ID), url.Values{
				"include": {"statistics.details.type;statistics.season.league;nationality;detailedPosition"},
				"filters": {fmt.Sprintf("playerStatisticSeasons:%d", seasonID)},
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				h.logger.Warn("player fetch failed", "player_id", member.ID, "error", err)
				continue
			}

			var playerData smPlayerRaw
			if err := json.Unmarshal(playerResp.Data, &playerData); err != nil {
				h.logger.Warn("player decode failed", "player_id", member.ID, "error", err)
				continue
			}

			player := normalizePlayer(playerData)
			player.TeamID = member.TeamID
			stats := extractLeagueStats(playerData.Statistics, smLeagueID)

			rawJSON, _ := json.Marshal(playerData)

			if err := fn(provider.PlayerStats{
				PlayerID: playerData.ID,
				TeamID:   member.TeamID,
				Player:   &player,
				Stats:    stats,
				Raw:      rawJSON,
			}); err != nil {
				return err
			}

			if (j+1)%10 == 0 {
				h.logger.Info("Player progress", "team_id", teamID, "count", j+1, "total", len(squad))
			}
		}
	}
	return nil
}

// extractLeagueStats picks the stat block for the requested league; players
// on multiple competitions have one block per league-season.
func extractLeagueStats(statistics []smStatBlock, smLeagueID int) map[string]interface{} {
	for _, block := range statistics {
		if block.Season == nil || block.Season.League == nil {
			continue
		}
		if block.Season.League.ID == smLeagueID {
			return normalizePlayerStats(block.Details)
		}
	}
	return map[string]interface{}{}
}

func normalizePlayerStats(details []smStatDetail) map[string]interface{} {
	stats := make(map[string]interface{})
	for _, detail := range details {
		if detail.Type == nil || detail.Type.Code == "" {
			continue
		}
		key := normalizeCode(detail.Type.Code, playerCodeOverrides)
		if val, ok := provider.ExtractValue(detail.Value); ok {
			stats[key] = val
		}
	}
	return stats
}

func normalizePlayer(raw smPlayerRaw) provider.Player {
	name := raw.DisplayName
	if name == "" {
		name = strings.TrimSpace(raw.Firstname + " " + raw.Lastname)
	}
	if name == "" {
		name = "Unknown"
	}

	// Position from position_id when the include is missing.
	var position string
	if v, ok := raw.Position.(string); ok {
		position = v
	}
	if position == "" && raw.PositionID != nil {
		posMap := map[int]string{24: "Goalkeeper", 25: "Defender", 26: "Midfielder", 27: "Attacker"}
		position = posMap[*raw.PositionID]
	}

	var detailedPosition string
	switch v := raw.DetailedPosition.(type) {
	case map[string]interface{}:
		if n, ok := v["name"].(string); ok {
			detailedPosition = n
		}
	case string:
		detailedPosition = v
	}

	var nationality string
	switch v := raw.Nationality.(type) {
	case map[string]interface{}:
		if n, ok := v["name"].(string); ok {
			nationality = n
		}
	case string:
		nationality = v
	}

	var height string
	if raw.Height != nil && *raw.Height > 0 {
		height = cmToFeetInches(*raw.Height)
	}

	var weight string
	if raw.Weight != nil && *raw.Weight > 0 {
		weight = strconv.Itoa(int(math.Round(*raw.Weight * 2.20462)))
	}

	meta := make(map[string]interface{})
	if raw.DisplayName != "" {
		meta["display_name"] = raw.DisplayName
	}
	if raw.PositionID != nil {
		meta["position_id"] = *raw.PositionID
	}

	return provider.Player{
		ID:               raw.ID,
		Name:             name,
		FirstName:        raw.Firstname,
		LastName:         raw.Lastname,
		Position:         position,
		DetailedPosition: detailedPosition,
		Nationality:      nationality,
		Height:           height,
		Weight:           weight,
		DateOfBirth:      raw.DateOfBirth,
		PhotoURL:         raw.ImagePath,
		Meta:             meta,
	}
}

func cmToFeetInches(cm float64) string {
	totalInches := cm / 2.54
	if totalInches <= 0 {
		return ""
	}
	feet := int(totalInches / 12)
	inches := int(math.Round(math.Mod(totalInches, 12)))
	if inches == 12 {
		feet++
		inches = 0
	}
	return fmt.Sprintf("%d-%d", feet, inches)
}

// --------------------------------------------------------------------------
// Team Stats (Standings)
// --------------------------------------------------------------------------

type smStandingRaw struct {
	ParticipantID int             `json:"participant_id"`
	Participant   json.RawMessage `json:"participant"`
	Points        *int            `json:"points"`
	Position      *int            `json:"position"`
	Form          string          `json:"form"`
	Details       []smStatDetail  `json:"details"`
}

// GetTeamStats fetches standings for a season in canonical format, ordered
// by table position.
func (h *FootballHandler) GetTeamStats(ctx context.Context, seasonID int) ([]provider.TeamStats, error) {
	resp, err := h.client.get(ctx,
		fmt.Sprintf("/standings/seasons/%d", seasonID),
		url.Values{"include": {"participant;details.type"}})
	if err != nil {
		return nil, fmt.Errorf("fetch football standings: %w", err)
	}

	var raw []smStandingRaw
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode standings: %w", err)
	}

	result := make([]provider.TeamStats, 0, len(raw))
	for _, standing := range raw {
		result = append(result, normalizeStanding(standing))
	}

	sort.Slice(result, func(i, j int) bool {
		pi, _ := result[i].Stats["position"].(float64)
		pj, _ := result[j].Stats["position"].(float64)
		return pi < pj
	})

	return result, nil
}

func normalizeStanding(raw smStandingRaw) provider.TeamStats {
	stats := make(map[string]interface{})

	for _, detail := range raw.Details {
		if detail.Type == nil || detail.Type.Code == "" {
			continue
		}
		key := normalizeCode(detail.Type.Code, standingCodeOverrides)
		if val, ok := provider.ExtractValue(detail.Value); ok {
			stats[key] = val
		}
	}

	if raw.Points != nil {
		stats["points"] = float64(*raw.Points)
	}
	if raw.Position != nil {
		stats["position"] = float64(*raw.Position)
	}
	if raw.Form != "" {
		stats["form"] = raw.Form
	}

	var team *provider.Team
	if raw.Participant != nil {
		var t smTeamRaw
		if err := json.Unmarshal(raw.Participant, &t); err == nil && t.ID != 0 {
			normalized := normalizeTeam(t)
			team = &normalized
		}
	}

	teamID := raw.ParticipantID
	if team != nil && teamID == 0 {
		teamID = team.ID
	}

	rawJSON, _ := json.Marshal(raw)

	return provider.TeamStats{
		TeamID: teamID,
		Team:   team,
		Stats:  stats,
		Raw:    rawJSON,
	}
}
