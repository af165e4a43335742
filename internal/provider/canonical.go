// Package provider defines the canonical snapshot types every provider
// integration normalizes into. Handlers absorb provider quirks (nesting,
// missing fields, unit differences) at this seam; the roster diff engine and
// the seeders only ever see these shapes.
//
// Adding a provider means implementing fetch + normalize against these
// types. The reconciliation algorithm and the Postgres schema never change.
package provider

import "encoding/json"

// Team is the canonical team profile.
type Team struct {
	ID            int                    `json:"id"`
	Name          string                 `json:"name"`
	ShortCode     string                 `json:"short_code,omitempty"`
	City          string                 `json:"city,omitempty"`
	Country       string                 `json:"country,omitempty"`
	Conference    string                 `json:"conference,omitempty"`
	Division      string                 `json:"division,omitempty"`
	LogoURL       string                 `json:"logo_url,omitempty"`
	VenueName     string                 `json:"venue_name,omitempty"`
	VenueCapacity *int                   `json:"venue_capacity,omitempty"`
	Founded       *int                   `json:"founded,omitempty"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
}

// Player is the canonical player profile. TeamID is the player's current
// team as reported by the provider, nil when the provider omits it; it is
// the key the roster diff compares.
type Player struct {
	ID               int                    `json:"id"`
	Name             string                 `json:"name"`
	FirstName        string                 `json:"first_name,omitempty"`
	LastName         string                 `json:"last_name,omitempty"`
	Position         string                 `json:"position,omitempty"`
	DetailedPosition string                 `json:"detailed_position,omitempty"`
	Nationality      string                 `json:"nationality,omitempty"`
	Height           string                 `json:"height,omitempty"`
	Weight           string                 `json:"weight,omitempty"`
	DateOfBirth      string                 `json:"date_of_birth,omitempty"` // "YYYY-MM-DD"
	PhotoURL         string                 `json:"photo_url,omitempty"`
	TeamID           *int                   `json:"team_id,omitempty"`
	Meta             map[string]interface{} `json:"meta,omitempty"`
}

// PlayerStats is a player's season statistics: a flat map of stat key to
// numeric value with sport-specific keys. Raw preserves the full provider
// response for debugging.
type PlayerStats struct {
	PlayerID int                    `json:"player_id"`
	TeamID   *int                   `json:"team_id,omitempty"`
	Player   *Player                `json:"player,omitempty"`
	Stats    map[string]interface{} `json:"stats"`
	Raw      json.RawMessage        `json:"raw,omitempty"`
}

// TeamStats is a team's season statistics (standings for football).
type TeamStats struct {
	TeamID int                    `json:"team_id"`
	Team   *Team                  `json:"team,omitempty"`
	Stats  map[string]interface{} `json:"stats"`
	Raw    json.RawMessage        `json:"raw,omitempty"`
}
