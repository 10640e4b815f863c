package api

import "strconv"

// Upstream payload schemas. Sleeper returns ids as strings and most numeric
// pick metadata as strings; validation and number parsing happen here at the
// boundary so malformed entries become skip-and-log upstream of the engine.

type League struct {
	LeagueID         string `json:"league_id"`
	Name             string `json:"name"`
	Season           string `json:"season"`
	Status           string `json:"status"`
	PreviousLeagueID string `json:"previous_league_id"`
	DraftID          string `json:"draft_id"`
	Avatar           string `json:"avatar"`
	Created          int64  `json:"created"`
}

type Roster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Taxi     []string `json:"taxi"`
}

type User struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	IsOwner     bool   `json:"is_owner"`
}

type Draft struct {
	DraftID     string `json:"draft_id"`
	Season      string `json:"season"`
	Status      string `json:"status"`
	StartTime   int64  `json:"start_time"`
	Created     int64  `json:"created"`
	LastUpdated int64  `json:"last_updated"`
}

// SortKey orders drafts newest first: explicit timestamps when present,
// season as a last resort.
func (d Draft) SortKey() int64 {
	if d.StartTime != 0 {
		return d.StartTime
	}
	if d.Created != 0 {
		return d.Created
	}
	if d.LastUpdated != 0 {
		return d.LastUpdated
	}
	if season, err := strconv.ParseInt(d.Season, 10, 64); err == nil {
		return season
	}
	return 0
}

type DraftPick struct {
	PlayerID string       `json:"player_id"`
	PickedBy string       `json:"picked_by"`
	RosterID int          `json:"roster_id"`
	Round    int          `json:"round"`
	Metadata PickMetadata `json:"metadata"`
}

type PickMetadata struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      string `json:"team"`
	Amount    string `json:"amount"`
}

// AmountValue parses the auction amount, zero when absent or malformed.
func (m PickMetadata) AmountValue() int {
	amount, err := strconv.Atoi(m.Amount)
	if err != nil || amount < 0 {
		return 0
	}
	return amount
}

type Transaction struct {
	TransactionID string         `json:"transaction_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Created       int64          `json:"created"`
	StatusUpdated int64          `json:"status_updated"`
	Settings      map[string]int `json:"settings"`
	Adds          map[string]int `json:"adds"`
	RosterIDs     []int          `json:"roster_ids"`
}

// SortKey orders transactions by recency, status timestamp as tie-break,
// zero when neither is present.
func (t Transaction) SortKey() int64 {
	if t.Created != 0 {
		return t.Created
	}
	return t.StatusUpdated
}

// bidFields is the priority order for transaction price fields.
var bidFields = []string{"waiver_bid", "faab_bid", "bid", "price", "amount"}

// BidAmount returns the first positive bid/price field, zero if none.
func (t Transaction) BidAmount() int {
	for _, field := range bidFields {
		if v, ok := t.Settings[field]; ok && v > 0 {
			return v
		}
	}
	return 0
}

type SeasonState struct {
	Season       string `json:"season"`
	LeagueSeason string `json:"league_season"`
	Week         int    `json:"week"`
}

// SeasonYear resolves the active season, preferring the league season.
func (s SeasonState) SeasonYear() int {
	if year, err := strconv.Atoi(s.LeagueSeason); err == nil && year > 0 {
		return year
	}
	if year, err := strconv.Atoi(s.Season); err == nil && year > 0 {
		return year
	}
	return 0
}

type Player struct {
	PlayerID  string `json:"player_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      string `json:"team"`
}
