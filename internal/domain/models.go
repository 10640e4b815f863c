package domain

import (
	"time"
)

// ActionKind identifies a team-level special action against a contract.
type ActionKind string

const (
	ActionAmnesty   ActionKind = "amnesty"
	ActionRFA       ActionKind = "rfa"
	ActionExtension ActionKind = "extension"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionAmnesty, ActionRFA, ActionExtension:
		return true
	}
	return false
}

// Contract is a player's term-of-service record for a team. LeagueID is the
// season-league the contract was signed under, which may be an older member
// of the chain than the league it is queried through.
type Contract struct {
	ID          string
	LeagueID    string
	PlayerID    string
	TeamID      int
	Amount      int
	Length      int
	StartSeason int
	CreatedAt   time.Time
}

// ContractAction is an amnesty, RFA tag, or extension applied to a contract.
// Length is only meaningful for RFA (minimum retention term) and extension
// (seasons added to the contract's effective end).
type ContractAction struct {
	ID         int64
	Kind       ActionKind
	ContractID string
	LeagueID   string
	PlayerID   string
	TeamID     int
	Length     int
	Season     int
	CreatedAt  time.Time
}

// ContractInfo is a contract with its lifecycle state evaluated against a
// season.
type ContractInfo struct {
	ID          string `json:"id"`
	LeagueID    string `json:"league_id"`
	PlayerID    string `json:"player_id"`
	TeamID      int    `json:"team_id"`
	Amount      int    `json:"amount"`
	Length      int    `json:"length"`
	StartSeason int    `json:"start_season"`
	EndSeason   int    `json:"end_season"`
	IsActive    bool   `json:"is_active"`
	IsExpired   bool   `json:"is_expired"`
	IsAmnestied bool   `json:"is_amnestied"`
}

// AllowanceCounters holds the derived remaining special-action counts for a
// team. The persisted snapshot row is a cache of these values.
type AllowanceCounters struct {
	AmnestyLeft   int `json:"amnesty_left"`
	RFALeft       int `json:"rfa_left"`
	ExtensionLeft int `json:"extension_left"`
}

// LeagueChain maps one league's identity across season rollovers. LeagueIDs
// is ordered newest first; the last element is the original league and keys
// the record.
type LeagueChain struct {
	OriginalLeagueID string
	CurrentLeagueID  string
	LeagueIDs        []string
	UpdatedAt        time.Time
}

// LeagueConfig is the per-chain contract ruleset, keyed by the chain's
// original league id.
type LeagueConfig struct {
	LeagueID          string `json:"league_id"`
	IsAuction         bool   `json:"is_auction"`
	IsKeeper          bool   `json:"is_keeper"`
	MoneyPerTeam      int    `json:"money_per_team"`
	KeepersAllowed    int    `json:"keepers_allowed"`
	RFAAllowed        int    `json:"rfa_allowed"`
	AmnestyAllowed    int    `json:"amnesty_allowed"`
	ExtensionAllowed  int    `json:"extension_allowed"`
	ExtensionLength   int    `json:"extension_length"`
	MaxContractLength int    `json:"max_contract_length"`
	RFALength         int    `json:"rfa_length"`
	TaxiLength        int    `json:"taxi_length"`
	RolloverEvery     int    `json:"rollover_every"`
	CreationDate      string `json:"creation_date"`
}

// Empty reports whether the row carries no usable settings, in which case
// another chain member's config should be consulted.
func (c LeagueConfig) Empty() bool {
	return c.MoneyPerTeam == 0 &&
		c.RFAAllowed == 0 &&
		c.AmnestyAllowed == 0 &&
		c.ExtensionAllowed == 0 &&
		c.RolloverEvery == 0
}

// LocalPlayer is a row in the local player directory, populated from the
// upstream player dump and single-player fallbacks.
type LocalPlayer struct {
	PlayerID  string
	FirstName string
	LastName  string
	Position  string
	NFLTeam   string
	UpdatedAt time.Time
}

// PlaceholderPlayer synthesizes directory data for an id the upstream does
// not know. Callers log it but never treat it as an error.
func PlaceholderPlayer(playerID string) LocalPlayer {
	return LocalPlayer{
		PlayerID:  playerID,
		FirstName: "Unknown",
		LastName:  "(ID: " + playerID + ")",
		Position:  "N/A",
	}
}

// RosterPlayer is one enriched player entry in a team's roster response.
type RosterPlayer struct {
	PlayerID      string `json:"player_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Position      string `json:"position"`
	NFLTeam       string `json:"nfl_team,omitempty"`
	Amount        int    `json:"amount"`
	ContractYears int    `json:"contract_years"`
	Taxi          bool   `json:"taxi,omitempty"`
}

// TeamRoster is one denormalized team record in the roster response.
type TeamRoster struct {
	OwnerID       string         `json:"owner_id"`
	RosterID      int            `json:"roster_id"`
	DisplayName   string         `json:"display_name"`
	Avatar        string         `json:"avatar,omitempty"`
	IsOwner       bool           `json:"is_owner"`
	Players       []RosterPlayer `json:"players"`
	TotalAmount   int            `json:"total_amount"`
	Taxi          []string       `json:"taxi"`
	Contracts     int            `json:"contracts"`
	AmnestyLeft   int            `json:"amnesty_left"`
	RFALeft       int            `json:"rfa_left"`
	ExtensionLeft int            `json:"extension_left"`
}

// RosterResponse is the full enriched payload for one (league, user) read.
type RosterResponse struct {
	TeamInfo         []TeamRoster `json:"team_info"`
	LeagueInfo       LeagueConfig `json:"league_info"`
	CurrentSeason    int          `json:"current_season"`
	ResolvedLeagueID string       `json:"resolved_league_id"`
	OriginalLeagueID string       `json:"original_league_id"`
	LeagueChain      []string     `json:"league_chain"`
}

// ContractHistory bundles every ledger record for one player across a chain.
type ContractHistory struct {
	PlayerID   string           `json:"player_id"`
	Contracts  []ContractInfo   `json:"contracts"`
	Amnesties  []ContractAction `json:"amnesties"`
	RFAs       []ContractAction `json:"rfas"`
	Extensions []ContractAction `json:"extensions"`
}
