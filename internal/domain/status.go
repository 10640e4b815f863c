package domain

// ContractStatus is the lifecycle state of a contract relative to a season.
type ContractStatus string

const (
	StatusActive    ContractStatus = "active"
	StatusExpired   ContractStatus = "expired"
	StatusAmnestied ContractStatus = "amnestied"
)

// EndSeason returns the contract's effective final season: start + length - 1
// plus every extension applied to it. Extensions stack additively.
func (c Contract) EndSeason(extensions []ContractAction) int {
	end := c.StartSeason + c.Length - 1
	for _, ext := range extensions {
		if ext.Kind == ActionExtension && ext.ContractID == c.ID {
			end += ext.Length
		}
	}
	return end
}

// Status evaluates a contract against a season and its action records.
// Amnesty is terminal and wins over season math: a contract amnestied the
// season it was signed is amnestied, not active.
func (c Contract) Status(season int, actions []ContractAction) ContractStatus {
	for _, a := range actions {
		if a.Kind == ActionAmnesty && a.ContractID == c.ID {
			return StatusAmnestied
		}
	}
	if season > c.EndSeason(actions) {
		return StatusExpired
	}
	return StatusActive
}

// YearsRemaining is the number of seasons left on the contract including the
// given season, zero for anything not active.
func (c Contract) YearsRemaining(season int, actions []ContractAction) int {
	if c.Status(season, actions) != StatusActive {
		return 0
	}
	return c.EndSeason(actions) - season + 1
}

// Info evaluates the contract into its denormalized query form.
func (c Contract) Info(season int, actions []ContractAction) ContractInfo {
	status := c.Status(season, actions)
	return ContractInfo{
		ID:          c.ID,
		LeagueID:    c.LeagueID,
		PlayerID:    c.PlayerID,
		TeamID:      c.TeamID,
		Amount:      c.Amount,
		Length:      c.Length,
		StartSeason: c.StartSeason,
		EndSeason:   c.EndSeason(actions),
		IsActive:    status == StatusActive,
		IsExpired:   status == StatusExpired,
		IsAmnestied: status == StatusAmnestied,
	}
}

// WindowStart returns the first season inside the rollover window ending at
// the given season. A rollover period of 1 (or less) means only the current
// season counts.
func WindowStart(season, rolloverEvery int) int {
	period := rolloverEvery
	if period < 1 {
		period = 1
	}
	return season - (period - 1)
}

// AllowanceLeft derives a remaining count from the configured allowance and
// in-window usage, floored at zero.
func AllowanceLeft(allowed, used int) int {
	if left := allowed - used; left > 0 {
		return left
	}
	return 0
}
