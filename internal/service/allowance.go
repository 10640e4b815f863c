package service

import (
	"context"
	"fmt"

	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// AllowanceService derives per-team remaining amnesty, RFA, and extension
// counts from the action ledger. The derived counts are the source of truth;
// the snapshot rows it writes exist for inspection and are rewritten on every
// read.
type AllowanceService struct {
	actions *repository.ActionRepository
	logger  zerolog.Logger
}

func NewAllowanceService(actions *repository.ActionRepository, logger zerolog.Logger) *AllowanceService {
	return &AllowanceService{actions: actions, logger: logger}
}

// Counters computes remaining allowances for every listed team and rewrites
// their snapshots keyed by the chain's original league id. Snapshot write
// failures are logged, never surfaced.
func (s *AllowanceService) Counters(ctx context.Context, chain []string, season int, cfg domain.LeagueConfig, teamIDs []int) (map[int]domain.AllowanceCounters, error) {
	windowStart := domain.WindowStart(season, cfg.RolloverEvery)

	usage := make(map[domain.ActionKind]map[int]int, 3)
	for _, kind := range []domain.ActionKind{domain.ActionAmnesty, domain.ActionRFA, domain.ActionExtension} {
		counts, err := s.actions.CountUsage(ctx, kind, chain, windowStart)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s usage: %w", kind, err)
		}
		usage[kind] = counts
	}

	originalID := chain[len(chain)-1]
	counters := make(map[int]domain.AllowanceCounters, len(teamIDs))
	for _, teamID := range teamIDs {
		c := domain.AllowanceCounters{
			AmnestyLeft:   domain.AllowanceLeft(cfg.AmnestyAllowed, usage[domain.ActionAmnesty][teamID]),
			RFALeft:       domain.AllowanceLeft(cfg.RFAAllowed, usage[domain.ActionRFA][teamID]),
			ExtensionLeft: domain.AllowanceLeft(cfg.ExtensionAllowed, usage[domain.ActionExtension][teamID]),
		}
		counters[teamID] = c
		if err := s.actions.UpsertAllowanceSnapshot(ctx, originalID, teamID, c); err != nil {
			s.logger.Warn().Err(err).Str("league_id", originalID).Int("team_id", teamID).Msg("failed to write allowance snapshot")
		}
	}
	return counters, nil
}

// Remaining returns how many uses of one action kind a team has left in the
// current rollover window.
func (s *AllowanceService) Remaining(ctx context.Context, chain []string, season int, cfg domain.LeagueConfig, teamID int, kind domain.ActionKind) (int, error) {
	windowStart := domain.WindowStart(season, cfg.RolloverEvery)
	counts, err := s.actions.CountUsage(ctx, kind, chain, windowStart)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s usage: %w", kind, err)
	}
	var allowed int
	switch kind {
	case domain.ActionAmnesty:
		allowed = cfg.AmnestyAllowed
	case domain.ActionRFA:
		allowed = cfg.RFAAllowed
	case domain.ActionExtension:
		allowed = cfg.ExtensionAllowed
	}
	return domain.AllowanceLeft(allowed, counts[teamID]), nil
}
