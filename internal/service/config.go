package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// LeagueConfigService resolves and stores the contract ruleset for a league
// chain. Rows are keyed by the chain's original league id so every season of
// the league shares one config.
type LeagueConfigService struct {
	configs *repository.LeagueConfigRepository
	sleeper *SleeperService
	logger  zerolog.Logger
}

func NewLeagueConfigService(configs *repository.LeagueConfigRepository, sleeper *SleeperService, logger zerolog.Logger) *LeagueConfigService {
	return &LeagueConfigService{configs: configs, sleeper: sleeper, logger: logger}
}

// Get returns the config for any league id in a chain.
func (s *LeagueConfigService) Get(ctx context.Context, leagueID string) (domain.LeagueConfig, error) {
	chain := s.sleeper.ResolveChain(ctx, leagueID)
	cfg := s.Resolve(ctx, chain)
	if cfg.Empty() {
		return cfg, fmt.Errorf("no config for league %s: %w", leagueID, domain.ErrNotFound)
	}
	return cfg, nil
}

// Set stores the config keyed by the chain's original league id, so writes
// through any season of the league land on the same row.
func (s *LeagueConfigService) Set(ctx context.Context, leagueID string, cfg domain.LeagueConfig) (domain.LeagueConfig, error) {
	chain := s.sleeper.ResolveChain(ctx, leagueID)
	cfg.LeagueID = chain[len(chain)-1]
	if cfg.CreationDate == "" {
		cfg.CreationDate = s.leagueCreationDate(ctx, chain[0])
	}
	if err := s.configs.Upsert(ctx, &cfg); err != nil {
		return domain.LeagueConfig{}, fmt.Errorf("failed to store league config: %w", err)
	}
	s.logger.Info().Str("league_id", cfg.LeagueID).Msg("league config updated")
	return cfg, nil
}

// Resolve walks the chain newest-first and returns the first non-empty config
// row, with remaining zero-valued fields backfilled from older rows. Missing
// rows yield a zero config rather than an error.
func (s *LeagueConfigService) Resolve(ctx context.Context, chain []string) domain.LeagueConfig {
	var merged domain.LeagueConfig
	for _, leagueID := range chain {
		cfg, err := s.configs.Get(ctx, leagueID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("league config lookup failed")
			}
			continue
		}
		if merged.Empty() {
			merged = *cfg
			continue
		}
		mergeConfig(&merged, cfg)
	}
	if len(chain) > 0 {
		if merged.LeagueID == "" {
			merged.LeagueID = chain[len(chain)-1]
		}
		if merged.CreationDate == "" {
			merged.CreationDate = s.leagueCreationDate(ctx, chain[0])
		}
	}
	return merged
}

func (s *LeagueConfigService) leagueCreationDate(ctx context.Context, leagueID string) string {
	league := s.sleeper.League(ctx, leagueID)
	if league == nil || league.Created == 0 {
		return ""
	}
	return time.UnixMilli(league.Created).UTC().Format("2006-01-02")
}

// mergeConfig backfills zero-valued fields of dst from an older chain
// member's row.
func mergeConfig(dst, src *domain.LeagueConfig) {
	if dst.MoneyPerTeam == 0 {
		dst.MoneyPerTeam = src.MoneyPerTeam
	}
	if dst.KeepersAllowed == 0 {
		dst.KeepersAllowed = src.KeepersAllowed
	}
	if dst.RFAAllowed == 0 {
		dst.RFAAllowed = src.RFAAllowed
	}
	if dst.AmnestyAllowed == 0 {
		dst.AmnestyAllowed = src.AmnestyAllowed
	}
	if dst.ExtensionAllowed == 0 {
		dst.ExtensionAllowed = src.ExtensionAllowed
	}
	if dst.ExtensionLength == 0 {
		dst.ExtensionLength = src.ExtensionLength
	}
	if dst.MaxContractLength == 0 {
		dst.MaxContractLength = src.MaxContractLength
	}
	if dst.RFALength == 0 {
		dst.RFALength = src.RFALength
	}
	if dst.TaxiLength == 0 {
		dst.TaxiLength = src.TaxiLength
	}
	if dst.RolloverEvery == 0 {
		dst.RolloverEvery = src.RolloverEvery
	}
	if dst.CreationDate == "" {
		dst.CreationDate = src.CreationDate
	}
	if !dst.IsAuction {
		dst.IsAuction = src.IsAuction
	}
	if !dst.IsKeeper {
		dst.IsKeeper = src.IsKeeper
	}
}
