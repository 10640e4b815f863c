package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dynasty-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type LeagueConfigRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLeagueConfigRepository(db *sql.DB, logger zerolog.Logger) *LeagueConfigRepository {
	return &LeagueConfigRepository{db: db, logger: logger}
}

func (r *LeagueConfigRepository) Get(ctx context.Context, leagueID string) (*domain.LeagueConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT league_id, is_auction, is_keeper, money_per_team, keepers_allowed,
		        rfa_allowed, amnesty_allowed, extension_allowed, extension_length,
		        max_contract_length, rfa_length, taxi_length, rollover_every, creation_date
		 FROM league_configs WHERE league_id = ?`, leagueID)

	var cfg domain.LeagueConfig
	err := row.Scan(&cfg.LeagueID, &cfg.IsAuction, &cfg.IsKeeper, &cfg.MoneyPerTeam,
		&cfg.KeepersAllowed, &cfg.RFAAllowed, &cfg.AmnestyAllowed, &cfg.ExtensionAllowed,
		&cfg.ExtensionLength, &cfg.MaxContractLength, &cfg.RFALength, &cfg.TaxiLength,
		&cfg.RolloverEvery, &cfg.CreationDate)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *LeagueConfigRepository) Upsert(ctx context.Context, cfg *domain.LeagueConfig) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO league_configs (league_id, is_auction, is_keeper, money_per_team,
		   keepers_allowed, rfa_allowed, amnesty_allowed, extension_allowed,
		   extension_length, max_contract_length, rfa_length, taxi_length,
		   rollover_every, creation_date, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (league_id) DO UPDATE SET
		   is_auction = excluded.is_auction,
		   is_keeper = excluded.is_keeper,
		   money_per_team = excluded.money_per_team,
		   keepers_allowed = excluded.keepers_allowed,
		   rfa_allowed = excluded.rfa_allowed,
		   amnesty_allowed = excluded.amnesty_allowed,
		   extension_allowed = excluded.extension_allowed,
		   extension_length = excluded.extension_length,
		   max_contract_length = excluded.max_contract_length,
		   rfa_length = excluded.rfa_length,
		   taxi_length = excluded.taxi_length,
		   rollover_every = excluded.rollover_every,
		   creation_date = excluded.creation_date,
		   updated_at = excluded.updated_at`,
		cfg.LeagueID, cfg.IsAuction, cfg.IsKeeper, cfg.MoneyPerTeam,
		cfg.KeepersAllowed, cfg.RFAAllowed, cfg.AmnestyAllowed, cfg.ExtensionAllowed,
		cfg.ExtensionLength, cfg.MaxContractLength, cfg.RFALength, cfg.TaxiLength,
		cfg.RolloverEvery, cfg.CreationDate, time.Now())
	if err != nil {
		return fmt.Errorf("upserting league config %s: %w", cfg.LeagueID, err)
	}
	return nil
}
