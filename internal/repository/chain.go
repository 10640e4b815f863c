package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dynasty-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type LeagueChainRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLeagueChainRepository(db *sql.DB, logger zerolog.Logger) *LeagueChainRepository {
	return &LeagueChainRepository{db: db, logger: logger}
}

// Upsert stores a resolved chain keyed by its original (oldest) league id.
// Re-resolving after a season rollover updates the current id and id list in
// place, so the operation is idempotent.
func (r *LeagueChainRepository) Upsert(ctx context.Context, chain *domain.LeagueChain) error {
	payload, err := json.Marshal(chain.LeagueIDs)
	if err != nil {
		return fmt.Errorf("encoding league ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO league_chains (original_league_id, current_league_id, league_ids, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (original_league_id) DO UPDATE SET
		   current_league_id = excluded.current_league_id,
		   league_ids = excluded.league_ids,
		   updated_at = excluded.updated_at`,
		chain.OriginalLeagueID, chain.CurrentLeagueID, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("upserting league chain %s: %w", chain.OriginalLeagueID, err)
	}
	return nil
}

// GetByMember finds the chain containing the given league id, whether it is
// the current head, the original, or any member in between.
func (r *LeagueChainRepository) GetByMember(ctx context.Context, leagueID string) (*domain.LeagueChain, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT original_league_id, current_league_id, league_ids, updated_at
		 FROM league_chains
		 WHERE original_league_id = ? OR current_league_id = ? OR league_ids LIKE ?`,
		leagueID, leagueID, `%"`+leagueID+`"%`)

	var chain domain.LeagueChain
	var payload string
	if err := row.Scan(&chain.OriginalLeagueID, &chain.CurrentLeagueID, &payload, &chain.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &chain.LeagueIDs); err != nil {
		return nil, fmt.Errorf("decoding league ids for chain %s: %w", chain.OriginalLeagueID, err)
	}
	return &chain, nil
}
