package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dynasty-tracker/internal/constants"
	"dynasty-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// LocalPlayerRepository is the local player directory, filled from the
// upstream player dump and per-player fallback fetches.
type LocalPlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLocalPlayerRepository(db *sql.DB, logger zerolog.Logger) *LocalPlayerRepository {
	return &LocalPlayerRepository{db: db, logger: logger}
}

func (r *LocalPlayerRepository) Get(ctx context.Context, playerID string) (*domain.LocalPlayer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT player_id, first_name, last_name, position, nfl_team, updated_at
		 FROM local_players WHERE player_id = ?`, playerID)

	var p domain.LocalPlayer
	if err := row.Scan(&p.PlayerID, &p.FirstName, &p.LastName, &p.Position, &p.NFLTeam, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs loads a batch of directory entries keyed by player id. Missing
// ids are simply absent from the result.
func (r *LocalPlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) (map[string]domain.LocalPlayer, error) {
	players := make(map[string]domain.LocalPlayer, len(playerIDs))
	if len(playerIDs) == 0 {
		return players, nil
	}

	// Chunk the lookup; rosters across a league can exceed sqlite's
	// parameter limit in one IN clause.
	for start := 0; start < len(playerIDs); start += constants.DBBatchSize {
		end := start + constants.DBBatchSize
		if end > len(playerIDs) {
			end = len(playerIDs)
		}
		batch := playerIDs[start:end]

		query := fmt.Sprintf(
			`SELECT player_id, first_name, last_name, position, nfl_team, updated_at
			 FROM local_players WHERE player_id IN (%s)`,
			placeholders(len(batch)))

		rows, err := r.db.QueryContext(ctx, query, stringArgs(batch)...)
		if err != nil {
			return nil, fmt.Errorf("querying local players: %w", err)
		}
		for rows.Next() {
			var p domain.LocalPlayer
			if err := rows.Scan(&p.PlayerID, &p.FirstName, &p.LastName, &p.Position, &p.NFLTeam, &p.UpdatedAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning local player: %w", err)
			}
			players[p.PlayerID] = p
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return players, nil
}

func (r *LocalPlayerRepository) Upsert(ctx context.Context, player *domain.LocalPlayer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO local_players (player_id, first_name, last_name, position, nfl_team, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (player_id) DO UPDATE SET
		   first_name = excluded.first_name,
		   last_name = excluded.last_name,
		   position = excluded.position,
		   nfl_team = excluded.nfl_team,
		   updated_at = excluded.updated_at`,
		player.PlayerID, player.FirstName, player.LastName, player.Position, player.NFLTeam, time.Now())
	if err != nil {
		return fmt.Errorf("upserting local player %s: %w", player.PlayerID, err)
	}
	return nil
}

// UpsertBatch writes a directory refresh in one transaction, batched to keep
// statements bounded.
func (r *LocalPlayerRepository) UpsertBatch(ctx context.Context, players []domain.LocalPlayer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(players) {
			end = len(players)
		}

		for _, p := range players[i:end] {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO local_players (player_id, first_name, last_name, position, nfl_team, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (player_id) DO UPDATE SET
				   first_name = excluded.first_name,
				   last_name = excluded.last_name,
				   position = excluded.position,
				   nfl_team = excluded.nfl_team,
				   updated_at = excluded.updated_at`,
				p.PlayerID, p.FirstName, p.LastName, p.Position, p.NFLTeam, now)
			if err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", p.PlayerID, err)
			}
		}
	}

	return tx.Commit()
}
