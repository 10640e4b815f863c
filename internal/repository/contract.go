package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dynasty-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type ContractRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewContractRepository(db *sql.DB, logger zerolog.Logger) *ContractRepository {
	return &ContractRepository{db: db, logger: logger}
}

// Insert persists a new contract, generating its synthetic id when empty.
func (r *ContractRepository) Insert(ctx context.Context, contract *domain.Contract) error {
	if contract.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generating contract id: %w", err)
		}
		contract.ID = id
	}
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contracts (id, league_id, player_id, team_id, amount, length, start_season, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contract.ID, contract.LeagueID, contract.PlayerID, contract.TeamID,
		contract.Amount, contract.Length, contract.StartSeason, contract.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting contract for player %s: %w", contract.PlayerID, err)
	}
	return nil
}

// GetByLeagues returns every contract signed under any of the given league
// ids, newest first. Historical (expired, amnestied) contracts are included;
// lifecycle state is computed by the caller.
func (r *ContractRepository) GetByLeagues(ctx context.Context, leagueIDs []string) ([]domain.Contract, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT id, league_id, player_id, team_id, amount, length, start_season, created_at
		 FROM contracts WHERE league_id IN (%s) ORDER BY created_at DESC`,
		placeholders(len(leagueIDs)))

	rows, err := r.db.QueryContext(ctx, query, stringArgs(leagueIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying contracts: %w", err)
	}
	defer rows.Close()

	return scanContracts(rows)
}

// GetByPlayer returns a player's contracts across the given league ids,
// newest first.
func (r *ContractRepository) GetByPlayer(ctx context.Context, leagueIDs []string, playerID string) ([]domain.Contract, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT id, league_id, player_id, team_id, amount, length, start_season, created_at
		 FROM contracts WHERE player_id = ? AND league_id IN (%s) ORDER BY created_at DESC`,
		placeholders(len(leagueIDs)))

	args := append([]any{playerID}, stringArgs(leagueIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contracts for player %s: %w", playerID, err)
	}
	defer rows.Close()

	return scanContracts(rows)
}

// UpdateAmount backfills the cost snapshot on an existing contract.
func (r *ContractRepository) UpdateAmount(ctx context.Context, contractID string, amount int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE contracts SET amount = ? WHERE id = ?`, amount, contractID)
	return err
}

func scanContracts(rows *sql.Rows) ([]domain.Contract, error) {
	var contracts []domain.Contract
	for rows.Next() {
		var c domain.Contract
		if err := rows.Scan(&c.ID, &c.LeagueID, &c.PlayerID, &c.TeamID,
			&c.Amount, &c.Length, &c.StartSeason, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
