package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dynasty-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// ActionRepository stores the amnesty/RFA/extension records and the derived
// per-team allowance snapshots.
type ActionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewActionRepository(db *sql.DB, logger zerolog.Logger) *ActionRepository {
	return &ActionRepository{db: db, logger: logger}
}

func (r *ActionRepository) Insert(ctx context.Context, action *domain.ContractAction) error {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO contract_actions (kind, contract_id, league_id, player_id, team_id, length, season, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		action.Kind, action.ContractID, action.LeagueID, action.PlayerID,
		action.TeamID, action.Length, action.Season, action.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting %s record for player %s: %w", action.Kind, action.PlayerID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		action.ID = id
	}
	return nil
}

// GetByContracts returns every action record referencing the given contract
// ids, across all kinds.
func (r *ActionRepository) GetByContracts(ctx context.Context, contractIDs []string) ([]domain.ContractAction, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT id, kind, contract_id, league_id, player_id, team_id, length, season, created_at
		 FROM contract_actions WHERE contract_id IN (%s)`,
		placeholders(len(contractIDs)))

	rows, err := r.db.QueryContext(ctx, query, stringArgs(contractIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying contract actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// GetForPlayer returns a player's action records of one kind across the
// given league ids.
func (r *ActionRepository) GetForPlayer(ctx context.Context, kind domain.ActionKind, leagueIDs []string, playerID string) ([]domain.ContractAction, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT id, kind, contract_id, league_id, player_id, team_id, length, season, created_at
		 FROM contract_actions WHERE kind = ? AND player_id = ? AND league_id IN (%s)`,
		placeholders(len(leagueIDs)))

	args := append([]any{kind, playerID}, stringArgs(leagueIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s records for player %s: %w", kind, playerID, err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// CountUsage counts one kind's records per team across the chain, for
// seasons inside the rollover window.
func (r *ActionRepository) CountUsage(ctx context.Context, kind domain.ActionKind, leagueIDs []string, windowStart int) (map[int]int, error) {
	if len(leagueIDs) == 0 {
		return map[int]int{}, nil
	}

	query := fmt.Sprintf(
		`SELECT team_id, COUNT(*) FROM contract_actions
		 WHERE kind = ? AND season >= ? AND league_id IN (%s)
		 GROUP BY team_id`,
		placeholders(len(leagueIDs)))

	args := append([]any{kind, windowStart}, stringArgs(leagueIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting %s usage: %w", kind, err)
	}
	defer rows.Close()

	usage := make(map[int]int)
	for rows.Next() {
		var teamID, count int
		if err := rows.Scan(&teamID, &count); err != nil {
			return nil, fmt.Errorf("scanning usage row: %w", err)
		}
		usage[teamID] = count
	}
	return usage, rows.Err()
}

// Delete removes a player's records of one kind across the chain and
// reports how many rows were removed.
func (r *ActionRepository) Delete(ctx context.Context, kind domain.ActionKind, leagueIDs []string, playerID string) (int64, error) {
	if len(leagueIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		`DELETE FROM contract_actions WHERE kind = ? AND player_id = ? AND league_id IN (%s)`,
		placeholders(len(leagueIDs)))

	args := append([]any{kind, playerID}, stringArgs(leagueIDs)...)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting %s records for player %s: %w", kind, playerID, err)
	}
	return result.RowsAffected()
}

// UpsertAllowanceSnapshot overwrites the persisted counters for a team. The
// snapshot is a cache of the derived values and is rewritten on every roster
// read.
func (r *ActionRepository) UpsertAllowanceSnapshot(ctx context.Context, leagueID string, teamID int, counters domain.AllowanceCounters) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO team_allowances (league_id, team_id, amnesty_left, rfa_left, extension_left, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (league_id, team_id) DO UPDATE SET
		   amnesty_left = excluded.amnesty_left,
		   rfa_left = excluded.rfa_left,
		   extension_left = excluded.extension_left,
		   updated_at = excluded.updated_at`,
		leagueID, teamID, counters.AmnestyLeft, counters.RFALeft, counters.ExtensionLeft, time.Now())
	if err != nil {
		return fmt.Errorf("upserting allowance snapshot for team %d: %w", teamID, err)
	}
	return nil
}

// GetAllowanceSnapshot reads the persisted counters for a team.
func (r *ActionRepository) GetAllowanceSnapshot(ctx context.Context, leagueID string, teamID int) (*domain.AllowanceCounters, error) {
	var counters domain.AllowanceCounters
	err := r.db.QueryRowContext(ctx,
		`SELECT amnesty_left, rfa_left, extension_left FROM team_allowances
		 WHERE league_id = ? AND team_id = ?`,
		leagueID, teamID,
	).Scan(&counters.AmnestyLeft, &counters.RFALeft, &counters.ExtensionLeft)
	if err != nil {
		return nil, err
	}
	return &counters, nil
}

func scanActions(rows *sql.Rows) ([]domain.ContractAction, error) {
	var actions []domain.ContractAction
	for rows.Next() {
		var a domain.ContractAction
		if err := rows.Scan(&a.ID, &a.Kind, &a.ContractID, &a.LeagueID,
			&a.PlayerID, &a.TeamID, &a.Length, &a.Season, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
