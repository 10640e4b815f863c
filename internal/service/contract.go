package service

import (
	"context"
	"fmt"

	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// ContractService owns the contract ledger: signing contracts, applying and
// revoking special actions, and evaluating lifecycle state against the
// current season. All reads and writes span the full league chain so records
// signed under an older season-league stay visible.
type ContractService struct {
	sleeper    *SleeperService
	costMap    *CostMapService
	config     *LeagueConfigService
	allowances *AllowanceService
	contracts  *repository.ContractRepository
	actions    *repository.ActionRepository
	logger     zerolog.Logger
}

func NewContractService(
	sleeper *SleeperService,
	costMap *CostMapService,
	config *LeagueConfigService,
	allowances *AllowanceService,
	contracts *repository.ContractRepository,
	actions *repository.ActionRepository,
	logger zerolog.Logger,
) *ContractService {
	return &ContractService{
		sleeper:    sleeper,
		costMap:    costMap,
		config:     config,
		allowances: allowances,
		contracts:  contracts,
		actions:    actions,
		logger:     logger,
	}
}

// AddContract signs a player to a team. The player may hold at most one
// active contract anywhere in the chain; the team is resolved from current
// roster membership when not supplied; the amount is snapshotted from the
// cost map at signing time.
func (s *ContractService) AddContract(ctx context.Context, leagueID, playerID string, teamID, length int) (*domain.ContractInfo, error) {
	if length < 1 {
		return nil, fmt.Errorf("contract length must be at least 1 season: %w", domain.ErrInvalid)
	}

	chain := s.sleeper.ResolveChain(ctx, leagueID)
	season := s.sleeper.CurrentSeason(ctx)

	existing, err := s.contractsWithActions(ctx, chain, playerID)
	if err != nil {
		return nil, err
	}
	for _, ec := range existing {
		if ec.contract.Status(season, ec.actions) == domain.StatusActive {
			return nil, fmt.Errorf("player %s already has an active contract: %w", playerID, domain.ErrConflict)
		}
	}

	if teamID == 0 {
		teamID = s.resolveTeamID(ctx, chain[0], playerID)
		if teamID == 0 {
			return nil, fmt.Errorf("player %s is not on any roster: %w", playerID, domain.ErrNotFound)
		}
	}

	contract := &domain.Contract{
		LeagueID:    chain[0],
		PlayerID:    playerID,
		TeamID:      teamID,
		Amount:      s.costMap.Build(ctx, chain)[playerID],
		Length:      length,
		StartSeason: season,
	}
	if err := s.contracts.Insert(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to store contract: %w", err)
	}

	s.logger.Info().
		Str("contract_id", contract.ID).
		Str("player_id", playerID).
		Int("team_id", teamID).
		Int("length", length).
		Int("amount", contract.Amount).
		Msg("contract added")

	info := contract.Info(season, nil)
	return &info, nil
}

// ContractsForChain evaluates every contract in the chain against the given
// season.
func (s *ContractService) ContractsForChain(ctx context.Context, chain []string, season int) ([]domain.ContractInfo, error) {
	contracts, err := s.contracts.GetByLeagues(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}
	actionsByContract, err := s.actionsByContract(ctx, contracts)
	if err != nil {
		return nil, err
	}

	infos := make([]domain.ContractInfo, 0, len(contracts))
	for _, contract := range contracts {
		infos = append(infos, contract.Info(season, actionsByContract[contract.ID]))
	}
	return infos, nil
}

// Contracts lists evaluated contracts for a league, optionally narrowed to a
// player or to active contracts only.
func (s *ContractService) Contracts(ctx context.Context, leagueID, playerID string, activeOnly bool) ([]domain.ContractInfo, error) {
	chain := s.sleeper.ResolveChain(ctx, leagueID)
	season := s.sleeper.CurrentSeason(ctx)

	infos, err := s.ContractsForChain(ctx, chain, season)
	if err != nil {
		return nil, err
	}

	filtered := infos[:0]
	for _, info := range infos {
		if playerID != "" && info.PlayerID != playerID {
			continue
		}
		if activeOnly && !info.IsActive {
			continue
		}
		filtered = append(filtered, info)
	}
	return filtered, nil
}

// History bundles every contract and special action on record for one player
// across the chain.
func (s *ContractService) History(ctx context.Context, leagueID, playerID string) (*domain.ContractHistory, error) {
	chain := s.sleeper.ResolveChain(ctx, leagueID)
	season := s.sleeper.CurrentSeason(ctx)

	existing, err := s.contractsWithActions(ctx, chain, playerID)
	if err != nil {
		return nil, err
	}

	history := &domain.ContractHistory{
		PlayerID:   playerID,
		Contracts:  make([]domain.ContractInfo, 0, len(existing)),
		Amnesties:  []domain.ContractAction{},
		RFAs:       []domain.ContractAction{},
		Extensions: []domain.ContractAction{},
	}
	for _, ec := range existing {
		history.Contracts = append(history.Contracts, ec.contract.Info(season, ec.actions))
		for _, action := range ec.actions {
			switch action.Kind {
			case domain.ActionAmnesty:
				history.Amnesties = append(history.Amnesties, action)
			case domain.ActionRFA:
				history.RFAs = append(history.RFAs, action)
			case domain.ActionExtension:
				history.Extensions = append(history.Extensions, action)
			}
		}
	}
	return history, nil
}

// ApplyAction records an amnesty, RFA tag, or extension against the player's
// newest non-amnestied contract. It refuses duplicate tags of the same kind
// on one contract and enforces the team's remaining allowance for the
// current rollover window.
func (s *ContractService) ApplyAction(ctx context.Context, kind domain.ActionKind, leagueID, playerID string, teamID, length int) (*domain.ContractAction, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown action kind %q: %w", kind, domain.ErrNotFound)
	}

	chain := s.sleeper.ResolveChain(ctx, leagueID)
	season := s.sleeper.CurrentSeason(ctx)

	existing, err := s.contractsWithActions(ctx, chain, playerID)
	if err != nil {
		return nil, err
	}

	var target *contractWithActions
	for i := range existing {
		if existing[i].contract.Status(season, existing[i].actions) != domain.StatusAmnestied {
			target = &existing[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("no contract on record for player %s: %w", playerID, domain.ErrNotFound)
	}
	for _, action := range target.actions {
		if action.Kind == kind {
			return nil, fmt.Errorf("contract %s already has a %s applied: %w", target.contract.ID, kind, domain.ErrConflict)
		}
	}

	if teamID == 0 {
		teamID = target.contract.TeamID
	}

	cfg := s.config.Resolve(ctx, chain)
	left, err := s.allowances.Remaining(ctx, chain, season, cfg, teamID, kind)
	if err != nil {
		return nil, err
	}
	if left <= 0 {
		return nil, fmt.Errorf("team %d has no %s uses left: %w", teamID, kind, domain.ErrConflict)
	}

	action := &domain.ContractAction{
		Kind:       kind,
		ContractID: target.contract.ID,
		LeagueID:   chain[0],
		PlayerID:   playerID,
		TeamID:     teamID,
		Length:     actionLength(kind, length, cfg),
		Season:     season,
	}
	if err := s.actions.Insert(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to store %s action: %w", kind, err)
	}

	// Keep the inspectable snapshot current for the spending team.
	if _, err := s.allowances.Counters(ctx, chain, season, cfg, []int{teamID}); err != nil {
		s.logger.Warn().Err(err).Int("team_id", teamID).Msg("failed to refresh allowance snapshot")
	}

	s.logger.Info().
		Str("kind", string(kind)).
		Str("contract_id", action.ContractID).
		Str("player_id", playerID).
		Int("team_id", teamID).
		Int("season", season).
		Msg("contract action applied")
	return action, nil
}

// RevokeAction removes every record of the given kind for a player in the
// chain, returning the team's allowance to the pool.
func (s *ContractService) RevokeAction(ctx context.Context, kind domain.ActionKind, leagueID, playerID string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown action kind %q: %w", kind, domain.ErrNotFound)
	}

	chain := s.sleeper.ResolveChain(ctx, leagueID)
	removed, err := s.actions.Delete(ctx, kind, chain, playerID)
	if err != nil {
		return fmt.Errorf("failed to revoke %s: %w", kind, err)
	}
	if removed == 0 {
		return fmt.Errorf("no %s on record for player %s: %w", kind, playerID, domain.ErrNotFound)
	}

	s.logger.Info().
		Str("kind", string(kind)).
		Str("player_id", playerID).
		Int64("removed", removed).
		Msg("contract action revoked")
	return nil
}

type contractWithActions struct {
	contract domain.Contract
	actions  []domain.ContractAction
}

// contractsWithActions loads a player's contracts (newest first) paired with
// their ledger actions.
func (s *ContractService) contractsWithActions(ctx context.Context, chain []string, playerID string) ([]contractWithActions, error) {
	contracts, err := s.contracts.GetByPlayer(ctx, chain, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts for player %s: %w", playerID, err)
	}
	actionsByContract, err := s.actionsByContract(ctx, contracts)
	if err != nil {
		return nil, err
	}

	out := make([]contractWithActions, 0, len(contracts))
	for _, contract := range contracts {
		out = append(out, contractWithActions{contract: contract, actions: actionsByContract[contract.ID]})
	}
	return out, nil
}

func (s *ContractService) actionsByContract(ctx context.Context, contracts []domain.Contract) (map[string][]domain.ContractAction, error) {
	if len(contracts) == 0 {
		return map[string][]domain.ContractAction{}, nil
	}
	ids := make([]string, 0, len(contracts))
	for _, contract := range contracts {
		ids = append(ids, contract.ID)
	}
	actions, err := s.actions.GetByContracts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract actions: %w", err)
	}
	byContract := make(map[string][]domain.ContractAction, len(contracts))
	for _, action := range actions {
		byContract[action.ContractID] = append(byContract[action.ContractID], action)
	}
	return byContract, nil
}

// resolveTeamID finds which roster currently holds the player.
func (s *ContractService) resolveTeamID(ctx context.Context, leagueID, playerID string) int {
	for _, roster := range s.sleeper.Rosters(ctx, leagueID) {
		for _, id := range roster.Players {
			if id == playerID {
				return roster.RosterID
			}
		}
	}
	return 0
}

// actionLength picks the recorded term for an action: an explicit request
// wins, then the league's configured default, floored at one season for RFA
// and extensions.
func actionLength(kind domain.ActionKind, requested int, cfg domain.LeagueConfig) int {
	if kind == domain.ActionAmnesty {
		return 0
	}
	if requested > 0 {
		return requested
	}
	configured := cfg.ExtensionLength
	if kind == domain.ActionRFA {
		configured = cfg.RFALength
	}
	if configured < 1 {
		return 1
	}
	return configured
}
