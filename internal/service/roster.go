package service

import (
	"context"
	"time"

	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/cache"
	"dynasty-tracker/internal/constants"
	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RosterService assembles the full enriched roster payload for a league:
// chain resolution, upstream rosters and users, the cost map, the local
// player directory, contract state, and allowance counters. Degraded
// upstream data produces a degraded payload, never an error.
type RosterService struct {
	sleeper    *SleeperService
	costMap    *CostMapService
	contracts  *ContractService
	allowances *AllowanceService
	config     *LeagueConfigService
	players    *repository.LocalPlayerRepository
	memory     *cache.Cache
	logger     zerolog.Logger
}

func NewRosterService(
	sleeper *SleeperService,
	costMap *CostMapService,
	contracts *ContractService,
	allowances *AllowanceService,
	config *LeagueConfigService,
	players *repository.LocalPlayerRepository,
	memory *cache.Cache,
	logger zerolog.Logger,
) *RosterService {
	return &RosterService{
		sleeper:    sleeper,
		costMap:    costMap,
		contracts:  contracts,
		allowances: allowances,
		config:     config,
		players:    players,
		memory:     memory,
		logger:     logger,
	}
}

// GetRosterResponse builds the denormalized roster view for one (league,
// user) pair. The assembled response is cached briefly to absorb page-load
// bursts.
func (s *RosterService) GetRosterResponse(ctx context.Context, leagueID, userID string) (*domain.RosterResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	cacheKey := "roster_response:" + leagueID + ":" + userID
	if cached, ok := s.memory.Get(cacheKey); ok {
		return cached.(*domain.RosterResponse), nil
	}

	chain := s.sleeper.ResolveChain(ctx, leagueID)
	currentID := chain[0]
	originalID := chain[len(chain)-1]
	season := s.sleeper.CurrentSeason(ctx)

	var (
		rosters []api.Roster
		users   []api.User
		costMap map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rosters = s.sleeper.Rosters(gctx, currentID)
		return nil
	})
	g.Go(func() error {
		users = s.sleeper.Users(gctx, currentID)
		return nil
	})
	g.Go(func() error {
		costMap = s.costMap.Build(gctx, chain)
		return nil
	})
	_ = g.Wait()

	usersByID := make(map[string]api.User, len(users))
	for _, user := range users {
		usersByID[user.UserID] = user
	}

	directory := s.loadDirectory(ctx, rosters)

	contractInfos, err := s.contracts.ContractsForChain(ctx, chain, season)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("failed to load contracts for roster view")
		contractInfos = nil
	}
	yearsByPlayer := make(map[string]int, len(contractInfos))
	activeByTeam := make(map[int]int, len(rosters))
	for _, info := range contractInfos {
		if !info.IsActive {
			continue
		}
		activeByTeam[info.TeamID]++
		if years := info.EndSeason - season + 1; years > yearsByPlayer[info.PlayerID] {
			yearsByPlayer[info.PlayerID] = years
		}
	}

	cfg := s.config.Resolve(ctx, chain)

	teamIDs := make([]int, 0, len(rosters))
	for _, roster := range rosters {
		teamIDs = append(teamIDs, roster.RosterID)
	}
	counters, err := s.allowances.Counters(ctx, chain, season, cfg, teamIDs)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("failed to compute allowance counters")
		counters = map[int]domain.AllowanceCounters{}
	}

	teams := make([]domain.TeamRoster, 0, len(rosters))
	for _, roster := range rosters {
		if roster.OwnerID == "" {
			s.logger.Warn().Int("roster_id", roster.RosterID).Msg("skipping roster with no owner")
			continue
		}
		teams = append(teams, s.buildTeam(ctx, roster, usersByID[roster.OwnerID], directory, costMap, yearsByPlayer, activeByTeam, counters))
	}

	response := &domain.RosterResponse{
		TeamInfo:         teams,
		LeagueInfo:       cfg,
		CurrentSeason:    season,
		ResolvedLeagueID: currentID,
		OriginalLeagueID: originalID,
		LeagueChain:      chain,
	}
	s.memory.Set(cacheKey, response, constants.ResponseCacheTTL)
	return response, nil
}

func (s *RosterService) buildTeam(
	ctx context.Context,
	roster api.Roster,
	user api.User,
	directory map[string]domain.LocalPlayer,
	costMap map[string]int,
	yearsByPlayer map[string]int,
	activeByTeam map[int]int,
	counters map[int]domain.AllowanceCounters,
) domain.TeamRoster {
	taxi := make(map[string]bool, len(roster.Taxi))
	for _, id := range roster.Taxi {
		taxi[id] = true
	}

	players := make([]domain.RosterPlayer, 0, len(roster.Players))
	total := 0
	for _, playerID := range roster.Players {
		local, ok := directory[playerID]
		if !ok {
			local = s.lookupStragglerPlayer(ctx, playerID)
		}
		amount := costMap[playerID]
		total += amount
		players = append(players, domain.RosterPlayer{
			PlayerID:      playerID,
			FirstName:     local.FirstName,
			LastName:      local.LastName,
			Position:      local.Position,
			NFLTeam:       local.NFLTeam,
			Amount:        amount,
			ContractYears: yearsByPlayer[playerID],
			Taxi:          taxi[playerID],
		})
	}

	c := counters[roster.RosterID]
	displayName := user.DisplayName
	if displayName == "" {
		displayName = roster.OwnerID
	}
	taxiIDs := roster.Taxi
	if taxiIDs == nil {
		taxiIDs = []string{}
	}
	return domain.TeamRoster{
		OwnerID:       roster.OwnerID,
		RosterID:      roster.RosterID,
		DisplayName:   displayName,
		Avatar:        user.Avatar,
		IsOwner:       user.IsOwner,
		Players:       players,
		TotalAmount:   total,
		Taxi:          taxiIDs,
		Contracts:     activeByTeam[roster.RosterID],
		AmnestyLeft:   c.AmnestyLeft,
		RFALeft:       c.RFALeft,
		ExtensionLeft: c.ExtensionLeft,
	}
}

// loadDirectory pulls locally stored directory rows for every rostered
// player. Misses fall through to per-player upstream lookups later.
func (s *RosterService) loadDirectory(ctx context.Context, rosters []api.Roster) map[string]domain.LocalPlayer {
	ids := make([]string, 0, 256)
	seen := make(map[string]bool, 256)
	for _, roster := range rosters {
		for _, id := range roster.Players {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[string]domain.LocalPlayer{}
	}
	directory, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("local player lookup failed")
		return map[string]domain.LocalPlayer{}
	}
	return directory
}

// lookupStragglerPlayer resolves a player missing from the local directory
// against the upstream dump, storing a hit locally and falling back to a
// placeholder entry for ids nobody knows.
func (s *RosterService) lookupStragglerPlayer(ctx context.Context, playerID string) domain.LocalPlayer {
	if upstream := s.sleeper.SinglePlayer(ctx, playerID); upstream != nil {
		local := domain.LocalPlayer{
			PlayerID:  playerID,
			FirstName: upstream.FirstName,
			LastName:  upstream.LastName,
			Position:  upstream.Position,
			NFLTeam:   upstream.Team,
		}
		if err := s.players.Upsert(ctx, &local); err != nil {
			s.logger.Warn().Err(err).Str("player_id", playerID).Msg("failed to store player locally")
		}
		return local
	}
	s.logger.Warn().Str("player_id", playerID).Msg("player unknown upstream, using placeholder")
	return domain.PlaceholderPlayer(playerID)
}

// SyncPlayerDirectory refreshes the local player directory from the upstream
// dump. Invoked on startup and safe to call repeatedly; the dump fetch is
// cached for a day.
func (s *RosterService) SyncPlayerDirectory(ctx context.Context) error {
	started := time.Now()
	dump := s.sleeper.AllPlayers(ctx)
	if len(dump) == 0 {
		s.logger.Warn().Msg("player directory sync skipped, empty upstream dump")
		return nil
	}

	batch := make([]domain.LocalPlayer, 0, len(dump))
	for id, player := range dump {
		if id == "" {
			continue
		}
		batch = append(batch, domain.LocalPlayer{
			PlayerID:  id,
			FirstName: player.FirstName,
			LastName:  player.LastName,
			Position:  player.Position,
			NFLTeam:   player.Team,
		})
	}
	if err := s.players.UpsertBatch(ctx, batch); err != nil {
		return err
	}
	s.logger.Info().Int("players", len(batch)).Dur("took", time.Since(started)).Msg("player directory synced")
	return nil
}
