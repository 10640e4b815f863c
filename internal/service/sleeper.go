package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/cache"
	"dynasty-tracker/internal/constants"
	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// UpstreamClient is the read surface of the Sleeper API. Satisfied by
// api.SleeperClient; tests substitute a fake.
type UpstreamClient interface {
	GetLeague(ctx context.Context, leagueID string) (*api.League, error)
	GetRosters(ctx context.Context, leagueID string) ([]api.Roster, error)
	GetUsers(ctx context.Context, leagueID string) ([]api.User, error)
	GetDrafts(ctx context.Context, leagueID string) ([]api.Draft, error)
	GetDraftPicks(ctx context.Context, draftID string) ([]api.DraftPick, error)
	GetTransactions(ctx context.Context, leagueID string, round int) ([]api.Transaction, error)
	GetSeasonState(ctx context.Context) (*api.SeasonState, error)
	GetAllPlayers(ctx context.Context) (map[string]api.Player, error)
	GetPlayer(ctx context.Context, playerID string) (*api.Player, error)
}

// SleeperService wraps the upstream client with failure absorption and owns
// league-chain resolution. Upstream failures degrade to empty results and a
// log line; nothing here raises for a bad fetch.
type SleeperService struct {
	client UpstreamClient
	memory *cache.Cache
	chains *repository.LeagueChainRepository
	logger zerolog.Logger
}

func NewSleeperService(client UpstreamClient, memory *cache.Cache, chains *repository.LeagueChainRepository, logger zerolog.Logger) *SleeperService {
	return &SleeperService{client: client, memory: memory, chains: chains, logger: logger}
}

func (s *SleeperService) League(ctx context.Context, leagueID string) *api.League {
	league, err := s.client.GetLeague(ctx, leagueID)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("failed to fetch league")
		return nil
	}
	return league
}

func (s *SleeperService) Rosters(ctx context.Context, leagueID string) []api.Roster {
	rosters, err := s.client.GetRosters(ctx, leagueID)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("failed to fetch rosters")
		return nil
	}
	return rosters
}

func (s *SleeperService) Users(ctx context.Context, leagueID string) []api.User {
	users, err := s.client.GetUsers(ctx, leagueID)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("failed to fetch users")
		return nil
	}
	return users
}

func (s *SleeperService) Drafts(ctx context.Context, leagueID string) []api.Draft {
	drafts, err := s.client.GetDrafts(ctx, leagueID)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("failed to fetch drafts")
		return nil
	}
	return drafts
}

func (s *SleeperService) DraftPicks(ctx context.Context, draftID string) []api.DraftPick {
	picks, err := s.client.GetDraftPicks(ctx, draftID)
	if err != nil {
		s.logger.Warn().Err(err).Str("draft_id", draftID).Msg("failed to fetch draft picks")
		return nil
	}
	return picks
}

func (s *SleeperService) Transactions(ctx context.Context, leagueID string, round int) []api.Transaction {
	transactions, err := s.client.GetTransactions(ctx, leagueID, round)
	if err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Int("round", round).Msg("failed to fetch transactions")
		return nil
	}
	return transactions
}

// CurrentSeason resolves the active season from upstream state, falling back
// to the wall-clock year when the state endpoint is unavailable.
func (s *SleeperService) CurrentSeason(ctx context.Context) int {
	state, err := s.client.GetSeasonState(ctx)
	if err == nil {
		if year := state.SeasonYear(); year > 0 {
			return year
		}
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch season state, using wall-clock year")
	}
	return time.Now().Year()
}

func (s *SleeperService) AllPlayers(ctx context.Context) map[string]api.Player {
	players, err := s.client.GetAllPlayers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch player directory")
		return nil
	}
	return players
}

func (s *SleeperService) SinglePlayer(ctx context.Context, playerID string) *api.Player {
	player, err := s.client.GetPlayer(ctx, playerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("player_id", playerID).Msg("failed to fetch player")
		return nil
	}
	return player
}

// ResolveChain returns the ordered chain [current, ..., original] containing
// the given league id. The persisted record is consulted first so any member
// of a known chain resolves to the same record without a network walk; on a
// miss the previous-league backlinks are walked upstream, extended with any
// overlapping stored history, and the result is persisted keyed by the
// chain's original id. A refresh can only grow the stored record.
func (s *SleeperService) ResolveChain(ctx context.Context, leagueID string) []string {
	cacheKey := "league_chain:" + leagueID
	if cached, ok := s.memory.Get(cacheKey); ok {
		return cached.([]string)
	}

	if stored := s.storedChain(ctx, leagueID); stored != nil {
		s.memory.Set(cacheKey, stored.LeagueIDs, constants.ChainCacheTTL)
		return stored.LeagueIDs
	}

	chain := s.walkChain(ctx, leagueID)
	chain = s.extendFromStore(ctx, chain)

	s.persistChain(ctx, chain)
	s.memory.Set(cacheKey, chain, constants.ChainCacheTTL)
	s.logger.Info().Str("league_id", leagueID).Strs("chain", chain).Msg("league chain resolved")
	return chain
}

func (s *SleeperService) storedChain(ctx context.Context, leagueID string) *domain.LeagueChain {
	if s.chains == nil {
		return nil
	}
	stored, err := s.chains.GetByMember(ctx, leagueID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("league chain lookup failed")
		}
		return nil
	}
	return stored
}

// walkChain follows previous-league backlinks upstream. The walk is capped
// so a cyclic backlink cannot hang it; a mid-walk fetch failure truncates
// the chain rather than failing.
func (s *SleeperService) walkChain(ctx context.Context, leagueID string) []string {
	chain := []string{leagueID}
	currentID := leagueID
	for hop := 0; hop < constants.MaxChainHops; hop++ {
		league, err := s.client.GetLeague(ctx, currentID)
		if err != nil {
			s.logger.Warn().Err(err).Str("league_id", currentID).Msg("chain walk stopped on fetch failure")
			break
		}
		if league.PreviousLeagueID == "" {
			break
		}
		chain = append(chain, league.PreviousLeagueID)
		currentID = league.PreviousLeagueID
	}
	return chain
}

// extendFromStore appends stored history the walk did not reach. A walk from
// a new season's head that truncated early still lands on a league whose
// older members are on record; without the extension, persisting the walked
// chain would shorten the stored record.
func (s *SleeperService) extendFromStore(ctx context.Context, chain []string) []string {
	stored := s.storedChain(ctx, chain[len(chain)-1])
	if stored == nil {
		return chain
	}
	known := make(map[string]bool, len(chain))
	for _, id := range chain {
		known[id] = true
	}
	for _, id := range stored.LeagueIDs {
		if !known[id] {
			chain = append(chain, id)
		}
	}
	return chain
}

func (s *SleeperService) persistChain(ctx context.Context, chain []string) {
	if s.chains == nil || len(chain) == 0 {
		return
	}
	record := &domain.LeagueChain{
		OriginalLeagueID: chain[len(chain)-1],
		CurrentLeagueID:  chain[0],
		LeagueIDs:        chain,
	}
	if err := s.chains.Upsert(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("original_league_id", record.OriginalLeagueID).Msg("failed to persist league chain")
	}
}
