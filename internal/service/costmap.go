package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/cache"
	"dynasty-tracker/internal/constants"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CostMapService derives the authoritative acquisition cost per player across
// a league chain. Auction draft picks win over transaction bids, and within
// each source the newest record for a player wins.
type CostMapService struct {
	sleeper *SleeperService
	memory  *cache.Cache
	logger  zerolog.Logger
}

func NewCostMapService(sleeper *SleeperService, memory *cache.Cache, logger zerolog.Logger) *CostMapService {
	return &CostMapService{sleeper: sleeper, memory: memory, logger: logger}
}

type rankedDraft struct {
	draft api.Draft
	rank  int
}

// Build assembles the player -> amount map for the given chain, ordered
// [current, ..., original]. The result is cached per chain.
func (s *CostMapService) Build(ctx context.Context, chain []string) map[string]int {
	if len(chain) == 0 {
		return map[string]int{}
	}

	cacheKey := "cost_map:" + strings.Join(chain, ",")
	if cached, ok := s.memory.Get(cacheKey); ok {
		return cached.(map[string]int)
	}

	drafts := make([]rankedDraft, 0, len(chain))
	for idx, leagueID := range chain {
		// Higher rank means a more recent league in the chain.
		rank := len(chain) - idx
		for _, draft := range s.sleeper.Drafts(ctx, leagueID) {
			drafts = append(drafts, rankedDraft{draft: draft, rank: rank})
		}
	}
	sort.SliceStable(drafts, func(i, j int) bool {
		if drafts[i].draft.SortKey() != drafts[j].draft.SortKey() {
			return drafts[i].draft.SortKey() > drafts[j].draft.SortKey()
		}
		return drafts[i].rank > drafts[j].rank
	})

	pickSets := make([][]api.DraftPick, 0, len(drafts))
	seen := make(map[string]bool, len(drafts))
	for _, ranked := range drafts {
		if ranked.draft.DraftID == "" || seen[ranked.draft.DraftID] {
			continue
		}
		seen[ranked.draft.DraftID] = true
		pickSets = append(pickSets, s.sleeper.DraftPicks(ctx, ranked.draft.DraftID))
	}

	transactions := s.fetchTransactions(ctx, chain[0])

	costMap := BuildCostMap(pickSets, transactions)
	s.memory.Set(cacheKey, costMap, constants.CostMapCacheTTL)
	s.logger.Debug().Int("players", len(costMap)).Int("drafts", len(pickSets)).Msg("cost map built")
	return costMap
}

// fetchTransactions pulls every scoring round for the current league
// concurrently. Individual round failures are absorbed upstream.
func (s *CostMapService) fetchTransactions(ctx context.Context, leagueID string) []api.Transaction {
	var mu sync.Mutex
	all := make([]api.Transaction, 0, 64)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentFetches)
	for round := 0; round < constants.TransactionRounds; round++ {
		round := round
		g.Go(func() error {
			transactions := s.sleeper.Transactions(gctx, leagueID, round)
			if len(transactions) == 0 {
				return nil
			}
			mu.Lock()
			all = append(all, transactions...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return all
}

// BuildCostMap folds ordered pick sets (newest draft first) and transactions
// into a first-seen-wins amount map. Draft picks are applied before
// transaction bids, so an auction price always beats a waiver claim.
func BuildCostMap(pickSets [][]api.DraftPick, transactions []api.Transaction) map[string]int {
	costMap := make(map[string]int)

	for _, picks := range pickSets {
		for _, pick := range picks {
			if pick.PlayerID == "" {
				continue
			}
			if _, ok := costMap[pick.PlayerID]; ok {
				continue
			}
			if amount := pick.Metadata.AmountValue(); amount > 0 {
				costMap[pick.PlayerID] = amount
			}
		}
	}

	ordered := make([]api.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortKey() > ordered[j].SortKey()
	})

	for _, tx := range ordered {
		amount := tx.BidAmount()
		if amount <= 0 {
			continue
		}
		for playerID := range tx.Adds {
			if playerID == "" {
				continue
			}
			if _, ok := costMap[playerID]; ok {
				continue
			}
			costMap[playerID] = amount
		}
	}

	return costMap
}
