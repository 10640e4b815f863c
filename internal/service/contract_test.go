package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/cache"
	"dynasty-tracker/internal/config"
	"dynasty-tracker/internal/database"
	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// testStack wires the full service stack over a temp sqlite database and a
// fake upstream.
type testStack struct {
	sleeper      *SleeperService
	costMap      *CostMapService
	leagueConfig *LeagueConfigService
	allowances   *AllowanceService
	contracts    *ContractService
	rosters      *RosterService
	chains       *repository.LeagueChainRepository
	contractRepo *repository.ContractRepository
	actions      *repository.ActionRepository
	configs      *repository.LeagueConfigRepository
	players      *repository.LocalPlayerRepository
}

func newTestStack(t *testing.T, fake *fakeUpstream) *testStack {
	t.Helper()
	nop := zerolog.Nop()

	db, err := database.New(&config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}, nop)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mem := cache.New()
	chains := repository.NewLeagueChainRepository(db, nop)
	contracts := repository.NewContractRepository(db, nop)
	actions := repository.NewActionRepository(db, nop)
	configs := repository.NewLeagueConfigRepository(db, nop)
	players := repository.NewLocalPlayerRepository(db, nop)

	sleeper := NewSleeperService(fake, mem, chains, nop)
	costMap := NewCostMapService(sleeper, mem, nop)
	leagueConfig := NewLeagueConfigService(configs, sleeper, nop)
	allowances := NewAllowanceService(actions, nop)
	contractSvc := NewContractService(sleeper, costMap, leagueConfig, allowances, contracts, actions, nop)
	rosters := NewRosterService(sleeper, costMap, contractSvc, allowances, leagueConfig, players, mem, nop)

	return &testStack{
		sleeper:      sleeper,
		costMap:      costMap,
		leagueConfig: leagueConfig,
		allowances:   allowances,
		contracts:    contractSvc,
		rosters:      rosters,
		chains:       chains,
		contractRepo: contracts,
		actions:      actions,
		configs:      configs,
		players:      players,
	}
}

// singleLeague is a one-season league with two rostered players, one drafted
// for 42.
func singleLeague() *fakeUpstream {
	return &fakeUpstream{
		leagues: map[string]*api.League{
			"L1": {LeagueID: "L1", Created: 1756000000000},
		},
		rosters: map[string][]api.Roster{
			"L1": {{RosterID: 1, OwnerID: "u1", Players: []string{"100", "200"}}},
		},
		users: map[string][]api.User{
			"L1": {{UserID: "u1", DisplayName: "Team One", IsOwner: true}},
		},
		drafts: map[string][]api.Draft{
			"L1": {{DraftID: "D1", Created: 1000}},
		},
		picks: map[string][]api.DraftPick{
			"D1": {{PlayerID: "100", Metadata: api.PickMetadata{Amount: "42"}}},
		},
		state: &api.SeasonState{LeagueSeason: "2025"},
		players: map[string]api.Player{
			"100": {PlayerID: "100", FirstName: "Justin", LastName: "Jefferson", Position: "WR", Team: "MIN"},
		},
	}
}

func storeConfig(t *testing.T, stack *testStack, cfg domain.LeagueConfig) {
	t.Helper()
	if _, err := stack.leagueConfig.Set(context.Background(), "L1", cfg); err != nil {
		t.Fatalf("storing league config: %v", err)
	}
}

func TestAddContract(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()

	info, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 2)
	if err != nil {
		t.Fatalf("AddContract: %v", err)
	}
	if info.TeamID != 1 {
		t.Errorf("TeamID = %d, want roster-resolved 1", info.TeamID)
	}
	if info.Amount != 42 {
		t.Errorf("Amount = %d, want draft cost 42", info.Amount)
	}
	if info.StartSeason != 2025 || info.EndSeason != 2026 {
		t.Errorf("seasons = %d..%d, want 2025..2026", info.StartSeason, info.EndSeason)
	}
	if !info.IsActive {
		t.Error("new contract should be active")
	}
}

func TestAddContractRejectsSecondActive(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 2); err != nil {
		t.Fatalf("first AddContract: %v", err)
	}
	_, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 1)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second AddContract err = %v, want ErrConflict", err)
	}
}

func TestAddContractUnrosteredPlayer(t *testing.T) {
	stack := newTestStack(t, singleLeague())

	_, err := stack.contracts.AddContract(context.Background(), "L1", "999", 0, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddContractRejectsZeroLength(t *testing.T) {
	stack := newTestStack(t, singleLeague())

	_, err := stack.contracts.AddContract(context.Background(), "L1", "100", 0, 0)
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestAmnestyDeactivatesContract(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	storeConfig(t, stack, domain.LeagueConfig{MoneyPerTeam: 200, AmnestyAllowed: 1, RFAAllowed: 1, ExtensionAllowed: 1, RolloverEvery: 1})

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 3); err != nil {
		t.Fatalf("AddContract: %v", err)
	}

	action, err := stack.contracts.ApplyAction(ctx, domain.ActionAmnesty, "L1", "100", 0, 0)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if action.Season != 2025 || action.TeamID != 1 {
		t.Errorf("action season/team = %d/%d, want 2025/1", action.Season, action.TeamID)
	}

	active, err := stack.contracts.Contracts(ctx, "L1", "100", true)
	if err != nil {
		t.Fatalf("Contracts: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active contracts after amnesty = %d, want 0", len(active))
	}

	// The amnestied contract no longer accepts actions.
	_, err = stack.contracts.ApplyAction(ctx, domain.ActionAmnesty, "L1", "100", 0, 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second amnesty err = %v, want ErrNotFound", err)
	}
}

func TestAllowanceExhaustion(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	storeConfig(t, stack, domain.LeagueConfig{MoneyPerTeam: 200, AmnestyAllowed: 1, RolloverEvery: 1})

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 3); err != nil {
		t.Fatalf("AddContract 100: %v", err)
	}
	if _, err := stack.contracts.AddContract(ctx, "L1", "200", 0, 3); err != nil {
		t.Fatalf("AddContract 200: %v", err)
	}

	if _, err := stack.contracts.ApplyAction(ctx, domain.ActionAmnesty, "L1", "100", 0, 0); err != nil {
		t.Fatalf("first amnesty: %v", err)
	}
	_, err := stack.contracts.ApplyAction(ctx, domain.ActionAmnesty, "L1", "200", 0, 0)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("exhausted amnesty err = %v, want ErrConflict", err)
	}
}

func TestExtensionStretchesContract(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	storeConfig(t, stack, domain.LeagueConfig{MoneyPerTeam: 200, ExtensionAllowed: 1, ExtensionLength: 2, RolloverEvery: 1})

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 1); err != nil {
		t.Fatalf("AddContract: %v", err)
	}

	action, err := stack.contracts.ApplyAction(ctx, domain.ActionExtension, "L1", "100", 0, 0)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if action.Length != 2 {
		t.Fatalf("extension length = %d, want configured default 2", action.Length)
	}

	history, err := stack.contracts.History(ctx, "L1", "100")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history.Contracts) != 1 || len(history.Extensions) != 1 {
		t.Fatalf("history = %d contracts / %d extensions, want 1/1", len(history.Contracts), len(history.Extensions))
	}
	if got := history.Contracts[0].EndSeason; got != 2027 {
		t.Fatalf("extended EndSeason = %d, want 2027", got)
	}
}

func TestDuplicateTagRejected(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	storeConfig(t, stack, domain.LeagueConfig{MoneyPerTeam: 200, RFAAllowed: 3, RolloverEvery: 1})

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 2); err != nil {
		t.Fatalf("AddContract: %v", err)
	}
	if _, err := stack.contracts.ApplyAction(ctx, domain.ActionRFA, "L1", "100", 0, 0); err != nil {
		t.Fatalf("first RFA: %v", err)
	}
	_, err := stack.contracts.ApplyAction(ctx, domain.ActionRFA, "L1", "100", 0, 0)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate RFA err = %v, want ErrConflict", err)
	}
}

func TestRevokeActionRestoresAllowance(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	storeConfig(t, stack, domain.LeagueConfig{MoneyPerTeam: 200, RFAAllowed: 1, RolloverEvery: 1})

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 2); err != nil {
		t.Fatalf("AddContract: %v", err)
	}
	if _, err := stack.contracts.ApplyAction(ctx, domain.ActionRFA, "L1", "100", 0, 0); err != nil {
		t.Fatalf("RFA: %v", err)
	}

	cfg := stack.leagueConfig.Resolve(ctx, []string{"L1"})
	left, err := stack.allowances.Remaining(ctx, []string{"L1"}, 2025, cfg, 1, domain.ActionRFA)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if left != 0 {
		t.Fatalf("RFA left after tag = %d, want 0", left)
	}

	if err := stack.contracts.RevokeAction(ctx, domain.ActionRFA, "L1", "100"); err != nil {
		t.Fatalf("RevokeAction: %v", err)
	}
	left, err = stack.allowances.Remaining(ctx, []string{"L1"}, 2025, cfg, 1, domain.ActionRFA)
	if err != nil {
		t.Fatalf("Remaining after revoke: %v", err)
	}
	if left != 1 {
		t.Fatalf("RFA left after revoke = %d, want 1", left)
	}

	if err := stack.contracts.RevokeAction(ctx, domain.ActionRFA, "L1", "100"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second revoke err = %v, want ErrNotFound", err)
	}
}

func TestApplyActionWithoutContract(t *testing.T) {
	stack := newTestStack(t, singleLeague())

	_, err := stack.contracts.ApplyAction(context.Background(), domain.ActionAmnesty, "L1", "100", 0, 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveChainIdempotentAcrossMembers(t *testing.T) {
	stack := newTestStack(t, threeSeasonChain())
	ctx := context.Background()

	full := stack.sleeper.ResolveChain(ctx, "L2026")
	fromMember := stack.sleeper.ResolveChain(ctx, "L2025")

	if len(fromMember) != len(full) {
		t.Fatalf("member resolve = %v, want the head's chain %v", fromMember, full)
	}
	for i := range full {
		if fromMember[i] != full[i] {
			t.Fatalf("member resolve = %v, want the head's chain %v", fromMember, full)
		}
	}

	// The stored record survives the member resolve: the head still looks up.
	stored, err := stack.chains.GetByMember(ctx, "L2026")
	if err != nil {
		t.Fatalf("head lookup after member resolve: %v", err)
	}
	if stored.CurrentLeagueID != "L2026" || len(stored.LeagueIDs) != 3 {
		t.Fatalf("stored record = %+v, want full 3-league chain headed by L2026", stored)
	}
}

func TestResolveChainRefreshExtendsStoredRecord(t *testing.T) {
	stack := newTestStack(t, threeSeasonChain())
	ctx := context.Background()

	// The original league is resolved first, before its later seasons are
	// known locally.
	if short := stack.sleeper.ResolveChain(ctx, "L2024"); len(short) != 1 {
		t.Fatalf("original-only resolve = %v, want [L2024]", short)
	}

	chain := stack.sleeper.ResolveChain(ctx, "L2026")
	if len(chain) != 3 {
		t.Fatalf("refreshed chain = %v, want 3 leagues", chain)
	}

	stored, err := stack.chains.GetByMember(ctx, "L2025")
	if err != nil {
		t.Fatalf("GetByMember after refresh: %v", err)
	}
	if stored.CurrentLeagueID != "L2026" || len(stored.LeagueIDs) != 3 {
		t.Fatalf("stored record = %+v, want refreshed to the full chain", stored)
	}
}

func TestResolveChainNeverShortensStoredRecord(t *testing.T) {
	fake := threeSeasonChain()
	stack := newTestStack(t, fake)
	ctx := context.Background()

	stack.sleeper.ResolveChain(ctx, "L2026")

	// A new season appears while the middle league's record is unreachable,
	// so the walk from the new head truncates early.
	fake.leagues["L2027"] = &api.League{LeagueID: "L2027", PreviousLeagueID: "L2026"}
	delete(fake.leagues, "L2025")

	chain := stack.sleeper.ResolveChain(ctx, "L2027")
	want := []string{"L2027", "L2026", "L2025", "L2024"}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("chain = %v, want %v", chain, want)
		}
	}

	stored, err := stack.chains.GetByMember(ctx, "L2024")
	if err != nil {
		t.Fatalf("GetByMember after refresh: %v", err)
	}
	if stored.CurrentLeagueID != "L2027" || len(stored.LeagueIDs) != 4 {
		t.Fatalf("stored record = %+v, want grown 4-league chain headed by L2027", stored)
	}
}

func TestContractRecordsSigningLeague(t *testing.T) {
	fake := threeSeasonChain()
	fake.rosters = map[string][]api.Roster{
		"L2026": {{RosterID: 1, OwnerID: "u1", Players: []string{"100"}}},
	}
	stack := newTestStack(t, fake)
	ctx := context.Background()

	if _, err := stack.leagueConfig.Set(ctx, "L2026", domain.LeagueConfig{MoneyPerTeam: 200, AmnestyAllowed: 1, RolloverEvery: 1}); err != nil {
		t.Fatalf("storing league config: %v", err)
	}

	info, err := stack.contracts.AddContract(ctx, "L2026", "100", 0, 2)
	if err != nil {
		t.Fatalf("AddContract: %v", err)
	}
	if info.LeagueID != "L2026" {
		t.Fatalf("contract league = %s, want signing league L2026", info.LeagueID)
	}

	action, err := stack.contracts.ApplyAction(ctx, domain.ActionAmnesty, "L2026", "100", 0, 0)
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if action.LeagueID != "L2026" {
		t.Fatalf("action league = %s, want signing league L2026", action.LeagueID)
	}

	// Queries through older chain members still see the record.
	infos, err := stack.contracts.Contracts(ctx, "L2024", "100", false)
	if err != nil {
		t.Fatalf("Contracts via original league: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("contracts via original league = %d, want 1", len(infos))
	}
}

func TestChainPersistedAcrossResolution(t *testing.T) {
	stack := newTestStack(t, threeSeasonChain())
	ctx := context.Background()

	stack.sleeper.ResolveChain(ctx, "L2026")

	// Any chain member resolves the stored record.
	stored, err := stack.chains.GetByMember(ctx, "L2025")
	if err != nil {
		t.Fatalf("GetByMember: %v", err)
	}
	if stored.OriginalLeagueID != "L2024" || stored.CurrentLeagueID != "L2026" {
		t.Fatalf("stored chain = %s..%s, want L2026..L2024", stored.CurrentLeagueID, stored.OriginalLeagueID)
	}
	if len(stored.LeagueIDs) != 3 {
		t.Fatalf("stored chain ids = %v, want 3 entries", stored.LeagueIDs)
	}
}

func TestAllowanceSnapshotWritten(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	cfg := domain.LeagueConfig{AmnestyAllowed: 2, RFAAllowed: 1, ExtensionAllowed: 3, RolloverEvery: 1}

	if _, err := stack.allowances.Counters(ctx, []string{"L1"}, 2025, cfg, []int{1}); err != nil {
		t.Fatalf("Counters: %v", err)
	}

	snapshot, err := stack.actions.GetAllowanceSnapshot(ctx, "L1", 1)
	if err != nil {
		t.Fatalf("GetAllowanceSnapshot: %v", err)
	}
	if snapshot.AmnestyLeft != 2 || snapshot.RFALeft != 1 || snapshot.ExtensionLeft != 3 {
		t.Fatalf("snapshot = %+v, want 2/1/3", snapshot)
	}
}
