package service

import (
	"context"
	"testing"

	"dynasty-tracker/internal/domain"
)

// seedAction writes a contract and a ledger row directly, bypassing the
// service-level checks.
func seedAction(t *testing.T, stack *testStack, kind domain.ActionKind, season int) {
	t.Helper()
	ctx := context.Background()

	contract := &domain.Contract{
		LeagueID:    "L1",
		PlayerID:    "100",
		TeamID:      1,
		Length:      1,
		StartSeason: season,
	}
	if err := stack.contractRepo.Insert(ctx, contract); err != nil {
		t.Fatalf("seeding contract: %v", err)
	}

	err := stack.actions.Insert(ctx, &domain.ContractAction{
		Kind:       kind,
		ContractID: contract.ID,
		LeagueID:   "L1",
		PlayerID:   "100",
		TeamID:     1,
		Season:     season,
	})
	if err != nil {
		t.Fatalf("seeding %s action: %v", kind, err)
	}
}

func TestRemainingCountsOnlyWindowedUsage(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()

	// One use last season, one this season.
	seedAction(t, stack, domain.ActionAmnesty, 2024)
	seedAction(t, stack, domain.ActionAmnesty, 2025)

	cfg := domain.LeagueConfig{AmnestyAllowed: 2, RolloverEvery: 1}
	left, err := stack.allowances.Remaining(ctx, []string{"L1"}, 2025, cfg, 1, domain.ActionAmnesty)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if left != 1 {
		t.Fatalf("yearly window left = %d, want 1 (2024 use rolled off)", left)
	}

	cfg.RolloverEvery = 2
	left, err = stack.allowances.Remaining(ctx, []string{"L1"}, 2025, cfg, 1, domain.ActionAmnesty)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if left != 0 {
		t.Fatalf("two-season window left = %d, want 0 (both uses count)", left)
	}
}

func TestCountersPerTeam(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()

	seedAction(t, stack, domain.ActionRFA, 2025)

	cfg := domain.LeagueConfig{AmnestyAllowed: 1, RFAAllowed: 2, ExtensionAllowed: 1, RolloverEvery: 1}
	counters, err := stack.allowances.Counters(ctx, []string{"L1"}, 2025, cfg, []int{1, 2})
	if err != nil {
		t.Fatalf("Counters: %v", err)
	}

	if c := counters[1]; c.RFALeft != 1 || c.AmnestyLeft != 1 || c.ExtensionLeft != 1 {
		t.Errorf("team 1 counters = %+v, want RFA 1 after one use", c)
	}
	if c := counters[2]; c.RFALeft != 2 {
		t.Errorf("team 2 counters = %+v, want untouched RFA 2", c)
	}
}
