package service

import (
	"context"
	"errors"
	"testing"

	"dynasty-tracker/internal/domain"
)

func TestConfigKeyedByOriginalLeague(t *testing.T) {
	stack := newTestStack(t, threeSeasonChain())
	ctx := context.Background()

	stored, err := stack.leagueConfig.Set(ctx, "L2026", domain.LeagueConfig{
		MoneyPerTeam:   260,
		AmnestyAllowed: 2,
		RolloverEvery:  2,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if stored.LeagueID != "L2024" {
		t.Fatalf("stored LeagueID = %s, want chain original L2024", stored.LeagueID)
	}

	// Reads through any season of the league see the same row.
	for _, leagueID := range []string{"L2024", "L2025", "L2026"} {
		cfg, err := stack.leagueConfig.Get(ctx, leagueID)
		if err != nil {
			t.Fatalf("Get(%s): %v", leagueID, err)
		}
		if cfg.MoneyPerTeam != 260 || cfg.AmnestyAllowed != 2 {
			t.Fatalf("Get(%s) = %+v, want stored config", leagueID, cfg)
		}
	}
}

func TestConfigMergeBackfillsFromOlderRows(t *testing.T) {
	stack := newTestStack(t, threeSeasonChain())
	ctx := context.Background()

	// Legacy rows keyed per season-league: the newest overrides money, the
	// older one still supplies the rest of the ruleset.
	if err := stack.configs.Upsert(ctx, &domain.LeagueConfig{
		LeagueID:     "L2026",
		MoneyPerTeam: 300,
	}); err != nil {
		t.Fatalf("seeding new config: %v", err)
	}
	if err := stack.configs.Upsert(ctx, &domain.LeagueConfig{
		LeagueID:         "L2025",
		MoneyPerTeam:     200,
		RFAAllowed:       1,
		ExtensionAllowed: 2,
		ExtensionLength:  1,
		RolloverEvery:    3,
	}); err != nil {
		t.Fatalf("seeding old config: %v", err)
	}

	cfg := stack.leagueConfig.Resolve(ctx, []string{"L2026", "L2025", "L2024"})
	if cfg.MoneyPerTeam != 300 {
		t.Fatalf("MoneyPerTeam = %d, want newest row's 300", cfg.MoneyPerTeam)
	}
	if cfg.RFAAllowed != 1 || cfg.ExtensionAllowed != 2 || cfg.RolloverEvery != 3 {
		t.Fatalf("resolved = %+v, want older ruleset carried forward", cfg)
	}
}

func TestConfigMissing(t *testing.T) {
	stack := newTestStack(t, threeSeasonChain())

	_, err := stack.leagueConfig.Get(context.Background(), "L2026")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
