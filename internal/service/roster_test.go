package service

import (
	"context"
	"testing"

	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/domain"
)

func findPlayer(team domain.TeamRoster, playerID string) *domain.RosterPlayer {
	for i := range team.Players {
		if team.Players[i].PlayerID == playerID {
			return &team.Players[i]
		}
	}
	return nil
}

func TestGetRosterResponse(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()
	storeConfig(t, stack, domain.LeagueConfig{MoneyPerTeam: 200, AmnestyAllowed: 1, RFAAllowed: 1, ExtensionAllowed: 1, RolloverEvery: 1})

	if _, err := stack.contracts.AddContract(ctx, "L1", "100", 0, 3); err != nil {
		t.Fatalf("AddContract: %v", err)
	}

	response, err := stack.rosters.GetRosterResponse(ctx, "L1", "u1")
	if err != nil {
		t.Fatalf("GetRosterResponse: %v", err)
	}

	if response.CurrentSeason != 2025 {
		t.Errorf("CurrentSeason = %d, want 2025", response.CurrentSeason)
	}
	if response.OriginalLeagueID != "L1" || response.ResolvedLeagueID != "L1" {
		t.Errorf("league ids = %s/%s, want L1/L1", response.ResolvedLeagueID, response.OriginalLeagueID)
	}
	if len(response.TeamInfo) != 1 {
		t.Fatalf("teams = %d, want 1", len(response.TeamInfo))
	}

	team := response.TeamInfo[0]
	if team.DisplayName != "Team One" || !team.IsOwner {
		t.Errorf("team = %q owner:%v, want Team One / commissioner", team.DisplayName, team.IsOwner)
	}
	if team.Contracts != 1 {
		t.Errorf("active contracts = %d, want 1", team.Contracts)
	}
	if team.AmnestyLeft != 1 || team.RFALeft != 1 || team.ExtensionLeft != 1 {
		t.Errorf("allowances = %d/%d/%d, want 1/1/1", team.AmnestyLeft, team.RFALeft, team.ExtensionLeft)
	}
	if team.TotalAmount != 42 {
		t.Errorf("TotalAmount = %d, want drafted 42", team.TotalAmount)
	}

	// Player 100 resolves through the upstream straggler lookup and carries
	// contract enrichment.
	jefferson := findPlayer(team, "100")
	if jefferson == nil {
		t.Fatal("player 100 missing from roster")
	}
	if jefferson.LastName != "Jefferson" || jefferson.Position != "WR" {
		t.Errorf("player 100 = %s %s %s, want Justin Jefferson WR", jefferson.FirstName, jefferson.LastName, jefferson.Position)
	}
	if jefferson.Amount != 42 || jefferson.ContractYears != 3 {
		t.Errorf("player 100 amount/years = %d/%d, want 42/3", jefferson.Amount, jefferson.ContractYears)
	}

	// Player 200 is unknown upstream and falls back to a placeholder.
	unknown := findPlayer(team, "200")
	if unknown == nil {
		t.Fatal("player 200 missing from roster")
	}
	if unknown.FirstName != "Unknown" {
		t.Errorf("player 200 first name = %q, want placeholder", unknown.FirstName)
	}
}

func TestGetRosterResponseSkipsOrphanRoster(t *testing.T) {
	fake := singleLeague()
	fake.rosters["L1"] = append(fake.rosters["L1"], api.Roster{RosterID: 9})
	stack := newTestStack(t, fake)

	response, err := stack.rosters.GetRosterResponse(context.Background(), "L1", "u1")
	if err != nil {
		t.Fatalf("GetRosterResponse: %v", err)
	}
	if len(response.TeamInfo) != 1 {
		t.Fatalf("teams = %d, want ownerless roster skipped", len(response.TeamInfo))
	}
}

func TestGetRosterResponseCached(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()

	first, err := stack.rosters.GetRosterResponse(ctx, "L1", "u1")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := stack.rosters.GetRosterResponse(ctx, "L1", "u1")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if first != second {
		t.Fatal("second read should return the cached response")
	}
}

func TestSyncPlayerDirectory(t *testing.T) {
	stack := newTestStack(t, singleLeague())
	ctx := context.Background()

	if err := stack.rosters.SyncPlayerDirectory(ctx); err != nil {
		t.Fatalf("SyncPlayerDirectory: %v", err)
	}

	local, err := stack.players.Get(ctx, "100")
	if err != nil {
		t.Fatalf("local lookup after sync: %v", err)
	}
	if local.LastName != "Jefferson" || local.NFLTeam != "MIN" {
		t.Fatalf("synced player = %+v, want Jefferson/MIN", local)
	}
}
