package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dynasty-tracker/internal/config"
	"dynasty-tracker/internal/database"

	"github.com/rs/zerolog"
)

func testDB(t *testing.T) *UpstreamCacheRepository {
	t.Helper()
	nop := zerolog.Nop()
	db, err := database.New(&config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}, nop)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUpstreamCacheRepository(db, nop)
}

func TestUpstreamCacheRoundTrip(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	url := "https://api.example.com/league/123"

	if _, ok := repo.GetResponse(ctx, url, time.Minute); ok {
		t.Fatal("expected miss before save")
	}

	if err := repo.SaveResponse(ctx, url, []byte(`{"season":"2025"}`)); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}

	body, ok := repo.GetResponse(ctx, url, time.Minute)
	if !ok {
		t.Fatal("expected hit after save")
	}
	if string(body) != `{"season":"2025"}` {
		t.Fatalf("body = %s, want stored payload", body)
	}
}

func TestUpstreamCacheStaleEntryMisses(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	url := "https://api.example.com/state/nfl"

	if err := repo.SaveResponse(ctx, url, []byte(`{}`)); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}

	// A zero TTL makes any stored row stale.
	if _, ok := repo.GetResponse(ctx, url, 0); ok {
		t.Fatal("expected stale entry to miss")
	}
}

func TestUpstreamCacheOverwrite(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	url := "https://api.example.com/league/123/rosters"

	if err := repo.SaveResponse(ctx, url, []byte(`[1]`)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repo.SaveResponse(ctx, url, []byte(`[1,2]`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	body, ok := repo.GetResponse(ctx, url, time.Minute)
	if !ok {
		t.Fatal("expected hit")
	}
	if string(body) != `[1,2]` {
		t.Fatalf("body = %s, want newest payload", body)
	}
}
