package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// UpstreamCacheRepository is the durable response-cache tier: raw upstream
// bodies keyed by request URL, surviving process restarts. Read failures
// degrade to a miss so the caller falls through to the network.
type UpstreamCacheRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUpstreamCacheRepository(db *sql.DB, logger zerolog.Logger) *UpstreamCacheRepository {
	return &UpstreamCacheRepository{db: db, logger: logger}
}

func (r *UpstreamCacheRepository) GetResponse(ctx context.Context, url string, ttl time.Duration) ([]byte, bool) {
	var body string
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT response_json, updated_at FROM upstream_cache WHERE url = ?`, url,
	).Scan(&body, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("url", url).Msg("durable cache read failed")
		return nil, false
	}
	if time.Since(updatedAt) > ttl {
		return nil, false
	}
	return []byte(body), true
}

func (r *UpstreamCacheRepository) SaveResponse(ctx context.Context, url string, body []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO upstream_cache (url, response_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (url) DO UPDATE SET response_json = excluded.response_json, updated_at = excluded.updated_at`,
		url, string(body), time.Now())
	return err
}
