package constants

import "time"

// In-process cache TTLs per upstream resource class. The player directory
// changes roughly daily; rosters and transactions change within minutes
// during the season.
const (
	PlayerDirectoryTTL = 24 * time.Hour
	RosterTTL          = 2 * time.Minute
	TransactionTTL     = 1 * time.Minute
	DraftTTL           = 30 * time.Minute
	LeagueTTL          = 5 * time.Minute
	DefaultTTL         = 5 * time.Minute

	ChainCacheTTL    = 10 * time.Minute
	CostMapCacheTTL  = 10 * time.Minute
	ResponseCacheTTL = 30 * time.Second
)

const (
	// MaxChainHops bounds the previous-league walk so a cyclic or malformed
	// backlink cannot hang resolution.
	MaxChainHops = 20

	// TransactionRounds is how many weekly transaction rounds are scanned
	// when deriving waiver costs (rounds 0..TransactionRounds-1).
	TransactionRounds = 18

	// MaxConcurrentFetches caps parallel upstream requests per operation.
	MaxConcurrentFetches = 6
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)
