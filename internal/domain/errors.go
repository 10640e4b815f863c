package domain

import "errors"

// Ledger mutations surface these as typed rejections; callers are expected
// to re-check state rather than retry blindly.
var (
	// ErrNotFound means a required record (contract, config, action) does
	// not exist for the mutation.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the mutation would violate a lifecycle rule: double
	// signing, duplicate action tag, or exhausted allowance.
	ErrConflict = errors.New("conflict")

	// ErrInvalid means the request itself is malformed, independent of any
	// stored state.
	ErrInvalid = errors.New("invalid request")
)
