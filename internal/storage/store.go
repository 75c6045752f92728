package storage

import (
	"context"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

// Store provides an interface for persisting radialshort processing runs.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateRun records a new processing run and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - run: Run metadata; ID and CreatedAt are assigned by the store
	//   - config: Optional processing configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - runID: Unique identifier for the created run
	//   - error: If run creation fails or context is cancelled
	CreateRun(ctx context.Context, run *Run, config any) (runID int64, err error)

	// SaveRun records a run and stores every row of its radialshort table in a
	// single atomic transaction. Either both are stored or neither is.
	//
	// Returns:
	//   - runID: Unique identifier for the created run
	//   - error: If a column is missing, storage fails or context is cancelled
	SaveRun(ctx context.Context, run *Run, config any, t *lluv.Table) (runID int64, err error)

	// Run retrieves a specific run by its ID.
	//
	// Returns:
	//   - run: Pointer to run data
	//   - error: ErrNoData if the run does not exist, or if retrieval fails
	Run(ctx context.Context, id int64) (run *Run, err error)

	// Runs returns all runs stored in the database ordered by data time.
	Runs(ctx context.Context) (runs []*Run, err error)

	// StoreRadials saves every row of a radialshort table for a run.
	// All rows are stored in a single atomic transaction. NaN values are stored as NULL.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - runID: ID of the run these radials belong to
	//   - t: Table holding at least the radialshort columns, in any order
	//
	// Returns:
	//   - error: If a column is missing, storage fails or context is cancelled
	StoreRadials(ctx context.Context, runID int64, t *lluv.Table) error

	// ReadRadials loads the radials of a run as a radialshort table, in the
	// order they were stored.
	//
	// Returns:
	//   - table: Radialshort table
	//   - error: ErrNoData if the run has no radials matching the options
	ReadRadials(ctx context.Context, runID int64, opts ...ReaderOption) (*lluv.Table, error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}
