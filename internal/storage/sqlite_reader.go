package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// ReaderOption configures a SqliteRadialReader with filtering criteria.
type ReaderOption func(*SqliteRadialReader)

// WithRangeCells keeps radials whose range cell lies within [minCell, maxCell].
func WithRangeCells(minCell, maxCell float64) ReaderOption {
	return func(r *SqliteRadialReader) {
		r.minCell, r.maxCell = minCell, maxCell
	}
}

// WithBearings keeps radials whose bearing lies within [minBearing, maxBearing].
func WithBearings(minBearing, maxBearing float64) ReaderOption {
	return func(r *SqliteRadialReader) {
		r.minBearing, r.maxBearing = minBearing, maxBearing
	}
}

// SqliteRadialReader iterates over the stored radials of a run. Rows with a
// NULL range cell or bearing are never filtered out.
type SqliteRadialReader struct {
	db    *sql.DB
	runID int64

	minCell, maxCell       float64
	minBearing, maxBearing float64

	current *Radial
	rows    *sql.Rows
	err     error
}

func newSqliteRadialReader(ctx context.Context, db *sql.DB, runID int64, opts ...ReaderOption) (*SqliteRadialReader, error) {
	r := &SqliteRadialReader{
		db:         db,
		runID:      runID,
		minCell:    math.Inf(-1),
		maxCell:    math.Inf(1),
		minBearing: math.Inf(-1),
		maxBearing: math.Inf(1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteRadialReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.runID <= 0 {
		return errors.New("run ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "checking filters", fn: r.checkFilters},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *SqliteRadialReader) checkFilters(context.Context) error {
	if r.minCell > r.maxCell {
		return fmt.Errorf("min range cell %v is greater than max range cell %v", r.minCell, r.maxCell)
	}
	if r.minBearing > r.maxBearing {
		return fmt.Errorf("min bearing %v is greater than max bearing %v", r.minBearing, r.maxBearing)
	}
	return nil
}

func (r *SqliteRadialReader) initQuery(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, selectRadialsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	r.rows, err = stmt.QueryContext(ctx, r.runID, r.minCell, r.maxCell, r.minBearing, r.maxBearing)
	return err
}

// Next advances to the next radial, returning false at the end of the data
// or on error.
func (r *SqliteRadialReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		r.err = ctx.Err()
		return false
	default:
	}

	if !r.rows.Next() {
		return false
	}

	var d radialData
	r.err = r.rows.Scan(
		&d.Longitude,
		&d.Latitude,
		&d.U,
		&d.V,
		&d.Flag,
		&d.StdDev,
		&d.Max,
		&d.Min,
		&d.Count,
		&d.SpectraCount,
		&d.X,
		&d.Y,
		&d.Range,
		&d.Bearing,
		&d.Velocity,
		&d.Heading,
		&d.RangeCell,
	)
	if r.err != nil {
		r.err = fmt.Errorf("scanning radial: %w", r.err)
		return false
	}

	radial := fromRadialData(&d)
	r.current = &radial
	return true
}

// Current returns the radial read by the last call to Next.
func (r *SqliteRadialReader) Current() *Radial {
	return r.current
}

// Error returns the error that stopped the iteration, if any.
func (r *SqliteRadialReader) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

// Close releases the underlying rows.
func (r *SqliteRadialReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.current = nil
		r.rows = nil
		return err
	}
	return nil
}
