package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/radialshort"
)

// DefaultMaxBatchSize is the number of radials written by a single INSERT statement.
const DefaultMaxBatchSize = 100

// ErrNoData indicates that no run or radial data exists for the given parameters.
var ErrNoData = errors.New("no data available")

var _ Store = (*SqliteStore)(nil)

// StoreOption configures a SqliteStore.
type StoreOption func(*SqliteStore)

// WithMaxBatchSize sets the number of radials per INSERT statement.
// Values below 1 are ignored.
func WithMaxBatchSize(size int) StoreOption {
	return func(s *SqliteStore) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath       string
	maxBatchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened and the schema initialized on first use.
func NewSqliteStore(dbPath string, opts ...StoreOption) *SqliteStore {
	s := SqliteStore{
		dbPath:       dbPath,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateRun(ctx context.Context, run *Run, config any) (runID int64, err error) {
	data, err := toRunData(run, config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	return insertRun(ctx, db, data)
}

// SaveRun records a run together with its radials in a single transaction.
// Nothing is stored if any part fails.
func (s *SqliteStore) SaveRun(ctx context.Context, run *Run, config any, t *lluv.Table) (runID int64, err error) {
	data, err := toRunData(run, config)
	if err != nil {
		return
	}

	cols, err := t.Schema().Indexes(radialshort.Schema.Names()...)
	if err != nil {
		err = fmt.Errorf("resolving radialshort columns: %w", err)
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	if runID, err = insertRun(ctx, tx, data); err != nil {
		return
	}
	if err = s.insertRadials(ctx, tx, runID, t, cols); err != nil {
		return
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing transaction: %w", err)
	}
	return
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRun(ctx context.Context, db execer, data *runData) (runID int64, err error) {
	result, err := db.ExecContext(
		ctx,
		insertRunSQL,
		data.Site,
		data.DataTime,
		data.Sources,
		data.OutputFile,
		data.Policy,
		data.BearingSpread,
		data.QC,
		data.InputRows,
		data.GoodRows,
		data.Cells,
		data.EmptyCells,
		data.Checksum,
		data.Config,
	)
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	runID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting run ID: %w", err)
	}
	return
}

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var data runData
	err := row.Scan(
		&data.ID,
		&data.CreatedAt,
		&data.Site,
		&data.DataTime,
		&data.Sources,
		&data.OutputFile,
		&data.Policy,
		&data.BearingSpread,
		&data.QC,
		&data.InputRows,
		&data.GoodRows,
		&data.Cells,
		&data.EmptyCells,
		&data.Checksum,
		&data.Config,
	)
	if err != nil {
		return nil, err
	}
	return fromRunData(&data)
}

func (s *SqliteStore) Run(ctx context.Context, id int64) (run *Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	run, err = scanRun(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNoData)
	}
	if err != nil {
		err = fmt.Errorf("scanning run: %w", err)
	}
	return
}

func (s *SqliteStore) Runs(ctx context.Context) (runs []*Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var run *Run
		if run, err = scanRun(rows); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		runs = append(runs, run)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreRadials(ctx context.Context, runID int64, t *lluv.Table) (err error) {
	if t.Rows() == 0 {
		return
	}

	cols, err := t.Schema().Indexes(radialshort.Schema.Names()...)
	if err != nil {
		return fmt.Errorf("resolving radialshort columns: %w", err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	if err = s.insertRadials(ctx, tx, runID, t, cols); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertRadials writes the rows of t in batches of at most maxBatchSize rows.
// cols maps the radialshort columns onto t.
func (s *SqliteStore) insertRadials(ctx context.Context, db execer, runID int64, t *lluv.Table, cols []int) error {
	rows := make([]int, t.Rows())
	for i := range rows {
		rows[i] = i
	}

	for batch := range slices.Chunk(rows, s.maxBatchSize) {
		values := make([]any, 0, len(batch)*(len(cols)+2))

		var sb strings.Builder
		sb.WriteString(insertRadialSQL)

		for k, row := range batch {
			values = append(values, runID, row)
			for _, j := range cols {
				values = append(values, toNullFloat(t.At(row, j)))
			}

			if k > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(radialValuesPlaceholder)
		}

		if _, err := db.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting radials: %w", err)
		}
	}
	return nil
}

func (s *SqliteStore) ReadRadials(ctx context.Context, runID int64, opts ...ReaderOption) (t *lluv.Table, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	r, err := newSqliteRadialReader(ctx, db, runID, opts...)
	if err != nil {
		return nil, err
	}
	defer closeWithError(r, &err)

	var radials []Radial
	for r.Next(ctx) {
		radials = append(radials, *r.Current())
	}
	if err = r.Error(); err != nil {
		return nil, fmt.Errorf("reading radials: %w", err)
	}

	if len(radials) == 0 {
		return nil, fmt.Errorf("radials of run %d: %w", runID, ErrNoData)
	}
	return Radials(radials), nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
