// Package store keeps a history of benchmark runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/weiihann/lookupbench/harness"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Store records finished runs and lists them back.
type Store interface {
	Close() error
	SaveRun(ctx context.Context, res *harness.Result) (string, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	RunBlocks(ctx context.Context, runID string) ([]Block, error)
}

// Run is the stored summary of one run.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Elements   int           `json:"elements"`
	Queries    int           `json:"queries"`
	Blocks     int           `json:"blocks"`
	Executed   int           `json:"executed"`
	Seed       int64         `json:"seed"`
	RangeMean  float64       `json:"range_mean"`
	RangeMed   float64       `json:"range_median"`
	MapMean    float64       `json:"map_mean"`
	MapMed     float64       `json:"map_median"`
	T          float64       `json:"t"`
	DF         float64       `json:"df"`
	PTwoTailed float64       `json:"p_two_tailed"`
}

// Block is one stored block record.
type Block struct {
	Block       int     `json:"block"`
	N           int     `json:"n"`
	RangeMean   float64 `json:"range_mean"`
	RangeMedian float64 `json:"range_median"`
	RangeStd    float64 `json:"range_std_sample"`
	MapMean     float64 `json:"map_mean"`
	MapMedian   float64 `json:"map_median"`
	MapStd      float64 `json:"map_std_sample"`
}

type blockJSON struct {
	Block       int      `json:"block"`
	N           int      `json:"n"`
	RangeMean   float64  `json:"range_mean"`
	RangeMedian float64  `json:"range_median"`
	RangeStd    *float64 `json:"range_std_sample"`
	MapMean     float64  `json:"map_mean"`
	MapMedian   float64  `json:"map_median"`
	MapStd      *float64 `json:"map_std_sample"`
}

// MarshalJSON renders an undefined deviation as null.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{
		Block:       b.Block,
		N:           b.N,
		RangeMean:   b.RangeMean,
		RangeMedian: b.RangeMedian,
		RangeStd:    finite(b.RangeStd),
		MapMean:     b.MapMean,
		MapMedian:   b.MapMedian,
		MapStd:      finite(b.MapStd),
	})
}

// UnmarshalJSON reads a null deviation back as NaN.
func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*b = Block{
		Block:       w.Block,
		N:           w.N,
		RangeMean:   w.RangeMean,
		RangeMedian: w.RangeMedian,
		RangeStd:    orNaN(w.RangeStd),
		MapMean:     w.MapMean,
		MapMedian:   w.MapMedian,
		MapStd:      orNaN(w.MapStd),
	}

	return nil
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		elements INTEGER NOT NULL,
		queries INTEGER NOT NULL,
		blocks INTEGER NOT NULL,
		executed INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		range_mean REAL NOT NULL,
		range_median REAL NOT NULL,
		map_mean REAL NOT NULL,
		map_median REAL NOT NULL,
		welch_t REAL NOT NULL,
		welch_df REAL NOT NULL,
		welch_p REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS blocks (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		block INTEGER NOT NULL,
		n INTEGER NOT NULL,
		range_mean REAL NOT NULL,
		range_median REAL NOT NULL,
		range_std REAL,
		map_mean REAL NOT NULL,
		map_median REAL NOT NULL,
		map_std REAL,
		PRIMARY KEY (run_id, block)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores res and its blocks in one transaction and returns the
// new run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, res *harness.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nil result")
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, elapsed_ns, elements, queries, blocks, executed, seed,
			range_mean, range_median, map_mean, map_median,
			welch_t, welch_df, welch_p
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.StartedAt.UnixNano(), int64(res.Elapsed),
		res.Config.Elements, res.Config.Queries, res.Config.Blocks,
		res.Executed(), res.Seed,
		res.Range.Mean, res.Range.Median, res.Map.Mean, res.Map.Median,
		res.Welch.T, res.Welch.DF, res.Welch.PTwoTailed,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocks (
			run_id, block, n,
			range_mean, range_median, range_std,
			map_mean, map_median, map_std
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare block insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range res.Blocks {
		_, err := stmt.ExecContext(ctx,
			id, b.Block, b.N,
			b.Range.Mean, b.Range.Median, nullFloat(b.Range.StdSample),
			b.Map.Mean, b.Map.Median, nullFloat(b.Map.StdSample),
		)
		if err != nil {
			return "", fmt.Errorf("insert block %d: %w", b.Block, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}

	return id, nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, elapsed_ns, elements, queries, blocks, executed, seed,
			range_mean, range_median, map_mean, map_median,
			welch_t, welch_df, welch_p
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			startedAt int64
			elapsed   int64
		)
		if err := rows.Scan(
			&r.ID, &startedAt, &elapsed,
			&r.Elements, &r.Queries, &r.Blocks, &r.Executed, &r.Seed,
			&r.RangeMean, &r.RangeMed, &r.MapMean, &r.MapMed,
			&r.T, &r.DF, &r.PTwoTailed,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt)
		r.Elapsed = time.Duration(elapsed)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// RunBlocks returns the blocks of one run in block order.
func (s *SQLiteStore) RunBlocks(ctx context.Context, runID string) ([]Block, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT block, n, range_mean, range_median, range_std,
			map_mean, map_median, map_std
		FROM blocks WHERE run_id = ? ORDER BY block`, runID)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var (
			b                Block
			rangeStd, mapStd sql.NullFloat64
		)
		if err := rows.Scan(
			&b.Block, &b.N,
			&b.RangeMean, &b.RangeMedian, &rangeStd,
			&b.MapMean, &b.MapMedian, &mapStd,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.RangeStd = fromNull(rangeStd)
		b.MapStd = fromNull(mapStd)
		blocks = append(blocks, b)
	}

	return blocks, rows.Err()
}

// SQLite has no NaN; an undefined deviation is stored as NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
