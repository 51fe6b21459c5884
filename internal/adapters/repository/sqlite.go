package repository

import (
	"context"
	"database/sql"
	"iter"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/metrics"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteStore persists assessments in a single SQLite file.
//
// The pool is capped at one connection so appends serialize on the database
// and AUTOINCREMENT ids follow commit order.
type SQLiteStore struct {
	db   *sql.DB
	opts options

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, persistErr("open", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, persistErr("open", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, opts: o, stopChan: make(chan struct{})}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, persistErr("migrate", err)
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.opts.metricsInterval, s.Count)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = FULL;`,
		`CREATE TABLE IF NOT EXISTS assessments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at_ms INTEGER NOT NULL,
			risk_score INTEGER NOT NULL,
			risk_level TEXT NOT NULL,
			pain_location TEXT NOT NULL,
			input_json TEXT NOT NULL,
			result_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at_ms);`,
		`CREATE TABLE IF NOT EXISTS usage_counters (
			mode TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append implements Store.Append. The insert runs in a transaction so a
// record is either fully written or absent.
func (s *SQLiteStore) Append(ctx context.Context, in model.AssessmentInput, res model.AssessmentResult) (rec model.AssessmentRecord, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryAppendLatency(DriverSQLite, msSince(start))
		if err != nil {
			metrics.RecordErrorByComponent("repository", "append")
		}
	}()

	enc, err := encodeRecord(in, res)
	if err != nil {
		return rec, persistErr("append", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, persistErr("append", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	createdAt := s.opts.now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO assessments (created_at_ms, risk_score, risk_level, pain_location, input_json, result_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		createdAt.UnixMilli(),
		res.RiskScore,
		string(res.RiskLevel),
		string(in.PainLocation),
		string(enc.input),
		string(enc.result),
	)
	if err != nil {
		return rec, persistErr("append", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return rec, persistErr("append", err)
	}
	if err = tx.Commit(); err != nil {
		return rec, persistErr("append", err)
	}

	return model.AssessmentRecord{ID: id, CreatedAt: createdAt, Input: in, Result: cloneResult(res)}, nil
}

// ListRecent implements Store.ListRecent.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]model.AssessmentRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(DriverSQLite, "list_recent", msSince(start)) }()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at_ms, input_json, result_json FROM assessments ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, persistErr("list_recent", err)
	}
	defer rows.Close()

	out := make([]model.AssessmentRecord, 0, limit)
	for rows.Next() {
		rec, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, persistErr("list_recent", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list_recent", err)
	}
	return out, nil
}

// Scan implements Store.Scan. Each range over the sequence runs a fresh query
// that holds the only connection until the loop ends, so the loop body must not
// call back into the store.
func (s *SQLiteStore) Scan(ctx context.Context, since, until time.Time) iter.Seq2[model.AssessmentRecord, error] {
	return func(yield func(model.AssessmentRecord, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordRepositoryQueryLatency(DriverSQLite, "scan", msSince(start)) }()

		lo, hi := windowMillis(since, until)
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, created_at_ms, input_json, result_json FROM assessments
			 WHERE created_at_ms >= ? AND created_at_ms < ?
			 ORDER BY created_at_ms ASC, id ASC`, lo, hi)
		if err != nil {
			yield(model.AssessmentRecord{}, persistErr("scan", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanSQLiteRow(rows)
			if err != nil {
				yield(model.AssessmentRecord{}, persistErr("scan", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.AssessmentRecord{}, persistErr("scan", err))
		}
	}
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n); err != nil {
		return 0, persistErr("count", err)
	}
	return n, nil
}

// LoadUsage implements UsageStore.LoadUsage.
func (s *SQLiteStore) LoadUsage(ctx context.Context) (map[model.CoachingMode]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mode, count FROM usage_counters`)
	if err != nil {
		return nil, persistErr("load_usage", err)
	}
	defer rows.Close()

	out := make(map[model.CoachingMode]int64, 2)
	for rows.Next() {
		var (
			mode  string
			count int64
		)
		if err := rows.Scan(&mode, &count); err != nil {
			return nil, persistErr("load_usage", err)
		}
		out[model.CoachingMode(mode)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("load_usage", err)
	}
	return out, nil
}

// IncrementUsage implements UsageStore.IncrementUsage.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, mode model.CoachingMode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_counters (mode, count) VALUES (?, 1)
		 ON CONFLICT(mode) DO UPDATE SET count = count + 1`, string(mode))
	return persistErr("increment_usage", err)
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRow(row rowScanner) (model.AssessmentRecord, error) {
	var (
		rec             model.AssessmentRecord
		createdMs       int64
		inJSON, resJSON string
	)
	if err := row.Scan(&rec.ID, &createdMs, &inJSON, &resJSON); err != nil {
		return rec, err
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	if err := decodeRecord(&rec, []byte(inJSON), []byte(resJSON)); err != nil {
		return rec, err
	}
	return rec, nil
}

// windowMillis maps open bounds to the full int64 range.
func windowMillis(since, until time.Time) (int64, int64) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !since.IsZero() {
		lo = since.UnixMilli()
	}
	if !until.IsZero() {
		hi = until.UnixMilli()
	}
	return lo, hi
}
