package repository

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/pkg/metrics"
)

// PostgresStore persists assessments in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	opts options

	// appendMu serializes appends so BIGSERIAL ids are handed out in commit order.
	appendMu sync.Mutex

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// OpenPostgres connects to dsn, verifies the connection and applies migrations.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, persistErr("open", fmt.Errorf("failed to parse DSN: %w", err))
	}
	poolConfig.MaxConns = o.poolSize
	poolConfig.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, persistErr("open", fmt.Errorf("failed to create connection pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, persistErr("open", fmt.Errorf("failed to ping database: %w", err))
	}

	s := &PostgresStore{pool: pool, opts: o, stopChan: make(chan struct{})}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, persistErr("migrate", err)
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.opts.metricsInterval, s.Count)
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			risk_score INTEGER NOT NULL,
			risk_level TEXT NOT NULL,
			pain_location TEXT NOT NULL,
			input JSONB NOT NULL,
			result JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at)`,
		`CREATE TABLE IF NOT EXISTS usage_counters (
			mode TEXT PRIMARY KEY,
			count BIGINT NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append implements Store.Append.
func (s *PostgresStore) Append(ctx context.Context, in model.AssessmentInput, res model.AssessmentResult) (model.AssessmentRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryAppendLatency(DriverPostgres, msSince(start)) }()

	enc, err := encodeRecord(in, res)
	if err != nil {
		return model.AssessmentRecord{}, persistErr("append", err)
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	createdAt := s.opts.now()
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO assessments (created_at, risk_score, risk_level, pain_location, input, result)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		createdAt, res.RiskScore, string(res.RiskLevel), string(in.PainLocation), enc.input, enc.result,
	).Scan(&id)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "append")
		return model.AssessmentRecord{}, persistErr("append", err)
	}
	return model.AssessmentRecord{ID: id, CreatedAt: createdAt, Input: in, Result: cloneResult(res)}, nil
}

// ListRecent implements Store.ListRecent.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]model.AssessmentRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(DriverPostgres, "list_recent", msSince(start)) }()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, input, result FROM assessments ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, persistErr("list_recent", err)
	}
	defer rows.Close()

	out := make([]model.AssessmentRecord, 0, limit)
	for rows.Next() {
		rec, err := scanPostgresRow(rows)
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

// Scan implements Store.Scan.
func (s *PostgresStore) Scan(ctx context.Context, since, until time.Time) iter.Seq2[model.AssessmentRecord, error] {
	return func(yield func(model.AssessmentRecord, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordRepositoryQueryLatency(DriverPostgres, "scan", msSince(start)) }()

		query := `SELECT id, created_at, input, result FROM assessments
			WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			  AND ($2::timestamptz IS NULL OR created_at < $2)
			ORDER BY created_at ASC, id ASC`
		rows, err := s.pool.Query(ctx, query, nullableTime(since), nullableTime(until))
		if err != nil {
			yield(model.AssessmentRecord{}, persistErr("scan", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanPostgresRow(rows)
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
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n); err != nil {
		return 0, persistErr("count", err)
	}
	return int(n), nil
}

// LoadUsage implements UsageStore.LoadUsage.
func (s *PostgresStore) LoadUsage(ctx context.Context) (map[model.CoachingMode]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT mode, count FROM usage_counters`)
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
func (s *PostgresStore) IncrementUsage(ctx context.Context, mode model.CoachingMode) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_counters (mode, count) VALUES ($1, 1)
		 ON CONFLICT (mode) DO UPDATE SET count = usage_counters.count + 1`, string(mode))
	return persistErr("increment_usage", err)
}

// Close stops the metrics updater and closes the pool.
func (s *PostgresStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.pool.Close()
	})
	return nil
}

func scanPostgresRow(rows pgx.Rows) (model.AssessmentRecord, error) {
	var (
		rec             model.AssessmentRecord
		inJSON, resJSON []byte
	)
	if err := rows.Scan(&rec.ID, &rec.CreatedAt, &inJSON, &resJSON); err != nil {
		return rec, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if err := decodeRecord(&rec, inJSON, resJSON); err != nil {
		return rec, err
	}
	return rec, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
