package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	pkgch "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/clickhouse"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
)

// insertChunkSize bounds rows per multi-row INSERT.
const insertChunkSize = 2000

const scoreColumns = "asset_id, date, price, trend_value, residual, z_score, raw_score, smoothed_score, risk_score"

// CHScoreStore implements ScoreStore backed by a ClickHouse ReplacingMergeTree.
// Every ReplaceHistory call writes a new version; reads use FINAL.
type CHScoreStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var _ domrepo.ScoreStore = (*CHScoreStore)(nil)

func NewCHScoreStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHScoreStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHScoreStore{ch: ch, db: ch.DB(), table: table, l: l, now: time.Now}
}

func chSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            asset_id       LowCardinality(String),
            date           Date,
            price          Float64,
            trend_value    Float64,
            residual       Float64,
            z_score        Float64,
            raw_score      Float64,
            smoothed_score Float64,
            risk_score     Float64,
            version        UInt64
        ) ENGINE = ReplacingMergeTree(version)
        ORDER BY (asset_id, date)
    `, table)}
}

func (s *CHScoreStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, chSchema(s.table))
}

// ReplaceHistory writes records as the newest version of assetID's history
// and drops rows of older versions.
func (s *CHScoreStore) ReplaceHistory(ctx context.Context, assetID string, records []models.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	version := uint64(s.now().UnixNano())

	for from := 0; from < len(records); from += insertChunkSize {
		to := from + insertChunkSize
		if to > len(records) {
			to = len(records)
		}
		q, args := chInsert(s.table, assetID, version, records[from:to])
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert scores error",
				applogger.String("table", s.table),
				applogger.String("asset", assetID),
				applogger.Int("offset", from),
				applogger.Error(err),
			)
			return fmt.Errorf("insert scores: %w", err)
		}
	}

	purge := fmt.Sprintf("ALTER TABLE %s DELETE WHERE asset_id = ? AND version < ?", s.table)
	if _, err := s.db.ExecContext(ctx, purge, assetID, version); err != nil {
		// stale versions are hidden by FINAL anyway
		s.l.Warn("clickhouse purge old versions failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}

	s.l.Info("clickhouse scores stored",
		applogger.String("table", s.table),
		applogger.String("asset", assetID),
		applogger.Int("rows", len(records)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func chInsert(table, assetID string, version uint64, records []models.ScoreRecord) (string, []interface{}) {
	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*10)
	for _, r := range records {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			assetID,
			r.Date,
			r.Price,
			r.TrendValue,
			r.Residual,
			r.ZScore,
			r.RawScore,
			r.SmoothedScore,
			r.RiskScore,
			version,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s, version) VALUES %s", table, scoreColumns, strings.Join(values, ","))
	return q, args
}

func (s *CHScoreStore) Latest(ctx context.Context, assetID string) (*models.ScoreRecord, error) {
	q := fmt.Sprintf(`
        SELECT date, price, trend_value, residual, z_score, raw_score, smoothed_score, risk_score
        FROM %s FINAL
        WHERE asset_id = ?
        ORDER BY date DESC
        LIMIT 1
    `, s.table)
	recs, err := s.query(ctx, "latest", assetID, q, assetID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (s *CHScoreStore) History(ctx context.Context, assetID string, from, to time.Time, limit int) ([]models.ScoreRecord, error) {
	q := fmt.Sprintf(`
        SELECT date, price, trend_value, residual, z_score, raw_score, smoothed_score, risk_score
        FROM %s FINAL
        WHERE asset_id = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
        LIMIT ?
    `, s.table)
	return s.query(ctx, "history", assetID, q, assetID, from, to, limit)
}

func (s *CHScoreStore) query(ctx context.Context, op, assetID, q string, args ...interface{}) ([]models.ScoreRecord, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse "+op+" query error",
			applogger.String("table", s.table),
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%s scores: %w", op, err)
	}
	defer rows.Close()

	out, err := scanScores(rows)
	if err != nil {
		s.l.Error("clickhouse "+op+" scan error",
			applogger.String("table", s.table),
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
		return nil, err
	}
	s.l.Debug("clickhouse "+op+" ok",
		applogger.String("asset", assetID),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHScoreStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the connection pool is owned by pkg/clickhouse.
func (s *CHScoreStore) Close() error { return nil }

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanScores(rows rowScanner) ([]models.ScoreRecord, error) {
	out := make([]models.ScoreRecord, 0, 256)
	for rows.Next() {
		var r models.ScoreRecord
		if err := rows.Scan(&r.Date, &r.Price, &r.TrendValue, &r.Residual, &r.ZScore, &r.RawScore, &r.SmoothedScore, &r.RiskScore); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
