package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// SQLiteScoreStore keeps score history in a local SQLite file. Used when no
// ClickHouse cluster is configured.
type SQLiteScoreStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.ScoreStore = (*SQLiteScoreStore)(nil)

// NewSQLiteScoreStore opens (or creates) the database at path.
func NewSQLiteScoreStore(path string, l *applogger.Logger) (*SQLiteScoreStore, error) {
	if l == nil {
		l = applogger.Nop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; WAL lets the API read during a run
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &SQLiteScoreStore{db: db, l: l}, nil
}

func (s *SQLiteScoreStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS risk_scores (
			asset_id       TEXT NOT NULL,
			date           TEXT NOT NULL,
			price          REAL,
			trend_value    REAL,
			residual       REAL,
			z_score        REAL,
			raw_score      REAL,
			smoothed_score REAL,
			risk_score     REAL,
			PRIMARY KEY (asset_id, date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// ReplaceHistory swaps assetID's rows for records in one transaction.
func (s *SQLiteScoreStore) ReplaceHistory(ctx context.Context, assetID string, records []models.ScoreRecord) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM risk_scores WHERE asset_id = ?", assetID); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO risk_scores ("+scoreColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, assetID, util.FormatDay(r.Date),
			r.Price, r.TrendValue, r.Residual, r.ZScore, r.RawScore, r.SmoothedScore, r.RiskScore); err != nil {
			return fmt.Errorf("insert score %s: %w", util.FormatDay(r.Date), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.l.Info("sqlite scores stored",
		applogger.String("asset", assetID),
		applogger.Int("rows", len(records)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *SQLiteScoreStore) Latest(ctx context.Context, assetID string) (*models.ScoreRecord, error) {
	recs, err := s.query(ctx, `
		SELECT date, price, trend_value, residual, z_score, raw_score, smoothed_score, risk_score
		FROM risk_scores WHERE asset_id = ? ORDER BY date DESC LIMIT 1`, assetID)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (s *SQLiteScoreStore) History(ctx context.Context, assetID string, from, to time.Time, limit int) ([]models.ScoreRecord, error) {
	return s.query(ctx, `
		SELECT date, price, trend_value, residual, z_score, raw_score, smoothed_score, risk_score
		FROM risk_scores WHERE asset_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC LIMIT ?`,
		assetID, util.FormatDay(from), util.FormatDay(to), limit)
}

func (s *SQLiteScoreStore) query(ctx context.Context, q string, args ...interface{}) ([]models.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []models.ScoreRecord
	for rows.Next() {
		var r models.ScoreRecord
		var day string
		if err := rows.Scan(&day, &r.Price, &r.TrendValue, &r.Residual, &r.ZScore, &r.RawScore, &r.SmoothedScore, &r.RiskScore); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if r.Date, err = time.Parse(util.DayLayout, day); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteScoreStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteScoreStore) Close() error {
	return s.db.Close()
}
