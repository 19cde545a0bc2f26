package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	pkgkafka "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/kafka"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleRecords() []models.ScoreRecord {
	return []models.ScoreRecord{
		{Date: day("2024-01-01"), Price: 42000.5, TrendValue: 40000, Residual: 0.05, ZScore: 0.4, RawScore: 64.6, SmoothedScore: 53.6, RiskScore: 53.6},
		{Date: day("2024-01-02"), Price: 43000, TrendValue: 40010, Residual: 0.07, ZScore: 0.6, RawScore: 71.1, SmoothedScore: 58.0, RiskScore: 58.0},
		{Date: day("2024-01-03"), Price: 41000, TrendValue: 40020, Residual: 0.02, ZScore: 0.1, RawScore: 53.7, SmoothedScore: 56.9, RiskScore: 56.9},
	}
}

func sampleReport() *models.Report {
	btc := models.AssetScore{AssetID: "BTC", Name: "Bitcoin", Date: "2024-01-03", RiskScore: 56.9, Price: 41000, TrendValue: 40020, RegressionMode: models.ModeExpanding, HistoryDays: 3, Status: "active"}
	r := &models.Report{
		UpdatedAt:     "2024-01-03T00:30:00Z",
		EngineVersion: "2.0",
		Assets:        map[string]models.AssetScore{"BTC": btc},
	}
	r.SetPrimary(btc)
	return r
}

func TestFileWriterReport(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir, "btc", true)

	require.NoError(t, w.WriteReport(sampleReport()))

	b, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "2.0", got["engine_version"])
	assert.Equal(t, "BTC", got["asset_id"])
	assert.Equal(t, 56.9, got["risk_score"])
	assert.Contains(t, got["assets"], "BTC")

	b, err = os.ReadFile(filepath.Join(dir, "btc_risk_latest.json"))
	require.NoError(t, err)
	var legacy map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &legacy))
	assert.Equal(t, "2024-01-03T00:30:00Z", legacy["updated_at"])
	assert.Equal(t, "Bitcoin", legacy["name"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestFileWriterSkipsLegacyWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFileWriter(dir, "BTC", false).WriteReport(sampleReport()))
	_, err := os.Stat(filepath.Join(dir, "btc_risk_latest.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileWriterHistoryCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(filepath.Join(dir, "nested"), "BTC", true)

	require.NoError(t, w.WriteHistory("ETH", sampleRecords()))

	f, err := os.Open(filepath.Join(dir, "nested", "eth_risk_history.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, []string{"2024-01-01", "42000.5", "40000", "0.05", "0.4", "64.6", "53.6", "53.6"}, rows[1])
}

func TestCHInsertBuildsMultiRowValues(t *testing.T) {
	q, args := chInsert("risk_scores", "BTC", 7, sampleRecords())

	assert.True(t, strings.HasPrefix(q, "INSERT INTO risk_scores ("+scoreColumns+", version) VALUES "))
	assert.Equal(t, 3, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 30)
	assert.Equal(t, "BTC", args[0])
	assert.Equal(t, day("2024-01-01"), args[1])
	assert.Equal(t, uint64(7), args[9])
	assert.Equal(t, 58.0, args[18])
}

func TestCHSchemaUsesReplacingMergeTree(t *testing.T) {
	stmts := chSchema("risk_scores_v2")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS risk_scores_v2")
	assert.Contains(t, stmts[0], "ReplacingMergeTree(version)")
	assert.Contains(t, stmts[0], "ORDER BY (asset_id, date)")
}

func TestSQLiteScoreStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteScoreStore(filepath.Join(t.TempDir(), "scores.db"), nil)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Health(ctx))

	latest, err := s.Latest(ctx, "BTC")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.ReplaceHistory(ctx, "BTC", sampleRecords()))
	require.NoError(t, s.ReplaceHistory(ctx, "ETH", sampleRecords()[:1]))

	latest, err = s.Latest(ctx, "BTC")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, day("2024-01-03"), latest.Date)
	assert.Equal(t, 56.9, latest.RiskScore)

	hist, err := s.History(ctx, "BTC", day("2024-01-02"), day("2024-12-31"), 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, day("2024-01-02"), hist[0].Date)

	hist, err = s.History(ctx, "BTC", day("2024-01-01"), day("2024-12-31"), 1)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	// a new run replaces the whole asset history
	require.NoError(t, s.ReplaceHistory(ctx, "BTC", sampleRecords()[:2]))
	latest, err = s.Latest(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-02"), latest.Date)

	eth, err := s.History(ctx, "ETH", day("2000-01-01"), day("2100-01-01"), 100)
	require.NoError(t, err)
	assert.Len(t, eth, 1)
}

type captureWriter struct{ msgs []kafka.Message }

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaScorePublisher(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaScorePublisher(pkgkafka.NewProducerWithWriter(w, "gzip"), "risk.scores")

	require.NoError(t, p.PublishBatch(context.Background(), []models.AssetScore{
		{AssetID: "btc", RiskScore: 56.9},
		{AssetID: "ETH", RiskScore: 41.2},
	}))
	require.NoError(t, p.Publish(context.Background(), models.AssetScore{AssetID: "SOL"}))
	require.NoError(t, p.PublishBatch(context.Background(), nil))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "risk.scores", w.msgs[0].Topic)
	assert.Equal(t, "BTC", string(w.msgs[0].Key))
	var got models.AssetScore
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	assert.Equal(t, 41.2, got.RiskScore)
	assert.Equal(t, "SOL", string(w.msgs[2].Key))
	require.NoError(t, p.Close())
}

func TestNoopSinks(t *testing.T) {
	ctx := context.Background()
	var s NoopScoreStore
	require.NoError(t, s.ReplaceHistory(ctx, "BTC", sampleRecords()))
	latest, err := s.Latest(ctx, "BTC")
	assert.NoError(t, err)
	assert.Nil(t, latest)
	assert.NoError(t, NoopPublisher{}.Publish(ctx, models.AssetScore{}))
}
