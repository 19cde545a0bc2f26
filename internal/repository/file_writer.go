package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

const (
	ReportFile       = "risk_scores.json"
	legacySuffix     = "_risk_latest.json"
	historyCSVSuffix = "_risk_history.csv"
)

var historyHeader = []string{"date", "price", "trend_value", "residual", "z_score", "raw_score", "smoothed_score", "risk_score"}

// FileWriter writes the report, the legacy single-asset file and per-asset
// CSV histories into one directory. Every file is replaced atomically.
type FileWriter struct {
	dir          string
	primary      string
	legacyLatest bool
}

var _ domrepo.ReportWriter = (*FileWriter)(nil)

func NewFileWriter(dir, primaryAsset string, legacyLatest bool) *FileWriter {
	return &FileWriter{dir: dir, primary: strings.ToUpper(primaryAsset), legacyLatest: legacyLatest}
}

// legacyLatest is the primary asset's score with the run timestamp.
type legacyLatest struct {
	models.AssetScore
	UpdatedAt string `json:"updated_at"`
}

func (w *FileWriter) WriteReport(report *models.Report) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := w.writeAtomic(ReportFile, b); err != nil {
		return err
	}

	primary, ok := report.Assets[w.primary]
	if !w.legacyLatest || !ok {
		return nil
	}
	b, err = json.MarshalIndent(legacyLatest{AssetScore: primary, UpdatedAt: report.UpdatedAt}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal legacy latest: %w", err)
	}
	return w.writeAtomic(strings.ToLower(w.primary)+legacySuffix, b)
}

func (w *FileWriter) WriteHistory(assetID string, records []models.ScoreRecord) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			util.FormatDay(r.Date),
			formatFloat(r.Price),
			formatFloat(r.TrendValue),
			formatFloat(r.Residual),
			formatFloat(r.ZScore),
			formatFloat(r.RawScore),
			formatFloat(r.SmoothedScore),
			formatFloat(r.RiskScore),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return w.writeAtomic(HistoryFileName(assetID), buf.Bytes())
}

// HistoryFileName is the CSV file name for assetID.
func HistoryFileName(assetID string) string {
	return strings.ToLower(assetID) + historyCSVSuffix
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (w *FileWriter) writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
