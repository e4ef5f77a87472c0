package sink

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "betpulse/internal/errors"
	"betpulse/pkg/contracts/domain"
)

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// CSVSink writes each report table to its own CSV file under the reports
// directory, plus a kpis.csv for the KPI record. Files are overwritten on
// every publish.
type CSVSink struct {
	logger     *slog.Logger
	reportsDir string
}

// NewCSVSink creates a CSV sink rooted at the reports directory.
func NewCSVSink(logger *slog.Logger, reportsDir string) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{logger: logger, reportsDir: reportsDir}
}

// Name identifies the sink in logs and run summaries.
func (s *CSVSink) Name() string { return "csv" }

// Publish writes every table and the KPI record to the reports directory.
func (s *CSVSink) Publish(ctx context.Context, set domain.ReportSet) error {
	if err := os.MkdirAll(s.reportsDir, 0755); err != nil {
		return apperrors.NewSinkError("failed to create reports directory", err)
	}

	for _, table := range set.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.reportsDir, fileNameFor(table.Name))
		rows := append([][]string{table.Columns}, table.Rows...)
		if err := writeCSVFile(path, rows); err != nil {
			return apperrors.NewSinkError("failed to write report table "+table.Name, err)
		}
	}

	kpiRows := [][]string{{"KPI", "Value"}}
	for _, kpi := range set.KPIs {
		kpiRows = append(kpiRows, []string{kpi.Label, kpi.Value})
	}
	if err := writeCSVFile(filepath.Join(s.reportsDir, "kpis.csv"), kpiRows); err != nil {
		return apperrors.NewSinkError("failed to write KPI report", err)
	}

	s.logger.Info("reports written",
		slog.String("dir", s.reportsDir),
		slog.Int("tables", len(set.Tables)))
	return nil
}

// fileNameFor maps a table name to a stable snake_case file name, e.g.
// "Top Horse Racing Tracks" becomes top_horse_racing_tracks.csv.
func fileNameFor(tableName string) string {
	name := unsafeFileChars.ReplaceAllString(strings.ToLower(tableName), "_")
	return strings.Trim(name, "_") + ".csv"
}

func writeCSVFile(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// UTF-8 BOM so reports open cleanly in Excel.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
