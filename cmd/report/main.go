// Command report recomputes and publishes the full report set from the
// current ledger without ingesting any new batches.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"betpulse/internal/config"
	"betpulse/internal/infrastructure"
	"betpulse/internal/pipeline"
	"betpulse/internal/sink"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	dataDir := flag.String("data", "", "data directory override")
	reportsDir := flag.String("reports", "", "reports directory override")
	sheetID := flag.String("sheet", "", "Google Sheets spreadsheet ID override")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *reportsDir != "" {
		cfg.Paths.ReportsDir = *reportsDir
	}
	if *sheetID != "" {
		cfg.Sheets.SpreadsheetID = *sheetID
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := []sink.Sink{sink.NewCSVSink(logger, cfg.Paths.ReportsPath())}
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsSink, err := sink.NewSheetsSink(ctx, logger, sink.SheetsConfig{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			WritesPerSecond: cfg.Sheets.WritesPerSecond,
			WriteBurst:      cfg.Sheets.WriteBurst,
		})
		if err != nil {
			logger.Error("Failed to initialize sheets sink", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, sheetsSink)
	}

	p := pipeline.New(logger, cfg, sinks...)
	set, err := p.Report(ctx)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Reports published",
		"tables", len(set.Tables),
		"kpis", len(set.KPIs))
}
