// Command pipeline runs one batch ingestion cycle: it reads every export in
// the inbox, merges new transactions into the ledger, archives the inputs
// and publishes the full report set.
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
	inboxDir := flag.String("inbox", "", "inbox directory override")
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
	if *inboxDir != "" {
		cfg.Paths.InboxDir = *inboxDir
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

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create data directories", "error", err)
		os.Exit(1)
	}

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
	summary, err := p.Run(ctx)
	if err != nil {
		logger.Error("Batch run failed",
			"run_id", summary.RunID,
			"status", summary.Status(),
			"error", err)
		if !summary.MergeCompleted {
			os.Exit(1)
		}
		// The merge stands; a reporting failure exits with a distinct code
		// so schedulers can retry reporting alone.
		os.Exit(2)
	}
}
