// Package pipeline orchestrates one batch run: discover exports, normalize
// them, merge into the ledger, archive the inputs, and publish reports.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"betpulse/internal/aggregation"
	"betpulse/internal/config"
	"betpulse/internal/features"
	"betpulse/internal/files"
	"betpulse/internal/ingest"
	"betpulse/internal/ledger"
	"betpulse/internal/sink"
	"betpulse/internal/store"
	"betpulse/pkg/contracts/domain"
)

// Pipeline wires the batch run end to end. The ledger write is the point of
// no return: once it succeeds the merge stands, and any later reporting
// failure is recorded on the run summary instead of rolling it back.
type Pipeline struct {
	logger     *slog.Logger
	discovery  *files.Discovery
	archiver   *files.Archiver
	normalizer *ingest.Normalizer
	store      *store.LedgerStore
	engine     *aggregation.Engine
	featureCfg features.Config
	sinks      []sink.Sink
}

// New builds a pipeline from the application configuration and the sinks
// reports should be published to.
func New(logger *slog.Logger, cfg *config.Config, sinks ...sink.Sink) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	featureCfg := features.Config{
		TrackCategories:    cfg.Features.TrackCategories,
		RegionFallback:     cfg.Features.RegionFallback,
		UnclassifiedRegion: cfg.Features.UnclassifiedRegion,
	}
	engineCfg := aggregation.Config{
		WeekStart:       cfg.Aggregation.WeekStartDay(),
		RollingWindows:  cfg.Aggregation.RollingWindows,
		Anchor:          cfg.Aggregation.AnchorTime(),
		MinAttempts:     cfg.Aggregation.MinAttempts,
		LeaderboardSize: cfg.Aggregation.LeaderboardSize,
		TrackCategories: cfg.Features.TrackCategories,
	}

	return &Pipeline{
		logger:     logger,
		discovery:  files.NewDiscovery(cfg.Paths.InboxPath()),
		archiver:   files.NewArchiver(logger, cfg.Paths.ArchivePath()),
		normalizer: ingest.NewNormalizer(logger, cfg.Ingest.CurrencyMarker),
		store:      store.NewLedgerStore(logger, cfg.Paths.LedgerPath(), cfg.Paths.BackupsPath()),
		engine:     aggregation.NewEngine(logger, engineCfg),
		featureCfg: featureCfg,
		sinks:      sinks,
	}
}

// Run executes one batch run and returns its summary. The error is non-nil
// whenever the run did not fully complete; summary.Status tells whether the
// merge itself survived.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	logger := p.logger.With(slog.String("run_id", summary.RunID))
	logger.Info("batch run started")

	batchFiles, err := p.discovery.FindBatchFiles()
	if err != nil {
		summary.FinishedAt = time.Now().UTC()
		return summary, err
	}

	var batches [][]domain.Transaction
	var processed []files.FileInfo
	for _, file := range batchFiles {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = time.Now().UTC()
			return summary, err
		}

		batch, err := ingest.ReadBatch(file.Path)
		if err != nil {
			// A file that cannot be read is a rejected batch; the run
			// continues with the remaining files.
			logger.Warn("batch rejected",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
			summary.BatchesRejected++
			continue
		}

		rows, dropped, err := p.normalizer.Normalize(batch)
		if err != nil {
			logger.Warn("batch rejected",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
			summary.BatchesRejected++
			continue
		}

		summary.FilesProcessed++
		summary.RowsDropped += dropped
		batches = append(batches, rows)
		processed = append(processed, file)
	}

	existing, err := p.store.Read()
	if err != nil {
		summary.FinishedAt = time.Now().UTC()
		return summary, err
	}

	updated, inserted := ledger.Merge(existing, batches)
	summary.RowsInserted = inserted
	summary.LedgerRows = len(updated)

	if inserted > 0 {
		if err := p.store.Write(updated); err != nil {
			summary.FinishedAt = time.Now().UTC()
			return summary, err
		}
	}
	summary.MergeCompleted = true

	// Archive every successfully processed file, including all-duplicate
	// ones, so the next run never re-reads them.
	for _, file := range processed {
		if _, err := p.archiver.Archive(file.Path); err != nil {
			logger.Warn("archive failed",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
		}
	}

	if err := p.publish(ctx, logger, updated); err != nil {
		summary.ReportError = err.Error()
		summary.FinishedAt = time.Now().UTC()
		p.logSummary(logger, summary)
		return summary, err
	}

	summary.FinishedAt = time.Now().UTC()
	p.logSummary(logger, summary)
	return summary, nil
}

// Report recomputes and publishes reports from the current ledger without
// ingesting anything.
func (p *Pipeline) Report(ctx context.Context) (domain.ReportSet, error) {
	rows, err := p.store.Read()
	if err != nil {
		return domain.ReportSet{}, err
	}
	enriched := features.Enrich(rows, p.featureCfg)
	set := p.engine.Aggregate(enriched)

	for _, s := range p.sinks {
		if err := s.Publish(ctx, set); err != nil {
			return set, err
		}
	}
	return set, nil
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, rows []domain.Transaction) error {
	enriched := features.Enrich(rows, p.featureCfg)
	set := p.engine.Aggregate(enriched)

	for _, s := range p.sinks {
		if err := s.Publish(ctx, set); err != nil {
			logger.Error("sink publish failed",
				slog.String("sink", s.Name()),
				slog.String("error", err.Error()))
			return err
		}
		logger.Info("reports published", slog.String("sink", s.Name()))
	}
	return nil
}

func (p *Pipeline) logSummary(logger *slog.Logger, summary domain.RunSummary) {
	logger.Info("batch run finished",
		slog.String("status", summary.Status()),
		slog.Int("files_processed", summary.FilesProcessed),
		slog.Int("batches_rejected", summary.BatchesRejected),
		slog.Int("rows_dropped", summary.RowsDropped),
		slog.Int("rows_inserted", summary.RowsInserted),
		slog.Int("ledger_rows", summary.LedgerRows),
		slog.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))
}
