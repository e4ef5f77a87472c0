// Package store persists the merged transaction ledger as a CSV file.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	apperrors "betpulse/internal/errors"
	"betpulse/pkg/contracts/domain"
)

const settledAtLayout = "2006-01-02 15:04:05"

var ledgerColumns = []string{"market_description", "settled_at", "outcome_amount"}

// LedgerStore reads and writes the transaction ledger CSV. Writes go through
// a temp file plus rename so a crash never leaves a half-written ledger, and
// the previous ledger is backed up before every overwrite.
type LedgerStore struct {
	logger     *slog.Logger
	ledgerPath string
	backupsDir string
}

// NewLedgerStore creates a ledger store rooted at the given ledger file.
func NewLedgerStore(logger *slog.Logger, ledgerPath, backupsDir string) *LedgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerStore{logger: logger, ledgerPath: ledgerPath, backupsDir: backupsDir}
}

// Read loads the current ledger. A missing ledger file is not an error: it
// means no prior run has completed, and Read returns an empty ledger.
func (s *LedgerStore) Read() ([]domain.Transaction, error) {
	file, err := os.Open(s.ledgerPath)
	if os.IsNotExist(err) {
		s.logger.Info("no ledger file found, starting empty",
			slog.String("path", s.ledgerPath))
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open ledger", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(ledgerColumns)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read ledger header", err)
	}
	_ = header

	var rows []domain.Transaction
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewStorageError(
				fmt.Sprintf("malformed ledger record at line %d", line), err)
		}

		settledAt, err := time.Parse(settledAtLayout, record[1])
		if err != nil {
			return nil, apperrors.NewStorageError(
				fmt.Sprintf("invalid settled_at at line %d: %q", line, record[1]), err)
		}
		amount, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, apperrors.NewStorageError(
				fmt.Sprintf("invalid outcome_amount at line %d: %q", line, record[2]), err)
		}

		rows = append(rows, domain.Transaction{
			MarketDescription: record[0],
			SettledAt:         settledAt.UTC(),
			OutcomeAmount:     amount,
		})
	}

	s.logger.Info("ledger loaded",
		slog.String("path", s.ledgerPath),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// Write replaces the ledger with the given rows. The existing ledger, if
// any, is copied to a timestamped backup first; the new content is written
// to a temp file and renamed into place.
func (s *LedgerStore) Write(rows []domain.Transaction) error {
	if err := s.backupExisting(); err != nil {
		return err
	}

	dir := filepath.Dir(s.ledgerPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create ledger directory", err)
	}

	tmp, err := os.CreateTemp(dir, "ledger-*.csv.tmp")
	if err != nil {
		return apperrors.NewStorageError("failed to create temp ledger", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	// UTF-8 BOM so the ledger opens cleanly in Excel.
	if _, err := tmp.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to write BOM", err)
	}

	writer := csv.NewWriter(tmp)
	if err := writer.Write(ledgerColumns); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to write ledger header", err)
	}
	for _, row := range rows {
		record := []string{
			row.MarketDescription,
			row.SettledAt.UTC().Format(settledAtLayout),
			row.OutcomeAmount.String(),
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return apperrors.NewStorageError("failed to write ledger record", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to flush ledger", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close temp ledger", err)
	}

	if err := os.Rename(tmpPath, s.ledgerPath); err != nil {
		return apperrors.NewStorageError("failed to replace ledger", err)
	}

	s.logger.Info("ledger written",
		slog.String("path", s.ledgerPath),
		slog.Int("rows", len(rows)))
	return nil
}

// backupExisting copies the current ledger into the backups directory with a
// timestamped name. Nothing happens when no ledger exists yet.
func (s *LedgerStore) backupExisting() error {
	src, err := os.Open(s.ledgerPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.NewStorageError("failed to open ledger for backup", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.backupsDir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create backups directory", err)
	}

	name := fmt.Sprintf("ledger-%s.csv", time.Now().UTC().Format("20060102-150405"))
	backupPath := filepath.Join(s.backupsDir, name)

	dst, err := os.Create(backupPath)
	if err != nil {
		return apperrors.NewStorageError("failed to create ledger backup", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return apperrors.NewStorageError("failed to copy ledger backup", err)
	}

	s.logger.Info("ledger backed up", slog.String("backup", backupPath))
	return nil
}
