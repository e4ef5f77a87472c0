package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "betpulse/internal/errors"
	"betpulse/pkg/contracts/domain"
)

// SheetsSink mirrors the report set into a Google Sheets workbook, one tab
// per table plus a KPIs tab. Tabs are created on demand and fully replaced
// on every publish. All API calls go through a rate limiter so a large
// table set stays inside the Sheets write quota.
type SheetsSink struct {
	logger        *slog.Logger
	service       *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// SheetsConfig holds the settings needed to reach the workbook.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	WritesPerSecond float64
	WriteBurst      int
}

// NewSheetsSink builds a Sheets sink from service-account credentials.
func NewSheetsSink(ctx context.Context, logger *slog.Logger, cfg SheetsConfig) (*SheetsSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SpreadsheetID == "" {
		return nil, apperrors.NewConfigError("spreadsheet ID is required", nil)
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, apperrors.NewSinkError("failed to create sheets service", err)
	}

	if cfg.WritesPerSecond <= 0 {
		cfg.WritesPerSecond = 1
	}
	if cfg.WriteBurst <= 0 {
		cfg.WriteBurst = 1
	}

	return &SheetsSink{
		logger:        logger,
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), cfg.WriteBurst),
	}, nil
}

// Name identifies the sink in logs and run summaries.
func (s *SheetsSink) Name() string { return "sheets" }

// Publish replaces every report tab in the workbook with the current table
// contents. Missing tabs are added first in one batch update.
func (s *SheetsSink) Publish(ctx context.Context, set domain.ReportSet) error {
	tabNames := make([]string, 0, len(set.Tables)+1)
	for _, table := range set.Tables {
		tabNames = append(tabNames, table.Name)
	}
	tabNames = append(tabNames, domain.TableKPIs)

	if err := s.ensureTabs(ctx, tabNames); err != nil {
		return err
	}

	for _, table := range set.Tables {
		values := [][]interface{}{toInterfaceRow(table.Columns)}
		for _, row := range table.Rows {
			values = append(values, toInterfaceRow(row))
		}
		if err := s.replaceTab(ctx, table.Name, values); err != nil {
			return err
		}
	}

	kpiValues := [][]interface{}{{"KPI", "Value"}}
	for _, kpi := range set.KPIs {
		kpiValues = append(kpiValues, []interface{}{kpi.Label, kpi.Value})
	}
	if err := s.replaceTab(ctx, domain.TableKPIs, kpiValues); err != nil {
		return err
	}

	s.logger.Info("workbook updated",
		slog.String("spreadsheet_id", s.spreadsheetID),
		slog.Int("tabs", len(tabNames)))
	return nil
}

// ensureTabs adds any tabs the workbook is missing.
func (s *SheetsSink) ensureTabs(ctx context.Context, names []string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return apperrors.NewSinkError("failed to read spreadsheet metadata", err)
	}

	existing := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			existing[sheet.Properties.Title] = true
		}
	}

	var requests []*sheets.Request
	for _, name := range names {
		if existing[name] {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return apperrors.NewSinkError("failed to add report tabs", err)
	}

	s.logger.Info("report tabs added", slog.Int("count", len(requests)))
	return nil
}

// a1SheetName quotes a tab name for use in an A1 range. Embedded single
// quotes are doubled per the A1 grammar, since tab names derive from
// free-text category values.
func a1SheetName(name string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(name, "'", "''"))
}

// replaceTab clears one tab and writes the given values from A1.
func (s *SheetsSink) replaceTab(ctx context.Context, name string, values [][]interface{}) error {
	tabRange := a1SheetName(name)

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, tabRange,
		&sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return apperrors.NewSinkError("failed to clear tab "+name, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, tabRange+"!A1",
		&sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return apperrors.NewSinkError("failed to write tab "+name, err)
	}
	return nil
}

func toInterfaceRow(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}
