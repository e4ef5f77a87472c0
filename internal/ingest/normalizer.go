package ingest

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "betpulse/internal/errors"
	"betpulse/pkg/contracts/domain"
)

// Column names matched exactly (case-insensitive, trimmed). Betfair-style
// exports vary casing between variants.
var (
	descriptionColumns = []string{"market"}
	settledAtColumns   = []string{"settled date"}
)

// settledAtFormats are the textual date formats accepted for the settlement
// timestamp, most common first. Betfair exports commonly use "03-Aug-25 23:25".
var settledAtFormats = []string{
	"02-Jan-06 15:04",
	"02-Jan-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// Money parsing helpers: strip separators and currency symbols, treat
// "(1.23)" as a negative.
var (
	moneyStripRe = regexp.MustCompile(`[,\s$€£]`)
	moneyParenRe = regexp.MustCompile(`^\((.*)\)$`)
)

// Normalizer turns raw export batches into normalized transactions.
type Normalizer struct {
	logger *slog.Logger
	// currencyMarker prefers a profit column that also names the account
	// currency when an export carries more than one profit-like column.
	currencyMarker string
}

// NewNormalizer creates a normalizer with the given currency marker.
func NewNormalizer(logger *slog.Logger, currencyMarker string) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger, currencyMarker: currencyMarker}
}

// Normalize converts one raw batch into transactions. A batch missing the
// description, settled-date or a profit-like column is rejected wholesale
// with a typed error. Rows whose timestamp or amount cannot be parsed are
// dropped individually and counted in dropped.
func (n *Normalizer) Normalize(batch *RawBatch) (rows []domain.Transaction, dropped int, err error) {
	descIdx := findExactColumn(batch.Header, descriptionColumns)
	if descIdx < 0 {
		return nil, 0, apperrors.NewValidationError("batch has no market description column").
			WithContext("source", batch.Source)
	}

	settledIdx := findExactColumn(batch.Header, settledAtColumns)
	if settledIdx < 0 {
		return nil, 0, apperrors.NewValidationError("batch has no settled date column").
			WithContext("source", batch.Source)
	}

	amountIdx := findAmountColumn(batch.Header, n.currencyMarker)
	if amountIdx < 0 {
		return nil, 0, apperrors.NewValidationError("batch has no profit-like column").
			WithContext("source", batch.Source)
	}

	n.logger.Debug("resolved batch columns",
		slog.String("source", batch.Source),
		slog.Int("description_col", descIdx),
		slog.Int("settled_col", settledIdx),
		slog.Int("amount_col", amountIdx))

	maxIdx := descIdx
	for _, idx := range []int{settledIdx, amountIdx} {
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	for _, raw := range batch.Rows {
		if len(raw) <= maxIdx {
			dropped++
			continue
		}

		settledAt, ok := parseSettledAt(raw[settledIdx])
		if !ok {
			dropped++
			continue
		}

		amount, ok := parseMoney(raw[amountIdx])
		if !ok {
			dropped++
			continue
		}

		rows = append(rows, domain.Transaction{
			MarketDescription: strings.TrimSpace(raw[descIdx]),
			SettledAt:         settledAt,
			OutcomeAmount:     amount,
		})
	}

	n.logger.Info("normalized batch",
		slog.String("source", batch.Source),
		slog.Int("rows", len(rows)),
		slog.Int("dropped", dropped))

	return rows, dropped, nil
}

// findExactColumn returns the index of the first header matching any of the
// wanted names exactly, case-insensitive and trimmed. -1 when absent.
func findExactColumn(header []string, wanted []string) int {
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for _, w := range wanted {
			if name == w {
				return i
			}
		}
	}
	return -1
}

// findAmountColumn picks the outcome-amount column by fuzzy match: the first
// header containing "profit" wins, but a header that also contains the
// currency marker is preferred over one that does not. -1 when absent.
func findAmountColumn(header []string, currencyMarker string) int {
	marker := strings.ToLower(strings.TrimSpace(currencyMarker))
	first := -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if !strings.Contains(name, "profit") {
			continue
		}
		if first < 0 {
			first = i
		}
		if marker != "" && strings.Contains(name, marker) {
			return i
		}
	}
	return first
}

// parseSettledAt tries each accepted timestamp format in order.
func parseSettledAt(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range settledAtFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseMoney parses money-like strings, supporting "(1.23)" as negative and
// stripping currency symbols and thousands separators.
func parseMoney(value string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Decimal{}, false
	}

	negate := false
	if m := moneyParenRe.FindStringSubmatch(s); m != nil {
		s = m[1]
		negate = true
	}
	s = moneyStripRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "--", "-")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negate {
		d = d.Neg()
	}
	return d, true
}
