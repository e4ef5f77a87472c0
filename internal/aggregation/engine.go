// Package aggregation turns the enriched transaction ledger into the full
// set of named report tables and the KPI record.
package aggregation

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"betpulse/pkg/contracts/domain"
)

// Engine computes the report set from an enriched ledger view. It holds no
// state between runs; the same view and config always produce the same
// output apart from the generation timestamp.
type Engine struct {
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

// NewEngine creates an aggregation engine with the given policy.
func NewEngine(logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, cfg: cfg, now: time.Now}
}

// Aggregate computes every report table from the enriched view. Empty input
// is not an error: the fixed tables come back empty and the KPI record
// reflects a zero ledger.
func (e *Engine) Aggregate(rows []domain.EnrichedRecord) domain.ReportSet {
	days := dailyBuckets(rows)
	weeks := weeklyBuckets(rows, e.cfg.WeekStart)

	set := domain.ReportSet{}
	set.Tables = append(set.Tables,
		dailyTable(domain.TableByDay, days),
		periodTable(domain.TableByWeek, "Week Starting", "Weekly P/L", "2006-01-02", weeks),
		periodTable(domain.TableByMonth, "Month", "Monthly P/L", "2006-01", monthlyBuckets(rows)),
		breakdownTable(domain.TableByCategory, "Category", rows, func(r domain.EnrichedRecord) string { return r.Category }),
		breakdownTable(domain.TableByRegion, "Region", rows, func(r domain.EnrichedRecord) string { return r.Region }),
		worstDaysTable(days),
		rollingTable(domain.TableRolling, rollingPeriods(days, e.cfg.WeekStart), e.cfg),
	)

	// One rolling trend table per track-based category observed in the data.
	for _, category := range e.observedTrackCategories(rows) {
		catRows := filterCategory(rows, category)
		set.Tables = append(set.Tables, rollingTable(
			fmt.Sprintf("%s %s", domain.TableRolling, category),
			rollingPeriods(dailyBuckets(catRows), e.cfg.WeekStart),
			e.cfg,
		))
	}

	// One daily series, with its own independent cumulative column, per
	// distinct category present. Table count is data-dependent.
	for _, category := range observedCategories(rows) {
		set.Tables = append(set.Tables, dailyTable(
			fmt.Sprintf("%s Daily", category),
			dailyBuckets(filterCategory(rows, category)),
		))
	}

	groups := groupEntities(rows)
	for _, category := range e.observedTrackCategories(rows) {
		catGroups := categoryGroups(groups, category)
		top, bottom := leaderboardTables(category, catGroups, e.cfg.LeaderboardSize)
		set.Tables = append(set.Tables, top, bottom,
			strikeRateTable(category, catGroups, e.cfg.MinAttempts))
	}

	set.KPIs = buildKPIs(days, len(rows), e.now())

	e.logger.Info("aggregation complete",
		slog.Int("rows", len(rows)),
		slog.Int("tables", len(set.Tables)),
		slog.Int("settled_days", len(days)))

	return set
}

// breakdownTable sums outcome amounts per distinct dimension value, ordered
// by total descending. Values never present in the data are omitted; there
// is no zero-filling.
func breakdownTable(name, dimension string, rows []domain.EnrichedRecord, keyFn func(domain.EnrichedRecord) string) domain.Table {
	index := make(map[string]int)
	type group struct {
		value string
		total decimal.Decimal
	}
	var groups []group

	for _, row := range rows {
		key := keyFn(row)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{value: key})
		}
		groups[i].total = groups[i].total.Add(row.OutcomeAmount)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].total.GreaterThan(groups[j].total)
	})

	table := domain.Table{
		Name:    name,
		Columns: []string{dimension, "Total P/L"},
		Rows:    make([][]string, 0, len(groups)),
	}
	for _, g := range groups {
		table.Rows = append(table.Rows, []string{g.value, g.total.RoundBank(2).StringFixed(2)})
	}
	return table
}

// observedCategories returns the distinct categories present, sorted for
// deterministic table order.
func observedCategories(rows []domain.EnrichedRecord) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, row := range rows {
		if row.Category == "" {
			continue
		}
		if _, ok := seen[row.Category]; ok {
			continue
		}
		seen[row.Category] = struct{}{}
		categories = append(categories, row.Category)
	}
	sort.Strings(categories)
	return categories
}

// observedTrackCategories returns the configured track categories that
// actually appear in the data, in configured order.
func (e *Engine) observedTrackCategories(rows []domain.EnrichedRecord) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		if row.TrackBased {
			present[row.Category] = true
		}
	}
	var categories []string
	for _, category := range e.cfg.TrackCategories {
		if present[category] {
			categories = append(categories, category)
		}
	}
	return categories
}

// filterCategory returns the rows belonging to one category.
func filterCategory(rows []domain.EnrichedRecord, category string) []domain.EnrichedRecord {
	var out []domain.EnrichedRecord
	for _, row := range rows {
		if row.Category == category {
			out = append(out, row)
		}
	}
	return out
}
