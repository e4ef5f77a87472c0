package aggregation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"betpulse/pkg/contracts/domain"
)

// entityGroup is one (category, entity) group over track-based rows.
// Groups keep first-appearance order from the enriched view; that order is
// the explicit tie-break for every ranked table built from them.
type entityGroup struct {
	category string
	entity   string
	total    decimal.Decimal
	attempts int
	wins     int
}

// groupEntities groups track-based rows by (category, entity name) in
// first-appearance order, accumulating totals, attempts and wins. A win is a
// strictly positive outcome amount.
func groupEntities(rows []domain.EnrichedRecord) []entityGroup {
	index := make(map[string]int)
	var groups []entityGroup

	for _, row := range rows {
		if !row.TrackBased || row.EntityName == "" {
			continue
		}
		key := row.Category + "\x00" + row.EntityName
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, entityGroup{category: row.Category, entity: row.EntityName})
		}
		groups[i].total = groups[i].total.Add(row.OutcomeAmount)
		groups[i].attempts++
		if row.OutcomeAmount.IsPositive() {
			groups[i].wins++
		}
	}

	return groups
}

// categoryGroups returns the groups belonging to one category, preserving
// group order.
func categoryGroups(groups []entityGroup, category string) []entityGroup {
	var out []entityGroup
	for _, g := range groups {
		if g.category == category {
			out = append(out, g)
		}
	}
	return out
}

// leaderboardTables builds the top-N and bottom-N entity tables for one
// track-based category. Sorting is stable so sum ties keep group order.
func leaderboardTables(category string, groups []entityGroup, n int) (top, bottom domain.Table) {
	ranked := make([]entityGroup, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total.GreaterThan(ranked[j].total)
	})

	top = entityTable(fmt.Sprintf("Top %s Tracks", category), ranked, n)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total.LessThan(ranked[j].total)
	})
	bottom = entityTable(fmt.Sprintf("Bottom %s Tracks", category), ranked, n)

	return top, bottom
}

// entityTable renders the first n ranked groups as a (track, total) table.
func entityTable(name string, ranked []entityGroup, n int) domain.Table {
	if n > len(ranked) {
		n = len(ranked)
	}
	table := domain.Table{
		Name:    name,
		Columns: []string{"Track", "Total P/L"},
		Rows:    make([][]string, 0, n),
	}
	for _, g := range ranked[:n] {
		table.Rows = append(table.Rows, []string{g.entity, g.total.RoundBank(2).StringFixed(2)})
	}
	return table
}

// strikeRateTable builds the success-rate table for one category. Groups
// below the minimum attempt count are excluded entirely; this is a
// statistical-significance floor applied after the full group-by, never by
// discarding rows beforehand. Remaining groups rank by rate descending with
// stable ties.
func strikeRateTable(category string, groups []entityGroup, minAttempts int) domain.Table {
	var qualified []entityGroup
	for _, g := range groups {
		if g.attempts >= minAttempts {
			qualified = append(qualified, g)
		}
	}

	rate := func(g entityGroup) decimal.Decimal {
		return decimal.NewFromInt(int64(g.wins)).Div(decimal.NewFromInt(int64(g.attempts)))
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return rate(qualified[i]).GreaterThan(rate(qualified[j]))
	})

	table := domain.Table{
		Name:    fmt.Sprintf("%s Strike Rate", category),
		Columns: []string{"Track", "Attempts", "Wins", "Strike Rate"},
		Rows:    make([][]string, 0, len(qualified)),
	}
	for _, g := range qualified {
		table.Rows = append(table.Rows, []string{
			g.entity,
			fmt.Sprintf("%d", g.attempts),
			fmt.Sprintf("%d", g.wins),
			rate(g).RoundBank(2).StringFixed(2),
		})
	}
	return table
}
