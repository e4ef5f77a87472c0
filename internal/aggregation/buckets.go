package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"betpulse/pkg/contracts/domain"
)

// bucket is one time bucket with its summed outcome amount. Totals are
// rounded to 2 decimal places half-to-even at bucket level; every derived
// series (cumulative, rolling) sums the rounded bucket values. That single
// rule holds across all tables so row-level rounding never diverges from
// table totals by more than one rounding unit.
type bucket struct {
	start time.Time
	total decimal.Decimal
}

// dateOf truncates a timestamp to its calendar day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStartOf returns the start of the week containing t for the configured
// week boundary.
func weekStartOf(t time.Time, start time.Weekday) time.Time {
	day := dateOf(t)
	diff := (int(day.Weekday()) - int(start) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// monthStartOf returns the first day of the month containing t.
func monthStartOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// bucketBy groups rows into buckets keyed by keyFn, sums raw amounts per
// bucket, rounds each bucket total once, and returns buckets in ascending
// key order.
func bucketBy(rows []domain.EnrichedRecord, keyFn func(time.Time) time.Time) []bucket {
	sums := make(map[time.Time]decimal.Decimal)
	for _, row := range rows {
		key := keyFn(row.SettledAt)
		sums[key] = sums[key].Add(row.OutcomeAmount)
	}

	buckets := make([]bucket, 0, len(sums))
	for start, total := range sums {
		buckets = append(buckets, bucket{start: start, total: total.RoundBank(2)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].start.Before(buckets[j].start)
	})
	return buckets
}

// dailyBuckets returns calendar-day buckets in ascending date order.
func dailyBuckets(rows []domain.EnrichedRecord) []bucket {
	return bucketBy(rows, dateOf)
}

// weeklyBuckets returns weekly buckets for the given week boundary.
func weeklyBuckets(rows []domain.EnrichedRecord, start time.Weekday) []bucket {
	return bucketBy(rows, func(t time.Time) time.Time { return weekStartOf(t, start) })
}

// monthlyBuckets returns calendar-month buckets.
func monthlyBuckets(rows []domain.EnrichedRecord) []bucket {
	return bucketBy(rows, monthStartOf)
}

// dailyTable builds a daily table with a running cumulative column. The
// cumulative sum runs over the whole series in ascending date order and is
// never reset at any boundary.
func dailyTable(name string, days []bucket) domain.Table {
	table := domain.Table{
		Name:    name,
		Columns: []string{"Date", "Daily P/L", "Cumulative P/L"},
		Rows:    make([][]string, 0, len(days)),
	}

	running := decimal.Zero
	for _, day := range days {
		running = running.Add(day.total)
		table.Rows = append(table.Rows, []string{
			day.start.Format("2006-01-02"),
			day.total.StringFixed(2),
			running.StringFixed(2),
		})
	}
	return table
}

// periodTable builds a weekly or monthly table without a cumulative column.
func periodTable(name, periodColumn, amountColumn, dateFormat string, periods []bucket) domain.Table {
	table := domain.Table{
		Name:    name,
		Columns: []string{periodColumn, amountColumn},
		Rows:    make([][]string, 0, len(periods)),
	}
	for _, p := range periods {
		table.Rows = append(table.Rows, []string{
			p.start.Format(dateFormat),
			p.total.StringFixed(2),
		})
	}
	return table
}
