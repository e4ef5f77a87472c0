package aggregation

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betpulse/pkg/contracts/domain"
)

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.Anchor = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return cfg
}

func enriched(category, entity, region string, trackBased bool, settled string, amount string) domain.EnrichedRecord {
	ts, err := time.Parse("2006-01-02 15:04", settled)
	if err != nil {
		panic(err)
	}
	return domain.EnrichedRecord{
		Transaction: domain.Transaction{
			MarketDescription: category + "/" + entity,
			SettledAt:         ts,
			OutcomeAmount:     decimal.RequireFromString(amount),
		},
		Category:   category,
		EntityName: entity,
		Region:     region,
		TrackBased: trackBased,
	}
}

func horse(entity, settled, amount string) domain.EnrichedRecord {
	return enriched("Horse Racing", entity, "AU", true, settled, amount)
}

func TestAggregate_DailyCumulative(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "5.00"),
		horse("Ascot", "2024-01-02 10:00", "-2.00"),
		horse("Ascot", "2024-01-03 10:00", "3.00"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	byDay, ok := set.Table(domain.TableByDay)
	require.True(t, ok)
	require.Len(t, byDay.Rows, 3)

	assert.Equal(t, []string{"2024-01-01", "5.00", "5.00"}, byDay.Rows[0])
	assert.Equal(t, []string{"2024-01-02", "-2.00", "3.00"}, byDay.Rows[1])
	assert.Equal(t, []string{"2024-01-03", "3.00", "6.00"}, byDay.Rows[2])
}

func TestAggregate_DailySumsMultipleRowsPerDay(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "1.25"),
		horse("Ascot", "2024-01-01 19:30", "2.50"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	byDay, _ := set.Table(domain.TableByDay)
	require.Len(t, byDay.Rows, 1)
	assert.Equal(t, "3.75", byDay.Rows[0][1])
}

func TestAggregate_WeeklyBuckets(t *testing.T) {
	// 2024-01-03 is a Wednesday, 2024-01-08 a Monday.
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-03 10:00", "1.00"),
		horse("Ascot", "2024-01-07 10:00", "2.00"),
		horse("Ascot", "2024-01-08 10:00", "4.00"),
	}

	cfg := testEngineConfig()
	set := NewEngine(nil, cfg).Aggregate(rows)
	byWeek, _ := set.Table(domain.TableByWeek)
	require.Len(t, byWeek.Rows, 2)
	assert.Equal(t, []string{"2024-01-01", "3.00"}, byWeek.Rows[0])
	assert.Equal(t, []string{"2024-01-08", "4.00"}, byWeek.Rows[1])

	// Sunday week start moves the boundary: Jan 7 (Sunday) opens a new week.
	cfg.WeekStart = time.Sunday
	set = NewEngine(nil, cfg).Aggregate(rows)
	byWeek, _ = set.Table(domain.TableByWeek)
	require.Len(t, byWeek.Rows, 2)
	assert.Equal(t, []string{"2023-12-31", "1.00"}, byWeek.Rows[0])
	assert.Equal(t, []string{"2024-01-07", "6.00"}, byWeek.Rows[1])
}

func TestAggregate_MonthlyBuckets(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-15 10:00", "1.00"),
		horse("Ascot", "2024-01-31 10:00", "2.00"),
		horse("Ascot", "2024-02-01 10:00", "4.00"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	byMonth, _ := set.Table(domain.TableByMonth)
	require.Len(t, byMonth.Rows, 2)
	assert.Equal(t, []string{"2024-01", "3.00"}, byMonth.Rows[0])
	assert.Equal(t, []string{"2024-02", "4.00"}, byMonth.Rows[1])
}

func TestAggregate_RollingWindows(t *testing.T) {
	// Four consecutive Mondays with one settled bet each.
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "1.00"),
		horse("Ascot", "2024-01-08 10:00", "2.00"),
		horse("Ascot", "2024-01-15 10:00", "4.00"),
		horse("Ascot", "2024-01-22 10:00", "8.00"),
	}

	cfg := testEngineConfig()
	cfg.RollingWindows = []int{2, 4}
	set := NewEngine(nil, cfg).Aggregate(rows)

	rolling, ok := set.Table(domain.TableRolling)
	require.True(t, ok)
	assert.Equal(t, []string{"Week Starting", "Sum 2w", "Sum 4w", "Strike 2w", "Strike 4w"}, rolling.Columns)
	require.Len(t, rolling.Rows, 4)
	// Every settled day wins, so all strike columns read 1.00.
	assert.Equal(t, []string{"2024-01-01", "1.00", "1.00", "1.00", "1.00"}, rolling.Rows[0])
	assert.Equal(t, []string{"2024-01-08", "3.00", "3.00", "1.00", "1.00"}, rolling.Rows[1])
	assert.Equal(t, []string{"2024-01-15", "6.00", "7.00", "1.00", "1.00"}, rolling.Rows[2])
	assert.Equal(t, []string{"2024-01-22", "12.00", "15.00", "1.00", "1.00"}, rolling.Rows[3])
}

func TestAggregate_RollingStrikeRate(t *testing.T) {
	// Week of Jan 1: two winning days, one losing. Week of Jan 8: one
	// winning day out of two.
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "2.00"),
		horse("Ascot", "2024-01-02 10:00", "3.00"),
		horse("Ascot", "2024-01-03 10:00", "-1.00"),
		horse("Ascot", "2024-01-08 10:00", "-2.00"),
		horse("Ascot", "2024-01-09 10:00", "4.00"),
	}

	cfg := testEngineConfig()
	cfg.RollingWindows = []int{2}
	set := NewEngine(nil, cfg).Aggregate(rows)

	rolling, _ := set.Table(domain.TableRolling)
	require.Len(t, rolling.Rows, 2)
	// Week 1 alone: 2 wins of 3 days. Window over both weeks: 3 of 5.
	assert.Equal(t, []string{"2024-01-01", "4.00", "0.67"}, rolling.Rows[0])
	assert.Equal(t, []string{"2024-01-08", "6.00", "0.60"}, rolling.Rows[1])
}

func TestAggregate_WorstDays(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "5.00"),
		horse("Ascot", "2024-01-02 10:00", "-8.00"),
		horse("Ascot", "2024-01-03 10:00", "-1.50"),
		horse("Ascot", "2024-01-04 10:00", "2.00"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	worst, ok := set.Table(domain.TableWorstDays)
	require.True(t, ok)
	assert.Equal(t, []string{"Date", "Daily P/L"}, worst.Columns)
	require.Len(t, worst.Rows, 4)

	// Worst first, ascending by daily total.
	assert.Equal(t, []string{"2024-01-02", "-8.00"}, worst.Rows[0])
	assert.Equal(t, []string{"2024-01-03", "-1.50"}, worst.Rows[1])
	assert.Equal(t, []string{"2024-01-04", "2.00"}, worst.Rows[2])
	assert.Equal(t, []string{"2024-01-01", "5.00"}, worst.Rows[3])
}

func TestAggregate_WorstDaysCapped(t *testing.T) {
	var rows []domain.EnrichedRecord
	for i := 1; i <= 25; i++ {
		day := fmt.Sprintf("2024-01-%02d 10:00", i)
		amount := fmt.Sprintf("-%d.00", i)
		rows = append(rows, horse("Ascot", day, amount))
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	worst, _ := set.Table(domain.TableWorstDays)
	require.Len(t, worst.Rows, 20)
	assert.Equal(t, []string{"2024-01-25", "-25.00"}, worst.Rows[0])
	assert.Equal(t, []string{"2024-01-06", "-6.00"}, worst.Rows[19])
}

func TestAggregate_RollingAnchorExcludesEarlierPeriods(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2023-12-18 10:00", "100.00"),
		horse("Ascot", "2024-01-01 10:00", "1.00"),
		horse("Ascot", "2024-01-08 10:00", "2.00"),
	}

	cfg := testEngineConfig()
	cfg.RollingWindows = []int{2}
	set := NewEngine(nil, cfg).Aggregate(rows)

	rolling, _ := set.Table(domain.TableRolling)
	require.Len(t, rolling.Rows, 2)
	// The pre-anchor period is excluded entirely, not treated as zero.
	assert.Equal(t, []string{"2024-01-01", "1.00", "1.00"}, rolling.Rows[0])
	assert.Equal(t, []string{"2024-01-08", "3.00", "1.00"}, rolling.Rows[1])
}

func TestAggregate_CategoricalBreakdowns(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "5.00"),
		enriched("Soccer", "", "Unclassified", false, "2024-01-01 12:00", "-1.00"),
		enriched("Greyhound Racing", "Wentworth Park", "AU", true, "2024-01-02 10:00", "2.00"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)

	byCategory, _ := set.Table(domain.TableByCategory)
	require.Len(t, byCategory.Rows, 3)
	// Ordered by total descending; absent categories are omitted.
	assert.Equal(t, []string{"Horse Racing", "5.00"}, byCategory.Rows[0])
	assert.Equal(t, []string{"Greyhound Racing", "2.00"}, byCategory.Rows[1])
	assert.Equal(t, []string{"Soccer", "-1.00"}, byCategory.Rows[2])

	byRegion, _ := set.Table(domain.TableByRegion)
	require.Len(t, byRegion.Rows, 2)
	assert.Equal(t, []string{"AU", "7.00"}, byRegion.Rows[0])
	assert.Equal(t, []string{"Unclassified", "-1.00"}, byRegion.Rows[1])
}

func TestAggregate_PerCategoryDailyTablesAreDataDependent(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "5.00"),
		enriched("Soccer", "", "Unclassified", false, "2024-01-01 12:00", "-1.00"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)

	horseDaily, ok := set.Table("Horse Racing Daily")
	require.True(t, ok)
	require.Len(t, horseDaily.Rows, 1)
	assert.Equal(t, []string{"2024-01-01", "5.00", "5.00"}, horseDaily.Rows[0])

	_, ok = set.Table("Tennis Daily")
	assert.False(t, ok)
}

func TestAggregate_Leaderboards(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "5.00"),
		horse("Randwick", "2024-01-01 11:00", "5.00"), // ties with Ascot, appears later
		horse("Flemington", "2024-01-01 12:00", "-3.00"),
	}

	cfg := testEngineConfig()
	cfg.LeaderboardSize = 2
	set := NewEngine(nil, cfg).Aggregate(rows)

	top, ok := set.Table("Top Horse Racing Tracks")
	require.True(t, ok)
	require.Len(t, top.Rows, 2)
	// Stable sort: the tie keeps first-appearance order.
	assert.Equal(t, []string{"Ascot", "5.00"}, top.Rows[0])
	assert.Equal(t, []string{"Randwick", "5.00"}, top.Rows[1])

	bottom, ok := set.Table("Bottom Horse Racing Tracks")
	require.True(t, ok)
	require.Len(t, bottom.Rows, 2)
	assert.Equal(t, []string{"Flemington", "-3.00"}, bottom.Rows[0])
	assert.Equal(t, []string{"Ascot", "5.00"}, bottom.Rows[1])
}

func TestAggregate_StrikeRateThreshold(t *testing.T) {
	var rows []domain.EnrichedRecord
	addAttempts := func(entity string, attempts, wins int) {
		for i := 0; i < attempts; i++ {
			amount := "-1.00"
			if i < wins {
				amount = "1.00"
			}
			day := fmt.Sprintf("2024-01-%02d 10:00", i%28+1)
			rows = append(rows, horse(entity, day, amount))
		}
	}
	addAttempts("Ascot", 50, 30)
	addAttempts("Randwick", 49, 30)

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	table, ok := set.Table("Horse Racing Strike Rate")
	require.True(t, ok)

	// The 49-attempt group is excluded by the significance floor.
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"Ascot", "50", "30", "0.60"}, table.Rows[0])
}

func TestAggregate_EmptyInput(t *testing.T) {
	set := NewEngine(nil, testEngineConfig()).Aggregate(nil)

	for _, name := range []string{
		domain.TableByDay, domain.TableByWeek, domain.TableByMonth,
		domain.TableByCategory, domain.TableByRegion, domain.TableWorstDays,
		domain.TableRolling,
	} {
		table, ok := set.Table(name)
		require.True(t, ok, "missing table %s", name)
		assert.Empty(t, table.Rows)
	}

	require.NotEmpty(t, set.KPIs)
	assert.Equal(t, domain.KPI{Label: "Total P/L", Value: "0.00"}, set.KPIs[0])
	assert.Equal(t, domain.KPI{Label: "Rows", Value: "0"}, set.KPIs[1])
}

func TestAggregate_RoundingConsistency(t *testing.T) {
	// Sub-cent amounts: summing the rounded column must reproduce the
	// reported total within one rounding unit.
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "1.114"),
		horse("Ascot", "2024-01-02 10:00", "2.225"),
		horse("Ascot", "2024-01-03 10:00", "3.331"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	byDay, _ := set.Table(domain.TableByDay)

	columnSum := decimal.Zero
	for _, row := range byDay.Rows {
		columnSum = columnSum.Add(decimal.RequireFromString(row[1]))
	}

	var total decimal.Decimal
	for _, kpi := range set.KPIs {
		if kpi.Label == "Total P/L" {
			total = decimal.RequireFromString(kpi.Value)
		}
	}

	diff := columnSum.Sub(total).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.01")),
		"column sum %s vs total %s", columnSum, total)

	// Cumulative column equals prefix sums over the rounded daily values.
	assert.Equal(t, columnSum.StringFixed(2), byDay.Rows[len(byDay.Rows)-1][2])
}

func TestBuildKPIs(t *testing.T) {
	rows := []domain.EnrichedRecord{
		horse("Ascot", "2024-01-01 10:00", "5.00"),
		horse("Ascot", "2024-01-02 10:00", "-2.00"),
		horse("Ascot", "2024-01-03 10:00", "-4.00"),
		horse("Ascot", "2024-01-04 10:00", "3.00"),
	}

	set := NewEngine(nil, testEngineConfig()).Aggregate(rows)
	kpis := make(map[string]string, len(set.KPIs))
	for _, kpi := range set.KPIs {
		kpis[kpi.Label] = kpi.Value
	}

	assert.Equal(t, "2.00", kpis["Total P/L"])
	assert.Equal(t, "4", kpis["Rows"])
	assert.Equal(t, "4", kpis["Settled days"])
	assert.Equal(t, "5.00", kpis["Best day"])
	assert.Equal(t, "-4.00", kpis["Worst day"])
	assert.Equal(t, "0.50", kpis["Average daily"])
	assert.Equal(t, "0.50", kpis["Median daily"])
	assert.Equal(t, "0.50", kpis["Daily strike rate"])
	// Equity runs 5, 3, -1, 2; the deepest dip from the peak of 5 is -6.
	assert.Equal(t, "-6.00", kpis["Max drawdown"])
	assert.Equal(t, "1", kpis["Longest winning streak (days)"])
	assert.Equal(t, "2", kpis["Longest losing streak (days)"])
	assert.NotEmpty(t, kpis["Generated at"])
}
