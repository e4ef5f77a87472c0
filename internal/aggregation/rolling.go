package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"betpulse/pkg/contracts/domain"
)

// rollingPeriod is one weekly period of the rolling series: the summed
// rounded daily totals plus the win/settled day counts feeding the rolling
// strike-rate columns.
type rollingPeriod struct {
	start       time.Time
	total       decimal.Decimal
	winDays     int
	settledDays int
}

// rollingPeriods groups the rounded daily buckets into weekly periods for
// the configured week boundary, in ascending order. A win day is a day with
// a strictly positive total.
func rollingPeriods(days []bucket, weekStart time.Weekday) []rollingPeriod {
	index := make(map[time.Time]int)
	var periods []rollingPeriod

	for _, day := range days {
		week := weekStartOf(day.start, weekStart)
		i, ok := index[week]
		if !ok {
			i = len(periods)
			index[week] = i
			periods = append(periods, rollingPeriod{start: week})
		}
		periods[i].total = periods[i].total.Add(day.total)
		periods[i].settledDays++
		if day.total.IsPositive() {
			periods[i].winDays++
		}
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].start.Before(periods[j].start)
	})
	return periods
}

// rollingTable computes trailing window sums and strike rates over weekly
// periods. Periods starting before the week containing the anchor date are
// excluded entirely, not zero-filled. Each configured window length yields a
// sum column and a strike-rate column; at period i the window covers the
// trailing min(length, i+1) retained periods. The strike rate is the winning
// fraction of settled days inside the window.
func rollingTable(name string, periods []rollingPeriod, cfg Config) domain.Table {
	columns := []string{"Week Starting"}
	for _, w := range cfg.RollingWindows {
		columns = append(columns, fmt.Sprintf("Sum %dw", w))
	}
	for _, w := range cfg.RollingWindows {
		columns = append(columns, fmt.Sprintf("Strike %dw", w))
	}

	anchorWeek := weekStartOf(cfg.Anchor, cfg.WeekStart)
	retained := periods[:0:0]
	for _, p := range periods {
		if p.start.Before(anchorWeek) {
			continue
		}
		retained = append(retained, p)
	}

	table := domain.Table{
		Name:    name,
		Columns: columns,
		Rows:    make([][]string, 0, len(retained)),
	}

	for i, p := range retained {
		row := []string{p.start.Format("2006-01-02")}
		for _, w := range cfg.RollingWindows {
			sum := decimal.Zero
			for _, prev := range window(retained, i, w) {
				sum = sum.Add(prev.total)
			}
			row = append(row, sum.StringFixed(2))
		}
		for _, w := range cfg.RollingWindows {
			wins, settled := 0, 0
			for _, prev := range window(retained, i, w) {
				wins += prev.winDays
				settled += prev.settledDays
			}
			row = append(row, strikeRateValue(wins, settled))
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// window returns the trailing slice of up to w periods ending at index i.
func window(periods []rollingPeriod, i, w int) []rollingPeriod {
	from := i - w + 1
	if from < 0 {
		from = 0
	}
	return periods[from : i+1]
}

func strikeRateValue(wins, settled int) string {
	if settled == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(int64(wins)).
		Div(decimal.NewFromInt(int64(settled))).
		RoundBank(2).StringFixed(2)
}

// worstDaysCap bounds the worst-days table, matching the risk report's
// twenty-row convention.
const worstDaysCap = 20

// worstDaysTable lists the most damaging settled days, worst first. The
// daily totals are the same rounded buckets the daily table is built from.
func worstDaysTable(days []bucket) domain.Table {
	ranked := make([]bucket, len(days))
	copy(ranked, days)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total.LessThan(ranked[j].total)
	})
	if len(ranked) > worstDaysCap {
		ranked = ranked[:worstDaysCap]
	}

	table := domain.Table{
		Name:    domain.TableWorstDays,
		Columns: []string{"Date", "Daily P/L"},
		Rows:    make([][]string, 0, len(ranked)),
	}
	for _, day := range ranked {
		table.Rows = append(table.Rows, []string{
			day.start.Format("2006-01-02"),
			day.total.StringFixed(2),
		})
	}
	return table
}
