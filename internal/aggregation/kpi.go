package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"betpulse/pkg/contracts/domain"
)

// buildKPIs computes the headline metrics from the rounded daily series.
// Labels and ordering are part of the sink contract.
func buildKPIs(days []bucket, rowCount int, now time.Time) []domain.KPI {
	total := decimal.Zero
	best := decimal.Zero
	worst := decimal.Zero
	winningDays := 0

	for i, day := range days {
		total = total.Add(day.total)
		if i == 0 || day.total.GreaterThan(best) {
			best = day.total
		}
		if i == 0 || day.total.LessThan(worst) {
			worst = day.total
		}
		if day.total.IsPositive() {
			winningDays++
		}
	}

	avg := decimal.Zero
	strikeRate := decimal.Zero
	if len(days) > 0 {
		n := decimal.NewFromInt(int64(len(days)))
		avg = total.Div(n)
		strikeRate = decimal.NewFromInt(int64(winningDays)).Div(n)
	}

	maxDD := maxDrawdown(days)
	winStreak, lossStreak := streaks(days)

	return []domain.KPI{
		{Label: "Total P/L", Value: total.RoundBank(2).StringFixed(2)},
		{Label: "Rows", Value: fmt.Sprintf("%d", rowCount)},
		{Label: "Settled days", Value: fmt.Sprintf("%d", len(days))},
		{Label: "Best day", Value: best.StringFixed(2)},
		{Label: "Worst day", Value: worst.StringFixed(2)},
		{Label: "Average daily", Value: avg.RoundBank(2).StringFixed(2)},
		{Label: "Median daily", Value: medianDaily(days).StringFixed(2)},
		{Label: "Daily strike rate", Value: strikeRate.RoundBank(2).StringFixed(2)},
		{Label: "Max drawdown", Value: maxDD.StringFixed(2)},
		{Label: "Longest winning streak (days)", Value: fmt.Sprintf("%d", winStreak)},
		{Label: "Longest losing streak (days)", Value: fmt.Sprintf("%d", lossStreak)},
		{Label: "Generated at", Value: now.Format(time.RFC3339)},
	}
}

// medianDaily returns the median of the rounded daily totals.
func medianDaily(days []bucket) decimal.Decimal {
	if len(days) == 0 {
		return decimal.Zero
	}
	totals := make([]decimal.Decimal, len(days))
	for i, day := range days {
		totals[i] = day.total
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].LessThan(totals[j]) })

	mid := len(totals) / 2
	if len(totals)%2 == 1 {
		return totals[mid]
	}
	return totals[mid-1].Add(totals[mid]).Div(decimal.NewFromInt(2)).RoundBank(2)
}

// maxDrawdown is the most negative equity dip from its running peak over the
// daily series, expressed as a non-positive amount.
func maxDrawdown(days []bucket) decimal.Decimal {
	equity := decimal.Zero
	peak := decimal.Zero
	maxDD := decimal.Zero

	for _, day := range days {
		equity = equity.Add(day.total)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		dd := equity.Sub(peak)
		if dd.LessThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}

// streaks returns the longest run of consecutive winning days and of
// consecutive losing days.
func streaks(days []bucket) (longestWin, longestLoss int) {
	curWin, curLoss := 0, 0
	for _, day := range days {
		if day.total.IsPositive() {
			curWin++
			if curWin > longestWin {
				longestWin = curWin
			}
		} else {
			curWin = 0
		}
		if day.total.IsNegative() {
			curLoss++
			if curLoss > longestLoss {
				longestLoss = curLoss
			}
		} else {
			curLoss = 0
		}
	}
	return longestWin, longestLoss
}
