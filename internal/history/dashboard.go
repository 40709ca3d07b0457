package history

import (
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/money"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// goalRiskFraction is the share of the weekly goal below which the goal is
// flagged as at risk.
const goalRiskFraction = 0.5

// DayPoint is the revenue and margin of one calendar day.
type DayPoint struct {
	Date      string  `json:"date"`
	Revenue   float64 `json:"revenue"`
	MarginPct float64 `json:"marginPct"`
}

// WeekTotals are the units and profit of one Sunday-to-Saturday week.
type WeekTotals struct {
	Items  int     `json:"items"`
	Profit float64 `json:"profit"`
}

// DashboardData is everything the overview screen shows.
type DashboardData struct {
	Today            Summary        `json:"today"`
	Yesterday        Summary        `json:"yesterday"`
	SalesTrendPct    float64        `json:"salesTrendPct"`
	RevenueTrendPct  float64        `json:"revenueTrendPct"`
	WeekProfit       float64        `json:"weekProfit"`
	Goal             float64        `json:"goal"`
	GoalProgressPct  float64        `json:"goalProgressPct"`
	GoalRemaining    float64        `json:"goalRemaining"`
	GoalAtRisk       bool           `json:"goalAtRisk"`
	ThisWeek         WeekTotals     `json:"thisWeek"`
	LastWeek         WeekTotals     `json:"lastWeek"`
	WeekOverWeekPct  float64        `json:"weekOverWeekPct"`
	TopProductsToday []ProductUnits `json:"topProductsToday"`
	LastSevenDays    []DayPoint     `json:"lastSevenDays"`
}

// DayTrend is the percent change from yesterday to today, or 100 when
// yesterday is 0.
func DayTrend(yesterday, today float64) float64 {
	if yesterday == 0 {
		return 100
	}
	return (today - yesterday) / yesterday * 100
}

// Dashboard builds the overview for now. goal is the weekly profit target.
func Dashboard(sales []storage.Sale, now time.Time, goal float64) DashboardData {
	today := Apply(sales, Filter{Period: PeriodToday}, now)
	yesterday := Apply(sales, Filter{Period: PeriodToday}, now.AddDate(0, 0, -1))

	d := DashboardData{
		Today:            Summarize(today),
		Yesterday:        Summarize(yesterday),
		Goal:             goal,
		TopProductsToday: TopProducts(today, 3),
	}
	d.SalesTrendPct = DayTrend(float64(d.Yesterday.Sales), float64(d.Today.Sales))
	d.RevenueTrendPct = DayTrend(d.Yesterday.Revenue, d.Today.Revenue)

	d.WeekProfit = Summarize(Apply(sales, Filter{Period: PeriodWeek}, now)).Profit
	if goal > 0 {
		d.GoalProgressPct = min(d.WeekProfit/goal*100, 100)
	}
	d.GoalRemaining = money.Round2(max(0, goal-d.WeekProfit))
	d.GoalAtRisk = d.WeekProfit < goal*goalRiskFraction

	d.ThisWeek = weekTotals(sales, now, 0)
	d.LastWeek = weekTotals(sales, now, 1)
	d.WeekOverWeekPct = 100
	if d.LastWeek.Items > 0 {
		d.WeekOverWeekPct = float64(d.ThisWeek.Items-d.LastWeek.Items) / float64(d.LastWeek.Items) * 100
	}

	d.LastSevenDays = make([]DayPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		s := Summarize(Apply(sales, Filter{Period: PeriodToday}, day))
		d.LastSevenDays = append(d.LastSevenDays, DayPoint{
			Date:      day.Format(time.DateOnly),
			Revenue:   s.Revenue,
			MarginPct: s.MarginPct,
		})
	}
	return d
}

// weekTotals sums the calendar week that started offset weeks before the
// week containing now. Weeks start on Sunday.
func weekTotals(sales []storage.Sale, now time.Time, offset int) WeekTotals {
	loc := now.Location()
	start := startOfDay(now, loc).AddDate(0, 0, -(int(now.Weekday()) + 7*offset))
	end := start.AddDate(0, 0, 7)

	var w WeekTotals
	for _, s := range sales {
		ts := s.Timestamp.In(loc)
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		w.Items += s.Quantity
		w.Profit += s.Profit
	}
	w.Profit = money.Round2(w.Profit)
	return w
}
