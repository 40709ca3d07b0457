package history

import (
	"math"
	"testing"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// now is a Tuesday; its week started on Sunday 2026-03-08.
var now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2026, month, day, hour, 0, 0, 0, time.UTC)
}

func fixture() []storage.Sale {
	return []storage.Sale{
		{ID: "s5", Timestamp: at(time.February, 20, 10), ClientLabel: "Ana", ProductName: "Produto C", Quantity: 5, Total: 500, Profit: 100},
		{ID: "s4", Timestamp: at(time.March, 5, 10), ClientLabel: "Carla", ProductName: "Produto A", Quantity: 1, Total: 199.90, Profit: 71.91},
		{ID: "s3", Timestamp: at(time.March, 9, 12), ClientLabel: "Ana", ProductName: "Produto B", Quantity: 3, Total: 300, Profit: 60},
		{ID: "s2", Timestamp: at(time.March, 10, 9), ClientLabel: "Bruno", ProductName: "Produto B", Quantity: 1, Total: 100, Profit: 20},
		{ID: "s1", Timestamp: at(time.March, 10, 10), ClientLabel: "Ana", ProductName: "Produto A", Quantity: 2, Total: 399.80, Profit: 143.83},
	}
}

func ids(sales []storage.Sale) []string {
	out := make([]string, len(sales))
	for i, s := range sales {
		out[i] = s.ID
	}
	return out
}

func equalIDs(t *testing.T, got []storage.Sale, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestApply_Periods(t *testing.T) {
	sales := fixture()

	equalIDs(t, Apply(sales, Filter{}, now), "s1", "s2", "s3", "s4", "s5")
	equalIDs(t, Apply(sales, Filter{Period: PeriodAll}, now), "s1", "s2", "s3", "s4", "s5")
	equalIDs(t, Apply(sales, Filter{Period: PeriodToday}, now), "s1", "s2")
	equalIDs(t, Apply(sales, Filter{Period: PeriodWeek}, now), "s1", "s2", "s3", "s4")
	equalIDs(t, Apply(sales, Filter{Period: PeriodMonth}, now), "s1", "s2", "s3", "s4", "s5")
}

func TestApply_DateRangeIsInclusive(t *testing.T) {
	f := Filter{From: at(time.March, 5, 0), To: at(time.March, 9, 0)}
	equalIDs(t, Apply(fixture(), f, now), "s3", "s4")
}

func TestApply_SearchMatchesClientOrProduct(t *testing.T) {
	equalIDs(t, Apply(fixture(), Filter{Search: " ANA "}, now), "s1", "s3", "s5")
	equalIDs(t, Apply(fixture(), Filter{Search: "produto b"}, now), "s2", "s3")
	equalIDs(t, Apply(fixture(), Filter{Search: "nobody"}, now))
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture())

	if s.Sales != 5 || s.Items != 12 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	nearlyEqual(t, "revenue", s.Revenue, 1499.70)
	nearlyEqual(t, "profit", s.Profit, 395.74)
	nearlyEqual(t, "margin", s.MarginPct, 26.39)

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestTopProducts(t *testing.T) {
	top := TopProducts(fixture(), 2)
	if len(top) != 2 || top[0] != (ProductUnits{"Produto C", 5}) || top[1] != (ProductUnits{"Produto B", 4}) {
		t.Fatalf("unexpected ranking: %+v", top)
	}

	all := TopProducts(fixture(), 0)
	if len(all) != 3 || all[2].Product != "Produto A" || all[2].Units != 3 {
		t.Fatalf("unexpected ranking: %+v", all)
	}

	tied := TopProducts([]storage.Sale{
		{ProductName: "X", Quantity: 2},
		{ProductName: "Y", Quantity: 2},
	}, 5)
	if tied[0].Product != "X" || tied[1].Product != "Y" {
		t.Fatalf("ties must keep first-seen order: %+v", tied)
	}
}

func TestDashboard(t *testing.T) {
	d := Dashboard(fixture(), now, 1000)

	if d.Today.Sales != 2 || d.Yesterday.Sales != 1 {
		t.Fatalf("unexpected day counts: %+v / %+v", d.Today, d.Yesterday)
	}
	nearlyEqual(t, "todayRevenue", d.Today.Revenue, 499.80)
	nearlyEqual(t, "salesTrend", d.SalesTrendPct, 100)
	nearlyEqual(t, "revenueTrend", d.RevenueTrendPct, (499.80-300)/300*100)

	nearlyEqual(t, "weekProfit", d.WeekProfit, 295.74)
	nearlyEqual(t, "goalProgress", d.GoalProgressPct, 29.574)
	nearlyEqual(t, "goalRemaining", d.GoalRemaining, 704.26)
	if !d.GoalAtRisk {
		t.Fatalf("expected goal at risk")
	}

	if d.ThisWeek.Items != 6 || d.LastWeek.Items != 1 {
		t.Fatalf("unexpected week totals: %+v / %+v", d.ThisWeek, d.LastWeek)
	}
	nearlyEqual(t, "thisWeekProfit", d.ThisWeek.Profit, 223.83)
	nearlyEqual(t, "weekOverWeek", d.WeekOverWeekPct, 500)

	if len(d.TopProductsToday) != 2 || d.TopProductsToday[0].Product != "Produto A" {
		t.Fatalf("unexpected top products: %+v", d.TopProductsToday)
	}

	if len(d.LastSevenDays) != 7 {
		t.Fatalf("expected 7 day points, got %d", len(d.LastSevenDays))
	}
	last := d.LastSevenDays[6]
	if last.Date != "2026-03-10" {
		t.Fatalf("last day = %s", last.Date)
	}
	nearlyEqual(t, "lastRevenue", last.Revenue, 499.80)
	nearlyEqual(t, "yesterdayMargin", d.LastSevenDays[5].MarginPct, 20)
	nearlyEqual(t, "emptyDay", d.LastSevenDays[0].Revenue, 0)
}

func TestDashboard_GoalCapsAtHundred(t *testing.T) {
	sales := []storage.Sale{{Timestamp: now.Add(-time.Hour), Quantity: 1, Total: 5000, Profit: 2500}}
	d := Dashboard(sales, now, 1000)

	nearlyEqual(t, "progress", d.GoalProgressPct, 100)
	nearlyEqual(t, "remaining", d.GoalRemaining, 0)
	if d.GoalAtRisk {
		t.Fatalf("goal should not be at risk")
	}
	nearlyEqual(t, "salesTrend", d.SalesTrendPct, 100)
	nearlyEqual(t, "weekOverWeek", d.WeekOverWeekPct, 100)
}

func TestDayTrend(t *testing.T) {
	nearlyEqual(t, "from zero", DayTrend(0, 7), 100)
	nearlyEqual(t, "growth", DayTrend(200, 300), 50)
	nearlyEqual(t, "drop", DayTrend(4, 1), -75)
}
