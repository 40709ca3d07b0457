// Package history derives reports from the committed sales: filtered views,
// period summaries, best sellers, weekly forecasts and the dashboard cards.
// All functions are pure and take the reference time explicitly.
package history

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/money"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// Period selects a relative time window ending at the reference time.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Filter narrows the history. From and To are calendar days and both are
// inclusive; zero values disable them. Search matches client or product
// name, case-insensitively.
type Filter struct {
	Period Period
	From   time.Time
	To     time.Time
	Search string
}

// Apply returns the sales matching f, newest first.
func Apply(sales []storage.Sale, f Filter, now time.Time) []storage.Sale {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	loc := now.Location()

	out := make([]storage.Sale, 0, len(sales))
	for _, s := range sales {
		ts := s.Timestamp.In(loc)
		switch f.Period {
		case PeriodToday:
			if !sameDay(ts, now) {
				continue
			}
		case PeriodWeek:
			if ts.Before(now.AddDate(0, 0, -7)) {
				continue
			}
		case PeriodMonth:
			if ts.Before(now.AddDate(0, -1, 0)) {
				continue
			}
		}
		if !f.From.IsZero() && ts.Before(startOfDay(f.From, loc)) {
			continue
		}
		if !f.To.IsZero() && !ts.Before(startOfDay(f.To, loc).AddDate(0, 0, 1)) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.ClientLabel), search) &&
			!strings.Contains(strings.ToLower(s.ProductName), search) {
			continue
		}
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b storage.Sale) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// Summary totals a set of sales.
type Summary struct {
	Sales     int     `json:"sales"`
	Items     int     `json:"items"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	MarginPct float64 `json:"marginPct"`
}

func Summarize(sales []storage.Sale) Summary {
	var s Summary
	for _, sale := range sales {
		s.Sales++
		s.Items += sale.Quantity
		s.Revenue += sale.Total
		s.Profit += sale.Profit
	}
	if s.Revenue > 0 {
		s.MarginPct = money.Round2(s.Profit / s.Revenue * 100)
	}
	s.Revenue = money.Round2(s.Revenue)
	s.Profit = money.Round2(s.Profit)
	return s
}

// ProductUnits is the number of units sold of one product.
type ProductUnits struct {
	Product string `json:"product"`
	Units   int    `json:"units"`
}

// TopProducts ranks products by units sold. Ties keep the order in which the
// product first appears in sales. n <= 0 returns every product.
func TopProducts(sales []storage.Sale, n int) []ProductUnits {
	index := make(map[string]int)
	ranked := []ProductUnits{}
	for _, s := range sales {
		i, ok := index[s.ProductName]
		if !ok {
			i = len(ranked)
			index[s.ProductName] = i
			ranked = append(ranked, ProductUnits{Product: s.ProductName})
		}
		ranked[i].Units += s.Quantity
	}

	slices.SortStableFunc(ranked, func(a, b ProductUnits) int { return cmp.Compare(b.Units, a.Units) })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
