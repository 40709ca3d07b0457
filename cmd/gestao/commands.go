package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/history"
	"github.com/danieldesouzalongo/01gestao/internal/inventory"
	"github.com/danieldesouzalongo/01gestao/internal/money"
	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/seed"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

func (a *app) cmdSeed(ctx context.Context, args []string) error {
	stats, err := seed.Run(ctx, a.store)
	if err != nil {
		return err
	}
	slog.Info("Seed finished", "inserts", stats.Inserts)
	return a.writeJSON(stats)
}

// costConfig returns the saved configuration, or the defaults.
func (a *app) costConfig(ctx context.Context) (pricing.CostConfig, error) {
	cfg, ok, err := a.store.LoadCostConfig(ctx)
	if err != nil {
		return pricing.CostConfig{}, err
	}
	if !ok {
		return pricing.DefaultCostConfig(), nil
	}
	return cfg, nil
}

type productView struct {
	storage.Product
	Level inventory.StockLevel `json:"level"`
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := newFlagSet("products " + action)
	id := fs.Int64("id", 0, "product id")
	name := fs.String("name", "", "product name")
	qty := fs.Int("qty", 10, "units in stock")
	cost := fs.Float64("cost", 100, "unit cost")
	weight := fs.Int("weight", 800, "unit weight in grams")
	price := fs.Float64("price", 199.90, "unit price")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("products: %w", err)
	}

	switch action {
	case "list":
	case "add":
		p, err := a.inv.AddProduct(ctx, storage.Product{
			Name: *name, Quantity: *qty, UnitCost: *cost, UnitWeightGrams: *weight, UnitPrice: *price,
		})
		if err != nil {
			return err
		}
		return a.writeJSON(p)
	case "set":
		current, err := a.store.GetProduct(ctx, *id)
		if err != nil {
			return fmt.Errorf("products set: %w", err)
		}
		// Only flags given on the command line replace stored values.
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				current.Name = *name
			case "qty":
				current.Quantity = *qty
			case "cost":
				current.UnitCost = *cost
			case "weight":
				current.UnitWeightGrams = *weight
			case "price":
				current.UnitPrice = *price
			}
		})
		p, err := a.inv.UpdateProduct(ctx, current)
		if err != nil {
			return err
		}
		return a.writeJSON(p)
	case "rm":
		if err := a.inv.RemoveProduct(ctx, *id); err != nil {
			return err
		}
		return a.writeJSON(map[string]int64{"removed": *id})
	default:
		return fmt.Errorf("products: unknown action %q", action)
	}

	products, err := a.inv.Products(ctx)
	if err != nil {
		return err
	}
	summary, err := a.inv.Summary(ctx)
	if err != nil {
		return err
	}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, Level: inventory.Level(p.Quantity)}
	}
	return a.writeJSON(struct {
		Products []productView          `json:"products"`
		Summary  inventory.StockSummary `json:"summary"`
	}{views, summary})
}

// loadRecompute reads line items from itemsPath and the cost config from
// configPath, or from the store when configPath is empty.
func (a *app) loadRecompute(ctx context.Context, itemsPath, configPath string) (pricing.AggregateResult, pricing.CostConfig, error) {
	if itemsPath == "" {
		return pricing.AggregateResult{}, pricing.CostConfig{}, errors.New("missing -items file")
	}
	var items []pricing.LineItem
	if err := readJSONFile(itemsPath, &items); err != nil {
		return pricing.AggregateResult{}, pricing.CostConfig{}, err
	}

	var cfg pricing.CostConfig
	if configPath != "" {
		cfg = pricing.DefaultCostConfig()
		if err := readJSONFile(configPath, &cfg); err != nil {
			return pricing.AggregateResult{}, pricing.CostConfig{}, err
		}
	} else {
		var err error
		if cfg, err = a.costConfig(ctx); err != nil {
			return pricing.AggregateResult{}, pricing.CostConfig{}, err
		}
	}

	for i, item := range items {
		if item != pricing.NormalizeLineItem(item) {
			slog.Debug("Line item normalized", "row", i+1, "client", item.ClientID)
		}
	}

	r := pricing.Recompute(items, cfg)
	a.metrics.ObserveRecompute(r.NetProfit, r.MarginPct)
	return r, cfg, nil
}

func (a *app) cmdRecompute(ctx context.Context, args []string) error {
	fs := newFlagSet("recompute")
	itemsPath := fs.String("items", "", "JSON file with an array of line items")
	configPath := fs.String("config", "", "JSON cost config (default: saved config)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("recompute: %w", err)
	}

	r, cfg, err := a.loadRecompute(ctx, *itemsPath, *configPath)
	if err != nil {
		return err
	}
	return a.writeJSON(struct {
		Result     pricing.AggregateResult `json:"result"`
		Assessment pricing.Assessment      `json:"assessment"`
		Goal       pricing.GoalProgress    `json:"goal"`
		Display    map[string]string       `json:"display"`
	}{
		Result:     r,
		Assessment: pricing.Assess(r),
		Goal:       pricing.Goal(r.NetProfit, cfg.TargetProfit),
		Display: map[string]string{
			"revenue":   money.FormatBRL(r.Revenue),
			"netProfit": money.FormatBRL(r.NetProfit),
			"margin":    money.FormatPercent(r.MarginPct),
		},
	})
}

func (a *app) cmdSimulate(ctx context.Context, args []string) error {
	fs := newFlagSet("simulate")
	itemsPath := fs.String("items", "", "JSON file with an array of line items")
	configPath := fs.String("config", "", "JSON cost config (default: saved config)")
	kind := fs.String("kind", "price", "scenario: price, cost or ad")
	value := fs.Float64("value", 10, "percent change for price and cost scenarios")
	adType := fs.String("ad", string(pricing.AdPremium), "ad type for the ad scenario")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	r, cfg, err := a.loadRecompute(ctx, *itemsPath, *configPath)
	if err != nil {
		return err
	}
	base := pricing.BaselineFrom(r)

	var out pricing.ScenarioResult
	switch *kind {
	case "price":
		out = pricing.SimulatePriceChange(base, *value)
	case "cost":
		out = pricing.SimulateCostChange(base, *value)
	case "ad":
		out = pricing.SimulateAdTypeChange(base, pricing.AdType(*adType), cfg)
	default:
		return fmt.Errorf("simulate: unknown kind %q", *kind)
	}
	return a.writeJSON(struct {
		Baseline pricing.Baseline       `json:"baseline"`
		Scenario pricing.ScenarioResult `json:"scenario"`
	}{base, out})
}

func (a *app) cmdSuggest(ctx context.Context, args []string) error {
	fs := newFlagSet("suggest")
	itemsPath := fs.String("items", "", "JSON file with an array of line items")
	configPath := fs.String("config", "", "JSON cost config (default: saved config)")
	margin := fs.Float64("margin", 30, "target margin percent")
	competitor := fs.Float64("competitor", 0, "competitor price (0 skips the comparison)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("suggest: %w", err)
	}

	r, _, err := a.loadRecompute(ctx, *itemsPath, *configPath)
	if err != nil {
		return err
	}
	return a.writeJSON(pricing.SuggestPrice(r, *margin, *competitor))
}

func (a *app) cmdSell(ctx context.Context, args []string) error {
	fs := newFlagSet("sell")
	req := inventory.CommitRequest{}
	fs.Int64Var(&req.ProductID, "product", 0, "product id")
	fs.IntVar(&req.Quantity, "qty", 1, "units to sell")
	fs.Float64Var(&req.UnitPrice, "price", 0, "unit price (default: product price)")
	fs.Float64Var(&req.UnitCost, "cost", 0, "unit cost (default: product cost)")
	fs.StringVar(&req.ClientLabel, "client", "", "client label")
	channel := fs.String("channel", string(pricing.ChannelPix), "payment channel: card, pix or boleto")
	origin := fs.String("origin", string(storage.OriginPanel), "origin tag: line or panel")
	adType := fs.String("ad", "", "ad type for this sale (default: saved config)")
	preview := fs.Bool("preview", false, "show the receipt without committing")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("sell: %w", err)
	}
	req.PaymentChannel = pricing.PaymentChannel(*channel)
	req.Origin = storage.Origin(*origin)
	req.AdType = pricing.AdType(*adType)

	if *preview {
		r, err := a.inv.PreviewSale(ctx, req)
		if err != nil {
			return err
		}
		return a.writeJSON(r)
	}

	r, err := a.inv.CommitSale(ctx, req)
	if err != nil {
		return err
	}
	if inventory.Level(r.RemainingStock) != inventory.StockOK {
		slog.Warn("Stock low", "product", r.Sale.ProductName, "remaining", r.RemainingStock)
	}
	return a.writeJSON(r)
}

func (a *app) cmdSellBatch(ctx context.Context, args []string) error {
	fs := newFlagSet("sell-batch")
	path := fs.String("file", "", "JSON file with an array of sale requests")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("sell-batch: %w", err)
	}
	if *path == "" {
		return errors.New("sell-batch: missing -file")
	}

	var reqs []inventory.CommitRequest
	if err := readJSONFile(*path, &reqs); err != nil {
		return err
	}
	out, err := a.inv.CommitBatch(ctx, reqs)
	if err != nil {
		return err
	}
	slog.Info("Batch committed", "sales", len(out.Receipts), "units", out.Units)
	return a.writeJSON(out)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	fs := newFlagSet("history")
	period := fs.String("period", string(history.PeriodAll), "all, today, week or month")
	from := fs.String("from", "", "first day, YYYY-MM-DD")
	to := fs.String("to", "", "last day, YYYY-MM-DD")
	search := fs.String("search", "", "match client or product name")
	top := fs.Int("top", 5, "number of best sellers")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("history: %w", err)
	}

	f := history.Filter{Period: history.Period(*period), Search: *search}
	var err error
	if f.From, err = parseDay(*from); err != nil {
		return fmt.Errorf("history: parse -from: %w", err)
	}
	if f.To, err = parseDay(*to); err != nil {
		return fmt.Errorf("history: parse -to: %w", err)
	}

	sales, err := a.inv.Sales(ctx)
	if err != nil {
		return err
	}
	filtered := history.Apply(sales, f, a.now())
	return a.writeJSON(struct {
		Sales       []storage.Sale         `json:"sales"`
		Summary     history.Summary        `json:"summary"`
		TopProducts []history.ProductUnits `json:"topProducts"`
	}{filtered, history.Summarize(filtered), history.TopProducts(filtered, *top)})
}

func (a *app) cmdForecast(ctx context.Context, args []string) error {
	sales, err := a.inv.Sales(ctx)
	if err != nil {
		return err
	}
	summary, err := a.inv.Summary(ctx)
	if err != nil {
		return err
	}
	return a.writeJSON(history.NewForecast(sales, summary.TotalUnits))
}

func (a *app) cmdDashboard(ctx context.Context, args []string) error {
	fs := newFlagSet("dashboard")
	goal := fs.Float64("goal", -1, "weekly profit goal (default: config target profit)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	if *goal < 0 {
		cfg, err := a.costConfig(ctx)
		if err != nil {
			return err
		}
		*goal = cfg.TargetProfit
	}
	sales, err := a.inv.Sales(ctx)
	if err != nil {
		return err
	}
	summary, err := a.inv.Summary(ctx)
	if err != nil {
		return err
	}
	return a.writeJSON(struct {
		history.DashboardData
		LowStock []storage.Product `json:"lowStock"`
	}{history.Dashboard(sales, a.now(), *goal), summary.LowStock})
}

func (a *app) cmdDeleteSale(ctx context.Context, args []string) error {
	fs := newFlagSet("delete-sale")
	id := fs.String("id", "", "sale id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("delete-sale: %w", err)
	}
	sale, err := a.inv.DeleteSale(ctx, *id)
	if err != nil {
		return err
	}
	return a.writeJSON(sale)
}

func (a *app) cmdConfig(ctx context.Context, args []string) error {
	action := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}
	fs := newFlagSet("config " + action)
	path := fs.String("file", "", "JSON cost config to save")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch action {
	case "show":
		cfg, err := a.costConfig(ctx)
		if err != nil {
			return err
		}
		return a.writeJSON(cfg)
	case "set":
		if *path == "" {
			return errors.New("config set: missing -file")
		}
		cfg := pricing.DefaultCostConfig()
		if err := readJSONFile(*path, &cfg); err != nil {
			return err
		}
		cfg = pricing.NormalizeConfig(cfg)
		if err := a.store.SaveCostConfig(ctx, cfg); err != nil {
			return err
		}
		return a.writeJSON(cfg)
	default:
		return fmt.Errorf("config: unknown action %q", action)
	}
}
