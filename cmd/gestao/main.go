package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/config"
	"github.com/danieldesouzalongo/01gestao/internal/inventory"
	"github.com/danieldesouzalongo/01gestao/internal/logging"
	"github.com/danieldesouzalongo/01gestao/internal/metrics"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
	"github.com/danieldesouzalongo/01gestao/internal/storage/kv"
	"github.com/danieldesouzalongo/01gestao/internal/storage/sqlite"
)

var errUsage = errors.New("usage")

type app struct {
	cfg     config.Config
	store   storage.Store
	inv     *inventory.Service
	metrics *metrics.Registry
	out     io.Writer
	now     func() time.Time
}

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"seed":        {"add default products and cost config to an empty store", (*app).cmdSeed},
	"products":    {"list, add, set or rm inventory products", (*app).cmdProducts},
	"recompute":   {"aggregate margins for a JSON file of line items", (*app).cmdRecompute},
	"simulate":    {"what-if price, cost or ad type change", (*app).cmdSimulate},
	"suggest":     {"reverse-solve the price for a target margin", (*app).cmdSuggest},
	"sell":        {"commit (or preview) one sale", (*app).cmdSell},
	"sell-batch":  {"commit a JSON file of sales, all or nothing", (*app).cmdSellBatch},
	"history":     {"list and summarize committed sales", (*app).cmdHistory},
	"forecast":    {"project weekly unit sales and stock coverage", (*app).cmdForecast},
	"dashboard":   {"today, week and goal overview", (*app).cmdDashboard},
	"delete-sale": {"remove a sale and return its units to stock", (*app).cmdDeleteSale},
	"config":      {"show or set the cost configuration", (*app).cmdConfig},
	"backup":      {"export everything to a JSON file", (*app).cmdBackup},
	"restore":     {"replace everything with a JSON backup", (*app).cmdRestore},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Load()
	logging.SetupWithLevel(logging.LevelFromString(cfg.LogLevel))

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "usage: gestao [flags] <command> [command flags]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nflags:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// run parses the global flags, opens the configured store and dispatches the
// command. Flags override the environment configuration.
func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("gestao", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: sqlite or kv")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.KVDir, "kv-dir", cfg.KVDir, "pebble directory")
	fs.StringVar(&cfg.MetricsPath, "metrics", cfg.MetricsPath, "write prometheus textfile here after the command")
	if err := fs.Parse(args); err != nil {
		usage(out, fs)
		return errUsage
	}
	if fs.NArg() == 0 {
		usage(out, fs)
		return errUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(out, fs)
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Debug("Storage initialized", "backend", cfg.Backend, "db", cfg.DBPath, "kv", cfg.KVDir)

	reg := metrics.NewRegistry()
	a := &app{
		cfg:     cfg,
		store:   store,
		inv:     inventory.NewService(store, inventory.WithObserver(reg)),
		metrics: reg,
		out:     out,
		now:     time.Now,
	}

	cmdErr := cmd.run(a, ctx, fs.Args()[1:])
	if err := reg.WriteTextfile(cfg.MetricsPath); err != nil {
		slog.Warn("Could not write metrics", "path", cfg.MetricsPath, "error", err)
	}
	return cmdErr
}

func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendKV:
		s, err := kv.Open(cfg.KVDir)
		if err != nil {
			return nil, fmt.Errorf("open kv store: %w", err)
		}
		return s, nil
	default:
		s, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	}
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// newFlagSet returns a sub-command flag set that reports errors instead of
// exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
