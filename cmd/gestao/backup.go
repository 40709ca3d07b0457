package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// errInvalidBackup is returned when a backup file lacks the products or sales
// arrays.
var errInvalidBackup = errors.New("invalid backup: products and sales are required")

func (a *app) cmdBackup(ctx context.Context, args []string) error {
	fs := newFlagSet("backup")
	path := fs.String("out", "", "backup file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	snap, err := a.store.Export(ctx)
	if err != nil {
		return err
	}
	snap.CreatedAt = a.now().UTC()

	if *path == "" {
		return a.writeJSON(snap)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	slog.Info("Backup written", "path", *path, "products", len(snap.Products), "sales", len(snap.Sales))
	return nil
}

// decodeSnapshot parses a backup document. Both arrays must be present, even
// if empty; a missing config falls back to the defaults.
func decodeSnapshot(data []byte) (storage.Snapshot, error) {
	var probe struct {
		Products json.RawMessage `json:"products"`
		Sales    json.RawMessage `json:"sales"`
		Config   json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%w: %v", errInvalidBackup, err)
	}
	if !isArray(probe.Products) || !isArray(probe.Sales) {
		return storage.Snapshot{}, errInvalidBackup
	}

	snap := storage.Snapshot{Config: pricing.DefaultCostConfig()}
	if err := json.Unmarshal(data, &snap); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%w: %v", errInvalidBackup, err)
	}
	snap.Config = pricing.NormalizeConfig(snap.Config)
	return snap, nil
}

func isArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

func (a *app) cmdRestore(ctx context.Context, args []string) error {
	fs := newFlagSet("restore")
	path := fs.String("in", "", "backup file to restore")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if *path == "" {
		return errors.New("restore: missing -in")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	if err := a.store.Import(ctx, snap); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	slog.Info("Backup restored", "products", len(snap.Products), "sales", len(snap.Sales))
	return a.writeJSON(map[string]int{"products": len(snap.Products), "sales": len(snap.Sales)})
}
