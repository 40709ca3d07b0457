package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath  = "./data/gestao.db"
	defaultKVDir   = "./data/kv"
	defaultBackend = BackendSQLite
	defaultEnv     = "development"
)

// Storage backends accepted by STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendKV     = "kv"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env         string
	Backend     string
	DBPath      string
	KVDir       string
	LogLevel    string
	MetricsPath string
}

// IsDev reports whether the application runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || strings.EqualFold(c.Env, defaultEnv) || strings.EqualFold(c.Env, "dev")
}

// Load reads .env from the working directory, then the environment.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom loads KEY=VALUE pairs from the dotenv file at path into the process
// environment and returns a populated Config. A missing file is not an error
// and variables already present in the environment are never overwritten.
func LoadFrom(path string) Config {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Could not read dotenv file", "path", path, "error", err)
	}

	cfg := Config{
		Env:         os.Getenv("APP_ENV"),
		Backend:     strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))),
		DBPath:      os.Getenv("DB_PATH"),
		KVDir:       os.Getenv("KV_DIR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		MetricsPath: os.Getenv("METRICS_PATH"),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.KVDir == "" {
		cfg.KVDir = defaultKVDir
	}
	switch cfg.Backend {
	case BackendSQLite, BackendKV:
	case "":
		cfg.Backend = defaultBackend
	default:
		slog.Warn("Unknown STORE_BACKEND, falling back to sqlite", "value", cfg.Backend)
		cfg.Backend = defaultBackend
	}

	return cfg
}
