package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"

	"stock_terminal/internal/app/di"
	"stock_terminal/internal/config"
	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/usecase"
	"stock_terminal/internal/platform/logger"
)

// env is what every subcommand needs: configuration, the cache and the coordinator.
type env struct {
	cfg   *config.Config
	store di.CacheStore
	rdb   *redis.Client
	coord *usecase.Coordinator
}

// openEnv loads the configuration and wires the cache and the coordinator.
// Logs go to stderr so that stdout only carries results.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if level == "" || strings.EqualFold(level, "info") {
		level = "warn"
	}
	logger.InitTo(os.Stderr, "market", level, "text")

	store, rdb, err := di.NewCacheStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: store, rdb: rdb, coord: di.NewCoordinator(cfg, store, nil)}, nil
}

func (e *env) close() {
	if e.rdb != nil {
		if err := e.rdb.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
}

// fail prints err and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	if errors.Is(err, domain.ErrInvalidSymbol) {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return subcommands.ExitFailure
}

// printJSON writes v indented.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// na renders a missing indicator.
func na(v *float64, prec int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// optFloat is a float flag that stays nil unless set.
type optFloat struct{ v *float64 }

func (o *optFloat) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.FormatFloat(*o.v, 'f', -1, 64)
}

func (o *optFloat) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.v = &f
	return nil
}
