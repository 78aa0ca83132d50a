package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"strings"
	"time"

	"stock_terminal/internal/app/di"
	"stock_terminal/internal/config"
	"stock_terminal/internal/feature/marketdata/usecase"
	"stock_terminal/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	sector := flag.String("sector", "", "warm only the symbols of this configured sector")
	symbols := flag.String("symbols", "", "comma separated symbols, overrides -sector")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for the run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	logger.Init("ingest", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	universe, err := di.NewScreener(cfg, nil).Universe(splitSymbols(*symbols), *sector)
	if err != nil {
		log.Fatal("failed to resolve universe: ", err)
	}

	store, rdb, err := di.NewCacheStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open cache: ", err)
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	coord := di.NewCoordinator(cfg, store, nil)
	if len(coord.Providers()) == 0 {
		slog.Warn("no provider configured, only cached data can be reported")
	}

	rep, err := usecase.NewWarmUsecase(coord).WarmAll(ctx, universe)
	if err != nil {
		log.Fatal("ingest aborted: ", err)
	}
	slog.Info("ingest ok", "fetched", rep.Fetched, "cached", rep.Cached, "stale", rep.Stale, "failed", rep.Failed)
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
