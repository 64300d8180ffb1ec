package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calcibot/calci/config"
	"github.com/calcibot/calci/internal/adapters/kalshi"
	"github.com/calcibot/calci/internal/adapters/notify"
	"github.com/calcibot/calci/internal/adapters/storage"
	"github.com/calcibot/calci/internal/application/engine"
	"github.com/calcibot/calci/internal/dashboard"
	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full opportunity table (default: compact 1-line)")
	report := flag.Bool("report", false, "print the performance report and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *report {
		if err := printReport(cfg.Storage.DSN); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("calci starting",
		"config", *configPath,
		"base_url", cfg.API.BaseURL,
		"interval", cfg.ScanInterval(),
		"once", *once,
	)

	signer, err := kalshi.NewSigner(cfg.API.KeyID, cfg.API.PrivateKeyPath)
	if err != nil {
		slog.Error("failed to load signing key", "err", err)
		os.Exit(1)
	}

	client, err := kalshi.NewClient(cfg.API.BaseURL, signer, cfg.API.ReadsPerSec, cfg.API.WritesPerSec)
	if err != nil {
		slog.Error("failed to create venue client", "err", err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Startup probe: a bad key or unreachable venue should fail loudly now,
	// not on the first cycle.
	probeCtx, probeCancel := context.WithTimeout(ctx, 30*time.Second)
	balance, err := client.GetBalance(probeCtx)
	probeCancel()
	if err != nil {
		slog.Error("venue probe failed, check credentials and base URL", "err", err)
		os.Exit(1)
	}
	slog.Info("venue reachable", "balance", balance)

	registry := prometheus.NewRegistry()
	rec := metrics.New(registry)
	notifier := notify.NewConsole(*table)

	eng := engine.New(client, store, notifier, rec, engine.Config{
		Interval:        cfg.ScanInterval(),
		ScanPageSize:    cfg.Trading.ScanPageSize,
		MaxPositionPct:  cfg.Trading.MaxPositionPct,
		CashReservePct:  cfg.Trading.CashReservePct,
		MaxDailyLossPct: cfg.Trading.MaxDailyLossPct,
	})

	var dash *dashboard.Server
	if cfg.Dashboard.Enabled {
		dash = dashboard.New(store, eng, registry, cfg.Dashboard.Addr)
		go func() {
			if err := dash.Start(); err != nil {
				slog.Error("dashboard stopped", "err", err)
			}
		}()
	}

	if *once {
		if _, err := eng.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			shutdownDashboard(dash)
			os.Exit(1)
		}
	} else if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("engine exited with error", "err", err)
		shutdownDashboard(dash)
		os.Exit(1)
	}

	shutdownDashboard(dash)
	slog.Info("calci stopped cleanly")
}

// printReport reads the local database only; no venue credentials needed.
func printReport(dsn string) error {
	store, err := storage.New(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	trades, err := store.Trades(ctx, 50, 0)
	if err != nil {
		return err
	}

	var snapPtr *domain.PortfolioSnapshot
	if snap, ok, err := store.LatestSnapshot(ctx); err != nil {
		return err
	} else if ok {
		snapPtr = &snap
	}

	notify.NewConsole(true).PrintReport(stats, trades, snapPtr)
	return nil
}

func shutdownDashboard(dash *dashboard.Server) {
	if dash == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dash.Stop(ctx); err != nil {
		slog.Warn("dashboard shutdown failed", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
