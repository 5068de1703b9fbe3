package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"telegram-reminder-bot/internal/config"
	"telegram-reminder-bot/internal/handlers"
	"telegram-reminder-bot/internal/health"
	"telegram-reminder-bot/internal/logging"
	"telegram-reminder-bot/internal/metrics"
	"telegram-reminder-bot/internal/rewriter"
	"telegram-reminder-bot/internal/scheduler"
	"telegram-reminder-bot/internal/splitter"
	"telegram-reminder-bot/internal/storage"
	"telegram-reminder-bot/internal/telegram"
	"telegram-reminder-bot/internal/tracker"
)

var version = "dev"

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	var cfg config.Config

	app := &cli.Command{
		Name:    "reminder-bot",
		Usage:   "Turn loose chat messages into dated reminders with Done/Cancel buttons",
		Version: version,
		Flags:   config.Flags(&cfg),
		Action: func(ctx context.Context, _ *cli.Command) error {
			if err := logging.Setup(cfg.LogLevel, cfg.LogPretty); err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			return run(ctx, cfg)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("reminder bot stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	defaultTZ, _ := time.LoadLocation(cfg.DefaultTZ)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = db.Close() }()

	bot, err := telegram.New(cfg.TelegramToken, cfg.TransportTimeout, logging.Component("telegram"))
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := handlers.New(handlers.Deps{
		Transport: bot,
		Rewriter: rewriter.New(rewriter.Config{
			BaseURL:   cfg.OpenAIBaseURL,
			APIKey:    cfg.OpenAIKey,
			Model:     cfg.Model,
			Separator: cfg.Separator,
			Timeout:   cfg.RewriteTimeout,
		}, logging.Component("rewriter")),
		Tracker:          tracker.New(),
		Splitter:         splitter.New(cfg.Separator),
		Settings:         db,
		Metrics:          metrics.MustNewMetrics(reg),
		Logger:           logging.Component("handlers"),
		DefaultTZ:        defaultTZ,
		RewriteTimeout:   cfg.RewriteTimeout,
		TransportTimeout: cfg.TransportTimeout,
	})

	sched, err := scheduler.Start(ctx, h, cfg.SweepInterval, logging.Component("scheduler"))
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = sched.Shutdown() }()

	log.Info().
		Str("model", cfg.Model).
		Str("tz", defaultTZ.String()).
		Str("prompt", splitter.PromptContractVersion).
		Msg("reminder bot started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.RunDispatcher(gctx) })
	g.Go(func() error { return h.Serve(gctx, bot.Updates(gctx)) })
	g.Go(func() error { return health.Serve(gctx, cfg.HealthAddr, health.Router(reg), logging.Component("health")) })

	// Only a failure that happened before shutdown was requested matters.
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("shut down")
	return nil
}
