package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sancwatch/sancwatch/internal/collector"
	"github.com/sancwatch/sancwatch/internal/config"
	"github.com/sancwatch/sancwatch/internal/delivery"
	"github.com/sancwatch/sancwatch/internal/digest"
	"github.com/sancwatch/sancwatch/internal/scheduler"
	"github.com/sancwatch/sancwatch/internal/store"
	"github.com/sancwatch/sancwatch/internal/summarize"
	"github.com/sancwatch/sancwatch/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dbPath := flag.String("db", "sancwatch.db", "path to sqlite database")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(*configPath, *dbPath, log); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func run(configPath, dbPath string, log zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.PerplexityAPIKey == "" {
		return errors.New("PERPLEXITY_API_KEY is not set")
	}

	loc, err := time.LoadLocation(cfg.Digest.Timezone)
	if err != nil {
		return err
	}
	rollupDay, err := cfg.Rollup()
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	col := collector.New(cfg.Sources, log)
	sum := summarize.New(cfg.PerplexityAPIKey, cfg.Summarizer.Model,
		time.Duration(cfg.Summarizer.TimeoutSeconds)*time.Second)
	composer := digest.New(st, col, sum, cfg.Window(), cfg.Digest.RetentionDays, rollupDay, loc, log)
	deliverer := delivery.New(st, composer, loc, log)

	bot, err := telegram.New(cfg.TelegramToken, deliverer, log)
	if err != nil {
		return err
	}

	cronSched, err := scheduler.New(cfg.Digest.Timezone, log)
	if err != nil {
		return err
	}
	err = cronSched.AddDailyJob("broadcast", cfg.Digest.BroadcastTime, func(ctx context.Context) error {
		return deliverer.Broadcast(ctx, bot)
	})
	if err != nil {
		return err
	}
	cronSched.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// Let any in-flight broadcast finish before exiting.
	<-cronSched.Stop().Done()
	return nil
}
