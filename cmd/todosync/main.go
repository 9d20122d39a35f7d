package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"todosync/internal/config"
	"todosync/internal/ics"
	"todosync/internal/store"
	appsync "todosync/internal/sync"
	"todosync/internal/todoist"
	"todosync/internal/web"
)

type flagConfig struct {
	configPath string
	once       bool
	dryRun     bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		log.Error().Err(err).Str("config_path", flags.configPath).Msg("failed to load config")
		os.Exit(1)
	}

	setupLogging(conf.LogLevel)
	log.Info().Str("config_path", flags.configPath).Bool("once", flags.once).
		Bool("dry_run", flags.dryRun).Msg("todosync starting")

	if err := conf.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		log.Error().Err(err).Str("timezone", conf.Timezone).Msg("invalid timezone")
		os.Exit(1)
	}

	dedup, err := store.Open(conf.Store.Backend, conf.Store.Path)
	if err != nil {
		log.Error().Err(err).Str("backend", conf.Store.Backend).Str("path", conf.Store.Path).
			Msg("failed to open dedup store")
		os.Exit(1)
	}
	defer dedup.Close()

	syncer := appsync.New(dedup, todoist.NewClient(conf.Todoist.Token, conf.Todoist.BaseURL), buildOptions(conf, flags.dryRun))
	fetcher := ics.NewFetcher(conf.CacheDir)
	recorder := &web.StatusRecorder{}

	runOnce := func(ctx context.Context) error {
		stats, err := runPass(ctx, conf, fetcher, loc, syncer)
		recorder.Record(stats, err)
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("signal received, shutting down")
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx); err != nil {
			log.Error().Err(err).Msg("sync pass failed")
			os.Exit(1)
		}
		return
	}

	// Daemon mode: sync immediately, then on the configured cron schedule,
	// with the status server alongside.
	go func() {
		if err := web.Serve(ctx, conf, recorder); err != nil {
			log.Error().Err(err).Msg("status server stopped")
			cancel()
		}
	}()

	if err := runOnce(ctx); err != nil {
		log.Error().Err(err).Msg("initial sync pass failed")
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.Schedule, func() {
		if err := runOnce(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled sync pass failed")
		}
	}); err != nil {
		log.Error().Err(err).Str("schedule", conf.Schedule).Msg("invalid cron schedule")
		os.Exit(1)
	}
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("todosync exiting")
}

// runPass loads both feeds and runs one reconciliation pass. A feed failure
// aborts the pass before any event is processed.
func runPass(ctx context.Context, conf *config.Config, fetcher *ics.Fetcher, loc *time.Location, syncer *appsync.Syncer) (appsync.RunStats, error) {
	loader := ics.NewLoader(fetcher, loc, conf.Sync.LookbackDays, conf.Sync.HorizonDays)

	personal, err := loader.Load(ctx, ics.Source{ID: "personal", URL: conf.PersonalICSURL})
	if err != nil {
		return appsync.RunStats{}, &appsync.FetchError{Feed: "personal", Err: err}
	}
	reference, err := loader.Load(ctx, ics.Source{ID: "reference", URL: conf.ReferenceICSURL})
	if err != nil {
		return appsync.RunStats{}, &appsync.FetchError{Feed: "reference", Err: err}
	}

	return syncer.Run(ctx, personal, reference)
}

func buildOptions(conf *config.Config, dryRun bool) appsync.Options {
	// Validate() already checked these parse.
	sh, sm, _ := config.ParseClock(conf.Sync.FallbackStart)
	eh, em, _ := config.ParseClock(conf.Sync.FallbackEnd)

	return appsync.Options{
		Titles: appsync.TitleExtractor{
			Anchor:     conf.Sync.Anchor,
			Delimiters: conf.Sync.Delimiters,
		},
		Exclude:       conf.Sync.Exclude,
		FallbackStart: appsync.TimeOfDay{Hour: sh, Minute: sm},
		FallbackEnd:   appsync.TimeOfDay{Hour: eh, Minute: em},
		DryRun:        dryRun,
	}
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/todosync/config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Run one sync pass and exit")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Log would-be task creations without writing anywhere")

	flag.Parse()

	return cfg
}
