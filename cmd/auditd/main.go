package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	v1 "github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/api/v1"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/api/ws"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/config"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/occurrence"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/report"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/response"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/scoring"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/server"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/memory"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/postgres"
	redisstore "github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/redis"
)

// repositories is the accessor set both store backends provide.
type repositories interface {
	Audits() domain.AuditRepository
	Standards() domain.StandardRepository
	ResponseTypes() domain.ResponseTypeRepository
	Sessions() domain.SessionRepository
	SessionItems() domain.SessionItemRepository
	Responses() domain.ResponseRepository
	Occurrences() domain.OccurrenceRepository
	Scoring() domain.ScoringRepository
	Activity() domain.ActivityRepository
	Ping(ctx context.Context) error
	Close()
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	checks := []server.Dependency{{Name: "store", Check: store.Ping}}

	var (
		publisher events.Publisher
		hub       *ws.Hub
		pubsub    *redisstore.PubSub
	)
	if cfg.Redis.Enabled() {
		pubsub, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()

		publisher = events.NewChannelPublisher(pubsub, redisstore.AuditChannel)
		checks = append(checks, server.Dependency{Name: "redis", Check: pubsub.Ping})
	}

	journal := events.NewJournal(store.Activity(), publisher)

	engine := scoring.NewEngine()
	scorer := scoring.NewScorer(
		engine,
		store.Audits(),
		store.SessionItems(),
		store.Responses(),
		store.ResponseTypes(),
		store.Occurrences(),
		store.Scoring(),
		journal,
		cfg.ScoringDefaults(),
	)
	tracker := occurrence.NewTracker(
		store.Audits(),
		store.Sessions(),
		store.SessionItems(),
		store.Responses(),
		store.Occurrences(),
		journal,
	)
	recorder := response.NewRecorder(
		store.Audits(),
		store.SessionItems(),
		store.ResponseTypes(),
		store.Responses(),
		store.Occurrences(),
		tracker,
		journal,
	)
	planner := planning.NewPlanner(
		store.Audits(),
		store.Sessions(),
		store.SessionItems(),
		store.Standards(),
		store.ResponseTypes(),
		journal,
	)
	reporter := report.NewAggregator(
		store.Audits(),
		store.Sessions(),
		store.SessionItems(),
		store.Responses(),
		store.Occurrences(),
		store.Scoring(),
		scorer,
	)

	if pubsub != nil {
		hub = ws.NewHub(pubsub, planner)
	}

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, v1.Services{
		Planner:  planner,
		Recorder: recorder,
		Tracker:  tracker,
		Scorer:   scorer,
		Reporter: reporter,
		Activity: store.Activity(),
	}, hub, checks)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store).Bool("events", pubsub != nil).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(lc config.LogConfig) {
	level, parseErr := zerolog.ParseLevel(lc.Level)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repositories, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		log.Info().Msg("database migrations applied")
	}

	return store, nil
}
