package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mpratt21/courtside/internal/config"
	"github.com/mpratt21/courtside/internal/dbconfig"
	"github.com/mpratt21/courtside/internal/engine"
	"github.com/mpratt21/courtside/internal/eventlog"
	"github.com/mpratt21/courtside/internal/gamestore"
	"github.com/mpratt21/courtside/internal/httpapi"
	"github.com/mpratt21/courtside/internal/logger"
	"github.com/mpratt21/courtside/internal/outbox"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := config.NewFromEnv()

	logg, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Env:         cfg.Environment,
		ServiceName: "courtside-server",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logger")
	}
	log.Logger = logg

	presets, err := config.LoadRulePresets(cfg.PresetsPath)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to load rule presets")
	}

	dbCfg := dbconfig.NewConfigFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// pgx pool serves the event log and game store.
	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to create pgx pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logg.Fatal().Err(err).Msg("failed to ping database")
	}

	// database/sql connection serves the outbox (lib/pq LISTEN/NOTIFY).
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logg.Fatal().Err(err).Msg("failed to ping database")
	}

	logg.Info().
		Str("database", dbCfg.Database).
		Str("nats_url", cfg.NATSURL).
		Int("port", cfg.HTTPPort).
		Msg("starting courtside server")

	eventStore := eventlog.NewRepository(pool)
	gameStore := gamestore.NewRepository(pool)
	outboxRepo := outbox.NewRepository(db)
	sink := outbox.NewSink(outboxRepo)

	eng := engine.New(clockwork.NewRealClock(), eventStore, gameStore, sink, logg)

	go func() {
		logg.Info().Msg("starting engine scheduler")
		if err := eng.RunScheduler(ctx); err != nil && ctx.Err() == nil {
			logg.Error().Err(err).Msg("engine scheduler failed")
		}
	}()

	// Outbox publishing: JetStream publisher behind a LISTEN/NOTIFY listener
	// for the hot path plus a polling worker as the fallback sweep.
	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATSURL
	publisher, err := outbox.NewJetStreamPublisher(jsCfg)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to create JetStream publisher")
	}
	defer publisher.Close()

	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listener, err := outbox.NewListener(db, publisher, listenerCfg)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to create outbox listener")
	}
	go func() {
		if err := listener.Start(ctx); err != nil && ctx.Err() == nil {
			logg.Error().Err(err).Msg("outbox listener failed")
		}
	}()

	worker := outbox.NewWorker(db, publisher, outbox.DefaultWorkerConfig(), &outbox.NoOpMetricsCollector{}, logg)
	if err := worker.Start(ctx); err != nil {
		logg.Fatal().Err(err).Msg("failed to start outbox worker")
	}

	apiHandler := httpapi.NewHandler(eng, gameStore, presets, logg)
	server := setupServer(cfg, apiHandler)

	go func() {
		logg.Info().Str("addr", server.Addr).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error().Err(err).Msg("http server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logg.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := worker.Stop(); err != nil {
		logg.Error().Err(err).Msg("outbox worker shutdown failed")
	}
	if err := listener.Stop(); err != nil {
		logg.Error().Err(err).Msg("outbox listener shutdown failed")
	}
	cancel()

	logg.Info().Msg("courtside server shutdown complete")
}
