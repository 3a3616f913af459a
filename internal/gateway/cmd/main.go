package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mpratt21/courtside/internal/config"
	"github.com/mpratt21/courtside/internal/gateway"
	"github.com/mpratt21/courtside/internal/logger"
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
		ServiceName: "courtside-gateway",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logger")
	}
	log.Logger = logg

	port := getEnv("GATEWAY_PORT", "8081")

	logg.Info().
		Str("nats_url", cfg.NATSURL).
		Str("port", port).
		Msg("starting courtside gateway")

	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	consumerCfg := gateway.DefaultJetStreamConsumerConfig()
	consumerCfg.URL = cfg.NATSURL
	consumer, err := gateway.NewEventConsumer(connectionManager, consumerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go connectionManager.Start(ctx)

	go func() {
		logg.Info().Msg("starting JetStream event consumer")
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logg.Error().Err(err).Msg("event consumer failed")
		}
	}()

	mux := http.NewServeMux()

	wsHandler := gateway.NewWebSocketHandler(connectionManager)
	wsHandler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		total, _ := connectionManager.Stats()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"service":"courtside-gateway","connections":%d}`, total)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logg.Info().Str("addr", server.Addr).Msg("gateway server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error().Err(err).Msg("gateway server failed")
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
		logg.Error().Err(err).Msg("gateway server shutdown failed")
	}
	if err := consumer.Stop(); err != nil {
		logg.Error().Err(err).Msg("event consumer shutdown failed")
	}
	cancel()

	logg.Info().Msg("courtside gateway shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
