package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cash/internal/amqp"
	"cash/internal/config"
	"cash/internal/engine"
	apphttp "cash/internal/http"
	"cash/internal/log"
	"cash/internal/services"
	"cash/internal/session"
	"cash/internal/store"
	"cash/internal/store/memory"
	"cash/internal/store/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting cash server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	// Choose data backend (default: memory).
	var st store.Interface
	switch cfg.DataBackend {
	case "sqlite":
		var publisher sqlite.ChangePublisher
		if cfg.AMQPURL != "" {
			amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Error("Failed to initialize AMQP client", log.FieldError, err)
				os.Exit(1)
			}
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized - record changes will be published")
		} else {
			logger.Info("AMQP disabled - record changes stay local")
		}

		sqliteStore, err := sqlite.New(cfg.SQLiteDBPath, publisher)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		st = sqliteStore
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		st = memory.New()
		logger.Info("Initialized memory backend")
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The view follows the session: switching principals tears the old
	// subscriptions down before the new ones open, and signing out
	// stops them entirely.
	sess := session.New()
	view := engine.NewView(st, logger)
	unwatch := sess.Watch(func(principal string) {
		if err := view.Start(ctx, principal); err != nil {
			logger.Error("Failed to start view", log.FieldError, err, log.FieldPrincipal, principal)
		}
	})
	defer unwatch()
	defer view.Stop()

	records := services.NewRecords(st, sess, logger, cfg.WriteTimeout)
	goals := services.NewGoals(st, sess, logger, cfg.WriteTimeout)

	srv := apphttp.NewServer(":"+cfg.Port, st, sess, view, records, goals, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 20 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
