package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propfirm/internal/config"
	"propfirm/internal/cron"
	"propfirm/internal/db"
	"propfirm/internal/handlers"
	"propfirm/internal/logger"
	"propfirm/internal/services"
	"propfirm/internal/store"
	"propfirm/internal/websocket"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "propfirm: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".", "./config")
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL, cfg.Pool)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	challenges := store.NewChallengeStore(database)
	trades := store.NewTradeStore(database)
	audit := store.NewAuditStore(database)
	admins := store.NewAdminStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub(log.Named("ws"))
	service := services.NewChallengeService(txRunner, challenges, trades, audit, hub, cfg.ChallengeTypes, log.Named("challenges"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on days missed while the server was down.
	if rolled, err := service.RolloverDay(ctx, time.Now().UTC()); err != nil {
		log.Warn("startup rollover incomplete", zap.Int("rolled", rolled), zap.Error(err))
	}

	scheduler := cron.New(log.Named("cron"), ctx)
	if _, err := scheduler.Add("day-rollover", cfg.RolloverSpec, func(ctx context.Context) error {
		_, err := service.RolloverDay(ctx, time.Now().UTC())
		return err
	}); err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := handlers.New(cfg, service, admins, audit, challenges, hub, log.Named("http"))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("propfirm API listening", zap.String("addr", server.Addr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
