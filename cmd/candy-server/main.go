package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/AdamPallus/candy-solitaire/internal/cache"
	"github.com/AdamPallus/candy-solitaire/internal/config"
	"github.com/AdamPallus/candy-solitaire/internal/database"
	"github.com/AdamPallus/candy-solitaire/internal/game"
	"github.com/AdamPallus/candy-solitaire/internal/httpserver"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres and Redis are both optional; the server degrades to
	// in-memory play when they are absent.
	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			log.WithError(err).Warn("postgres unavailable, scores will not persist")
		} else {
			defer database.Close()
		}
	}
	if cfg.RedisAddr != "" {
		if err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
			log.WithError(err).Warn("redis unavailable, action journal disabled")
		} else {
			defer cache.Close()
		}
	}

	mgr := game.NewManager(cfg.SessionTTL)
	mgr.StartPruner(ctx, cfg.PruneEvery)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.New(cfg, mgr, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("candy-solitaire server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server exited")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
