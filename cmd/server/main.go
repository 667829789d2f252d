package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"scoring/internal/platform/config"
	"scoring/internal/platform/httpserver"
	"scoring/internal/platform/logger"
	"scoring/internal/platform/metrics"
	platformredis "scoring/internal/platform/redis"
	"scoring/internal/scoring"
	"scoring/internal/scoring/auth"
	"scoring/internal/scoring/models"
	redisstore "scoring/internal/scoring/store/redis"
	httptransport "scoring/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal/scoring packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	redisClient, err := platformredis.New(cfg)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	st := redisstore.New(redisClient.Client)
	checker := auth.New(auth.Config{
		Salt:       cfg.Salt,
		AdminSalt:  cfg.AdminSalt,
		AdminLogin: cfg.AdminLogin,
	}, nil)
	schemas := models.NewSchemas(nil)

	svc, err := scoring.New(st, checker, schemas,
		scoring.WithLogger(log),
		scoring.WithMetrics(metrics.New()),
		scoring.WithCacheTTL(cfg.ScoreCacheTTL),
	)
	if err != nil {
		log.Error("service construction failed", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(svc, log)
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting scoring service", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
