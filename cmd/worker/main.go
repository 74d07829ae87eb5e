package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/auth"
	"github.com/dharsanguruparan/picktoss/internal/config"
	"github.com/dharsanguruparan/picktoss/internal/database"
	"github.com/dharsanguruparan/picktoss/internal/httpclient"
	"github.com/dharsanguruparan/picktoss/internal/logging"
	"github.com/dharsanguruparan/picktoss/internal/remote"
	"github.com/dharsanguruparan/picktoss/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.NewWorker(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// The worker shares the CLI's store so it can read the token and leave
	// results behind for `picktoss doc status`.
	store, err := database.OpenStore(ctx, cfg.StoreDSN)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	client := httpclient.New(cfg.APIBaseURL,
		httpclient.WithTimeout(cfg.HTTPTimeout),
		httpclient.WithTokenSource(auth.NewTokenStore(store, cfg.TokenKey)),
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithLogger(logger),
	)
	api := remote.New(client, remote.NewCache(remote.WithCacheLogger(logger)))

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency:    cfg.WatchWorkers,
		RetryDelayFunc: worker.RetryDelay(cfg.PollInterval),
		Logger:         logger.Sugar(),
	})
	processor := worker.NewProcessor(api, store, logger)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info("worker started", zap.String("redis", cfg.RedisAddr), zap.Int("concurrency", cfg.WatchWorkers))
	if err := server.Run(mux); err != nil {
		logger.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}
