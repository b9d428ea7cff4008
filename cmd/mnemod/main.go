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
	"github.com/nidhogg/mnemo/internal/api"
	"github.com/nidhogg/mnemo/internal/config"
	"github.com/nidhogg/mnemo/internal/embedding"
	"github.com/nidhogg/mnemo/internal/memory"
	"github.com/nidhogg/mnemo/internal/mirror"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger := newLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	logger.Info("Starting mnemo...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/mnemo.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.Fatal("failed to build embedding provider", zap.Error(err))
	}

	// Mirror is optional; a missing backend just disables it.
	var mir mirror.Mirror
	var redisMirror *mirror.RedisMirror
	switch cfg.Mirror.Backend {
	case "file":
		fm, fErr := mirror.NewFileMirror(cfg.Mirror.Path, logger)
		if fErr != nil {
			logger.Warn("file mirror unavailable, running without mirror", zap.Error(fErr))
		} else {
			mir = fm
		}
	case "redis":
		rm, rErr := mirror.NewRedisMirror(cfg.Mirror.RedisURL, logger)
		if rErr != nil {
			logger.Warn("redis mirror unavailable, running without mirror", zap.Error(rErr))
		} else {
			mir = rm
			redisMirror = rm
		}
	case "":
		// no mirror configured
	default:
		logger.Warn("unknown mirror backend", zap.String("backend", cfg.Mirror.Backend))
	}

	store, err := memory.New(memory.Options{
		Dimension:    cfg.Embedding.Dimension,
		MaxRecords:   cfg.Memory.MaxRecords,
		DecayDays:    cfg.Memory.DecayDays,
		EmbedTimeout: time.Duration(cfg.Memory.EmbedTimeoutMS) * time.Millisecond,
		IndexPath:    cfg.Memory.IndexPath,
		RecordsPath:  cfg.Memory.RecordsPath,
	}, embedder, mir, logger)
	if err != nil {
		logger.Fatal("failed to create memory store", zap.Error(err))
	}
	if err := store.Load(); err != nil {
		logger.Fatal("failed to load memories", zap.Error(err))
	}

	shortTerm := memory.NewShortTermBuffer(cfg.Memory.ShortTermPairs)

	handler := api.NewHandler(store, shortTerm, mir, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("mnemo listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down mnemo...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	if err := store.Persist(); err != nil {
		logger.Error("failed to persist memories on shutdown", zap.Error(err))
	}
	if redisMirror != nil {
		redisMirror.Close()
	}
}

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	if level == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	return logger
}
