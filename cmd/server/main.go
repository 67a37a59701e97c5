package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"docsum/internal/api"
	"docsum/internal/config"
	"docsum/internal/llmfactory"
	"docsum/internal/logger"
	"docsum/internal/summarize"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	llmProvider, err := llmfactory.NewProviderFromConfig(&cfg.LLM)
	if err != nil {
		logger.Error("create llm provider", "error", err)
		os.Exit(1)
	}

	var store summarize.HistoryStore
	switch cfg.HistoryStore {
	case "sqlite":
		sqliteStore, err := summarize.NewSQLiteHistoryStore(cfg.Database.DSN)
		if err != nil {
			logger.Error("create sqlite history store", "error", err)
			os.Exit(1)
		}
		store = sqliteStore
	default:
		store = summarize.NewMemoryHistoryStore()
	}

	svc := summarize.NewService(llmProvider, store)
	handler := api.NewHandler(svc, cfg.Keys())

	r := chi.NewRouter()
	handler.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // 要大于对上游 LLM 的 60s 超时
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint
		logger.Info("shutting down server")

		if err := store.Close(); err != nil {
			logger.Error("close history store", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown", "error", err)
		} else {
			logger.Info("server gracefully stopped")
		}
	}()

	logger.Info("server listening", "addr", addr, "provider", llmProvider.Name())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}
