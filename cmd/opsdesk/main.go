package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opsdesk/internal/adapter/channel"
	"opsdesk/internal/adapter/llm"
	"opsdesk/internal/adapter/store"
	"opsdesk/internal/adapter/tool"
	"opsdesk/internal/domain"
	"opsdesk/internal/infra/config"
	"opsdesk/internal/infra/logger"
	"opsdesk/internal/infra/tracer"
	"opsdesk/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Record store
	st, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	// 4. Model provider, behind a circuit breaker when enabled
	var provider domain.LLMProvider = llm.NewAnthropicProvider(cfg.Provider, log)
	if cfg.Provider.CircuitBreaker.Enabled {
		provider = llm.NewCircuitBreakerProvider(provider, cfg.Provider.CircuitBreaker, log)
	}

	// 5. Tool catalog
	registry := tool.NewRegistry(log)
	for _, t := range tool.Catalog(st, log) {
		registry.MustRegister(t)
	}

	// 6. Orchestrator
	orch := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		LLM:        provider,
		Tools:      registry,
		Transcript: st,
		Identity:   st,
		Ledger:     usecase.NewLedger(st, cfg.Pricing, log),
		Logger:     log,
		Persona:    cfg.Agent.Persona,
		MaxTokens:  cfg.Agent.MaxTokens,
		Timeout:    cfg.Agent.Timeout,
	})

	// 7. HTTP API
	api := channel.NewHTTPChannel(cfg.HTTP, orch, st, log)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := api.Start(ctx); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	log.Info("opsdesk ready", "addr", api.Addr(), "model", cfg.Provider.Model)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return api.Stop(shutdownCtx)
}
