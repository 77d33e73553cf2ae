package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashdev101/mongo-rag/internal/api"
	"github.com/ashdev101/mongo-rag/internal/config"
	"github.com/ashdev101/mongo-rag/internal/gateway"
	"github.com/ashdev101/mongo-rag/internal/llm"
	"github.com/ashdev101/mongo-rag/internal/mask"
	"github.com/ashdev101/mongo-rag/internal/mask/ner"
	"github.com/ashdev101/mongo-rag/internal/policy"
	"github.com/ashdev101/mongo-rag/internal/router"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	var recognizers []mask.Recognizer
	if cfg.MaskNER {
		recognizers = append(recognizers, ner.New(cfg.MaskNERURL))
		slog.Info("mask: NER layer enabled", "url", cfg.MaskNERURL)
	}
	masker := mask.New(cfg.Rules.PIIFields, recognizers)

	var completer *llm.Client
	var classifier policy.IntentClassifier = policy.RuleClassifier{}
	if cfg.LLMEnabled {
		completer = llm.New(cfg.LLMURL, cfg.LLMModel, cfg.LLMAPIKey)
		classifier = policy.NewLLMClassifier(completer)
		slog.Info("llm classifiers enabled", "url", cfg.LLMURL, "model", cfg.LLMModel)
	}

	authorizer, err := policy.NewAuthorizer(cfg.Rules.ElevatedDepartments)
	if err != nil {
		slog.Error("authorizer error", "err", err)
		os.Exit(1)
	}

	engine := policy.NewEngine(
		cfg.Resolver(),
		classifier,
		policy.NewQueryRewriter(cfg.Rules.KnownRegions),
		authorizer,
	)

	gw := gateway.New(masker, gateway.NewHTTPExecutor(cfg.AgentURL))

	var routeLLM router.Completer
	if completer != nil {
		routeLLM = completer
	}
	rt := router.New(routeLLM)

	handler := api.New(rt, engine, gw)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)

		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()

		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("starting hr query proxy",
		"addr", cfg.ListenAddr,
		"agent", cfg.AgentURL,
		"directory", cfg.DirectoryURL,
		"llm", cfg.LLMEnabled,
		"ner", cfg.MaskNER,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
