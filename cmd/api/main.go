// Package main is the entry point for the API server.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/config"
	"github.com/personalab/persona-platform/internal/events"
	"github.com/personalab/persona-platform/internal/handler"
	"github.com/personalab/persona-platform/internal/index"
	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/middleware"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
	"github.com/personalab/persona-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "persona-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// The events channel is optional: without NATS the platform runs on
	// file-backed durability alone.
	var eventsClient *events.Client
	if cfg.NATSEnabled {
		eventsClient, err = events.Connect(events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer eventsClient.Close()
	}

	publisher := events.NewPublisher(eventsClient, log)
	if cfg.NATSEnabled {
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure events stream", zap.Error(err))
			os.Exit(1)
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Error("failed to create data directory", zap.Error(err))
		os.Exit(1)
	}

	personaStore := store.NewPersonaStore(cfg.DataDir, log)
	interactionLog := store.NewInteractionLog(cfg.DataDir, log)
	documentStore := store.NewDocumentStore(cfg.DataDir)

	var docIndex index.Index = index.Disabled{}
	if cfg.IndexURL != "" {
		docIndex = index.NewHTTPIndex(cfg.IndexURL)
	}

	var llmClient llm.Client
	switch llm.Provider(cfg.LLMProvider) {
	case llm.ProviderOpenAI:
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GenerateTimeout)
	default:
		llmClient, err = llm.NewOllamaClient(cfg.OllamaURL, cfg.GenerateTimeout)
	}
	if err != nil {
		log.Error("failed to create generation client", zap.Error(err))
		os.Exit(1)
	}
	log.Info("generation backend configured",
		zap.String("provider", llmClient.Name()), zap.String("default_model", cfg.DefaultModel))

	personaSvc := service.NewPersonaService(personaStore, log)
	askSvc := service.NewAskService(personaStore, interactionLog, docIndex, llmClient,
		publisher, log, cfg.DefaultModel, cfg.IndexTopK)
	dialogueSvc := service.NewDialogueService(personaStore, interactionLog, llmClient, log, cfg.DefaultModel)
	documentSvc := service.NewDocumentService(personaStore, documentStore, docIndex, log)
	exportSvc := service.NewExportService(personaStore, interactionLog, documentStore, log)

	healthHandler := handler.NewHealthHandler(eventsClient, cfg.NATSEnabled)
	personaHandler := handler.NewPersonaHandler(personaSvc, log)
	askHandler := handler.NewAskHandler(askSvc, log)
	dialogueHandler := handler.NewDialogueHandler(dialogueSvc, log)
	documentHandler := handler.NewDocumentHandler(documentSvc, log)
	exportHandler := handler.NewExportHandler(exportSvc, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/personas", func(r chi.Router) {
			r.Post("/", personaHandler.Create)
			r.Get("/", personaHandler.List)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", personaHandler.Get)
				r.Put("/", personaHandler.Update)

				r.Post("/documents", documentHandler.Upload)
				r.Post("/ask", askHandler.Ask)
				r.Get("/interactions", askHandler.Interactions)
				r.Get("/export", exportHandler.Export)
			})
		})

		r.Post("/dialogues", dialogueHandler.Run)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
