package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jawsbaek/exam-pdf-parser/internal/api"
	"github.com/jawsbaek/exam-pdf-parser/internal/config"
	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/jobmanager"
	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
	"github.com/jawsbaek/exam-pdf-parser/internal/orchestrator"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()
	if !cfg.RequireGoogleAPIKey() {
		logger.Fatal().Msg("GOOGLE_API_KEY is required")
	}

	orch := orchestrator.New(cfg.MinerU, clientFactory(cfg))
	jobs := jobmanager.New(orch, cfg.MaxConcurrentParses, cfg.MaxQueueDepth)

	reaperCtx, cancelReaper := context.WithCancel(context.Background())
	defer cancelReaper()
	go jobs.RunReaper(reaperCtx, 5*time.Minute)

	server := api.NewServer(cfg, orch, jobs, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info().Str("port", port).Msg("listening")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// clientFactory constructs an llm.Client for a requested variant, lazily
// per parse call rather than once at startup, since a process may only have
// one of GOOGLE_API_KEY/OPENAI_API_KEY configured.
func clientFactory(cfg config.Config) orchestrator.ClientFactory {
	return func(v llm.Variant) (llm.Client, error) {
		switch v {
		case llm.VariantGeminiFlash, llm.VariantGeminiPro:
			return llm.NewGemini(context.Background(), cfg.GoogleAPIKey, v, cfg.RateLimitPerMinute)
		case llm.VariantGPT51:
			return llm.NewOpenAI(cfg.OpenAIAPIKey, string(v), cfg.RateLimitPerMinute), nil
		default:
			return nil, exam.NewConfigError("unknown llm variant "+string(v), nil)
		}
	}
}
