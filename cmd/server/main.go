package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/redline/internal/annotate"
	"github.com/dgallion1/redline/internal/api"
	"github.com/dgallion1/redline/internal/config"
	"github.com/dgallion1/redline/internal/grammar"
	"github.com/dgallion1/redline/internal/lexicon"
	"github.com/dgallion1/redline/internal/pipeline"
	"github.com/dgallion1/redline/internal/review"
	"github.com/dgallion1/redline/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Static correction data, loaded once, read-only afterwards.
	lex := lexicon.Load(cfg.LexiconPath, log)

	// Initialize source clients.
	grammarStats := stats.NewWindow(cfg.StatsWindow)
	checker := grammar.NewClient(cfg.GrammarURL, cfg.GrammarTimeout, grammarStats)

	var reviewer *review.Client
	if cfg.ReviewerEnabled() {
		reviewer = review.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, lex.Stopwords(), stats.NewWindow(cfg.StatsWindow))
	} else {
		log.Info("reviewer disabled, no API key configured")
	}

	// Initialize pipeline.
	collector := newCollector(checker, reviewer, lex, log)
	orch := pipeline.NewOrchestrator(cfg, collector, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, reviewer, grammarStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		checker.Close()
		if reviewer != nil {
			reviewer.Close()
		}
	}()

	log.Info("starting redline", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newCollector wires the retrying grammar source and the optional
// reviewer into one span collector.
func newCollector(checker *grammar.Client, reviewer *review.Client, lex *lexicon.Lexicon, log *slog.Logger) *annotate.Collector {
	src := pipeline.RetryingGrammar{Source: checker, Log: log}
	if reviewer == nil {
		return annotate.NewCollector(src, nil, lex, log)
	}
	return annotate.NewCollector(src, reviewer, lex, log)
}
