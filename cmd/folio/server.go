package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenwebdev/folio/internal/api"
	"github.com/kenwebdev/folio/internal/config"
	"github.com/kenwebdev/folio/internal/gemini"
	"github.com/kenwebdev/folio/internal/intent"
	"github.com/kenwebdev/folio/internal/knowledge"
	"github.com/kenwebdev/folio/internal/pipeline"
	"github.com/kenwebdev/folio/internal/prefs"
	"github.com/kenwebdev/folio/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the folio chat server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// buildResolver wires the pipeline from configuration. The preference store
// is separate: the pipeline itself has no durable state.
func buildResolver(cfg config.Config) (*pipeline.Resolver, *knowledge.Document, error) {
	doc, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		// A missing or unparseable knowledge payload is not fatal: the
		// pipeline skips the deterministic stage and leans on the fallback.
		slog.Warn("knowledge unavailable, deterministic matching disabled", "error", err)
		doc = nil
	}

	var proxyClient pipeline.ProxyClient
	if cfg.Chat.ProxyBaseURL != "" {
		proxyClient = proxy.NewClient(cfg.Chat.ProxyBaseURL)
	}

	gen := gemini.NewClient(cfg.Gemini.APIKey).WithModel(cfg.Gemini.Model)
	return pipeline.NewResolver(doc, intent.New(), proxyClient, gen), doc, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "folio version %s\n", version)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	if cfg.Gemini.APIKey == "" {
		printWarning("no Gemini API key configured; the generative fallback will answer with an apology")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver, doc, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	store, err := prefs.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening preference store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing preference store: %v\n", err)
		}
	}()

	handler := api.NewHandler(api.Deps{
		Resolver:    resolver,
		Knowledge:   doc,
		Prefs:       store,
		DefaultLang: cfg.Chat.DefaultLang,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		printSuccess("folio listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
