package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kenwebdev/folio/internal/api"
	"github.com/kenwebdev/folio/internal/config"
	"github.com/kenwebdev/folio/internal/pipeline"
	"github.com/kenwebdev/folio/internal/session"
)

// --- ask ---

var askLang string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Resolve a question through the pipeline from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		resolver, _, err := buildResolver(cfg)
		if err != nil {
			return err
		}

		lang := askLang
		if lang == "" {
			lang = cfg.Chat.DefaultLang
		}

		question := strings.Join(args, " ")
		sess := session.New(lang)

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		answer, meta, err := resolver.Ask(ctx, sess, question)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, answer)
		if meta.Stage == pipeline.StageFailed {
			printWarning("turn failed (%v); showed the apology message", meta.Err)
		} else {
			printStatus("Resolved by", "%s stage in %dms", meta.Stage, meta.DurationMs)
		}
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show folio system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		client := &http.Client{Timeout: 2 * time.Second}
		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)

		// Probe the local server and the configured backend concurrently.
		var serverUp, proxyUp bool
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			serverUp = probe(ctx, client, serverURL+"/health")
			return nil
		})
		if cfg.Chat.ProxyBaseURL != "" {
			g.Go(func() error {
				proxyUp = probe(ctx, client, strings.TrimRight(cfg.Chat.ProxyBaseURL, "/")+"/health")
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if serverUp {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "stopped")
		}
		if cfg.Chat.ProxyBaseURL == "" {
			printStatus("Proxy", "not configured")
		} else if proxyUp {
			printStatus("Proxy", "reachable at %s", cfg.Chat.ProxyBaseURL)
		} else {
			printStatus("Proxy", "unreachable at %s", cfg.Chat.ProxyBaseURL)
		}
		if cfg.Gemini.APIKey == "" {
			printStatus("Gemini", "no API key configured")
		} else {
			printStatus("Gemini", "model %s", cfg.Gemini.Model)
		}
		printStatus("Default lang", "%s", cfg.Chat.DefaultLang)
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	},
}

func probe(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		resolver, doc, err := buildResolver(cfg)
		if err != nil {
			return err
		}

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Resolver:    resolver,
			Knowledge:   doc,
			DefaultLang: cfg.Chat.DefaultLang,
		})

		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askLang, "lang", "", "response language code (defaults to chat.default_lang)")
}
