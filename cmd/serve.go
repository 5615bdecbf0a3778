package cmd

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sitemap/internal/app"
	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/serve"
)

var (
	serveHTTP string
	serveMCP  bool
	warm      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site map over HTTP or MCP (stdio)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := ctxlog.FromContext(ctx)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg := prometheus.NewRegistry()
		a, err := app.New(ctx, cfg, app.Options{Registerer: reg})
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if warm {
			if _, err := a.SiteMap.BaseTree(ctx); err != nil {
				return err
			}
		}

		if serveMCP {
			logger.Info("serving MCP on stdio", "sitemap", cfg.Name)
			return server.ServeStdio(serve.NewMCPServer(a.SiteMap, version))
		}

		srv := &http.Server{
			Addr:              serveHTTP,
			Handler:           serve.NewRouter(a.SiteMap, reg),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(_ net.Listener) context.Context { return ctx },
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving HTTP", "addr", serveHTTP, "sitemap", cfg.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Serve MCP tools on stdio instead of HTTP")
	serveCmd.Flags().BoolVar(&warm, "warm", false, "Build the tree before accepting requests")
	rootCmd.AddCommand(serveCmd)
}
