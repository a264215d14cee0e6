package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/nexus/internal/mcp"
)

func serveCmd() *cobra.Command {
	var watchInbox bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio or HTTP, per transport.mode)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil, false)
			if err != nil {
				return err
			}
			defer a.Close()

			server := mcp.NewServer(mcp.Config{
				Services: a.mcpServices(),
				Inbox:    a.cfg.Ingest.Dir,
				Version:  version,
				Logger:   a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchInbox {
				if a.ingest == nil {
					return errors.New("--watch needs a language model; set ANTHROPIC_API_KEY")
				}
				go func() {
					if err := runWatcher(ctx, a, a.cfg.Ingest.Dir); err != nil && !errors.Is(err, context.Canceled) {
						a.logger.Error("inbox watcher stopped", "error", err)
					}
				}()
			}

			if a.cfg.Transport.Mode == "stdio" {
				return runStdioMode(ctx, a.logger, server)
			}
			return runHTTPMode(ctx, a.logger, server, a.cfg.Server.Host, a.cfg.Server.Port)
		},
	}

	cmd.Flags().BoolVar(&watchInbox, "watch", false, "Also ingest inbox files as they change")
	return cmd
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, host string, port int) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
			Logger:         logger,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
