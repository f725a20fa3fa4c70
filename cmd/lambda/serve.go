package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/lambda/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var flagScript, flagAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a script's resolvers over HTTP",
		Long:  "Loads the script once and answers POST /resolve with the dispatch result for each event body. Stops cleanly on SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, s, err := a.loadScript(cmd.Context(), flagScript)
			if err != nil {
				return err
			}
			defer e.Close()

			addr := a.cfg.Addr
			if cmd.Flags().Changed("addr") {
				addr = flagAddr
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h := server.New(s,
				server.WithTimeout(a.cfg.HTTPTimeout),
				server.WithLogger(a.logger))
			a.logger.Info("serving", "addr", ln.Addr().String(), "script", s.Name(), "resolvers", len(s.Resolvers()))
			return serve(ctx, ln, h, a.logger)
		},
	}
	cmd.Flags().StringVar(&flagScript, "script", "", "resolver script path")
	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default: $LAMBDA_ADDR or 127.0.0.1:8686)")
	return cmd
}

// serve runs h on ln until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, ln net.Listener, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
