package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Zachdehooge/pothole-dashboard/internal/logger"
	"github.com/Zachdehooge/pothole-dashboard/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const minInterval = 30 * time.Second

// watchInterval enforces the minimum update interval.
func watchInterval(d time.Duration) time.Duration {
	if d < minInterval {
		return minInterval
	}
	return d
}

// runWatchMode regenerates the dashboard until ctx is cancelled
func runWatchMode(ctx context.Context, cmd *cobra.Command, a *app) {
	every := watchInterval(a.cfg.Watch.Interval)

	cmd.Println(fmt.Sprintf("Watch mode activated. Updating every %s. Press Ctrl+C to stop.", every))
	if serveMode {
		stopServer := startServer(ctx, a)
		defer stopServer()
		cmd.Println(fmt.Sprintf("Open at %s", serveURL(a.cfg.HTTP.Addr)))
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopping watch mode.")
			return
		case <-ticker.C:
			if err := generate(ctx, cmd, a); err != nil {
				cmd.PrintErrln(fmt.Errorf("update failed: %w", err))
			}
		}
	}
}

// serveURL turns a listen address into a browsable URL.
func serveURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// startServer serves the map and the summary, nothing else.
func startServer(ctx context.Context, a *app) func() {
	srv := server.New(server.Options{
		Addr:              a.cfg.HTTP.Addr,
		ReadHeaderTimeout: a.cfg.HTTP.ReadHeaderTimeout,
		Pages:             []string{a.cfg.Output.MapPath, a.cfg.Output.ReportPath},
	}, a.registry)

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "could not start webserver", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		logger.Info(ctx, "stopping webserver...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}
