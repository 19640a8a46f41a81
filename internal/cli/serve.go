package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newspulse/internal/scheduler"
	"newspulse/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the analyzer over HTTP:

  POST /api/analyze          score recent news for a keyword
  GET  /api/history          query scored history
  GET  /api/trends/:keyword  daily sentiment series
  GET  /api/stats            windowed summary statistics
  GET  /healthz              liveness probe

When the watch list is configured, the scheduler re-analyzes those
keywords in the background on the configured cron schedule.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(a.analyzer, addr, a.logger)

	sched := scheduler.New(a.cfg.Watch, func(ctx context.Context, keyword string, limit int) error {
		_, err := a.analyzer.Analyze(ctx, keyword, limit)
		return err
	}, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		a.logger.Info("shutting down", "signal", sig.String())
	}

	return srv.Shutdown(context.Background())
}
