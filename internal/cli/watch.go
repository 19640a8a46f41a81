package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newspulse/internal/scheduler"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-analyze the watched keywords on a schedule",
	Long: `Watch runs the scheduler in the foreground, re-analyzing every
keyword on the configured watch list (watch.keywords) at the cron
schedule in watch.schedule. Stop with Ctrl-C.

Example config:

  watch:
    keywords: [tesla, "interest rates"]
    schedule: "@hourly"
    limit: 10`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if len(a.cfg.Watch.Keywords) == 0 {
		return fmt.Errorf("watch list is empty; set watch.keywords in the config")
	}

	sched := scheduler.New(a.cfg.Watch, func(ctx context.Context, keyword string, limit int) error {
		_, err := a.analyzer.Analyze(ctx, keyword, limit)
		return err
	}, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	fmt.Printf("Watching %d keywords on schedule %q, Ctrl-C to stop.\n",
		len(a.cfg.Watch.Keywords), a.cfg.Watch.Schedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return nil
}
