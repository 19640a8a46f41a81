package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newspulse/internal/model"
)

var (
	trendsDays int
	trendsJSON bool
)

// trendsCmd represents the trends command
var trendsCmd = &cobra.Command{
	Use:   "trends <keyword>",
	Short: "Show the daily sentiment series for a keyword",
	Long: `Trends buckets the keyword's history into one point per day and
prints the label counts and average confidence of each bucket. Days
with no scored articles appear as empty buckets, so the series always
covers the full window.

Example:
  newspulse trends tesla --days 14`,
	Args: cobra.ExactArgs(1),
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)

	trendsCmd.Flags().IntVar(&trendsDays, "days", 7, "window size in days")
	trendsCmd.Flags().BoolVar(&trendsJSON, "json", false, "emit the series as JSON")
}

func runTrends(cmd *cobra.Command, args []string) error {
	keyword := args[0]

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	points, err := a.analyzer.Trends(ctx, keyword, trendsDays)
	if err != nil {
		return fmt.Errorf("derive trends: %w", err)
	}

	if trendsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	}

	fmt.Printf("Sentiment for %q, last %d days:\n\n", keyword, trendsDays)
	for _, p := range points {
		total := p.Positive + p.Negative + p.Neutral
		fmt.Printf("  %s  %s  +%d/-%d/=%d",
			p.BucketStart.Format("2006-01-02"),
			sparkline(p), p.Positive, p.Negative, p.Neutral)
		if total > 0 {
			fmt.Printf("  avg %.2f", p.AvgConfidence)
		}
		fmt.Println()
	}
	return nil
}

// sparkline renders a bucket as a crude bar so shifts stand out in a
// terminal.
func sparkline(p model.TrendPoint) string {
	return strings.Repeat("+", p.Positive) +
		strings.Repeat("-", p.Negative) +
		strings.Repeat("=", p.Neutral)
}
