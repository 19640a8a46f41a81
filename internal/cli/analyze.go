package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	analyzeLimit   int
	analyzeTimeout time.Duration
	analyzeJSON    bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <keyword>",
	Short: "Fetch and score recent news for a keyword",
	Long: `Analyze fetches recent coverage for the keyword, runs every
configured classifier over each article, fuses the verdicts into one
label per article, and appends the results to history.

Articles already present in history are skipped before any model runs.

Example:
  newspulse analyze tesla
  newspulse analyze "interest rates" --limit 20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 10, "max articles to fetch")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall run timeout")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	keyword := args[0]

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	report, err := a.analyzer.Analyze(ctx, keyword, analyzeLimit)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Keyword: %s\n", report.Keyword)
	fmt.Printf("Scored %d articles (%d skipped, %d failed), avg confidence %.2f\n",
		report.Summary.Total, report.Summary.Skipped, report.Summary.Failed,
		report.Summary.AvgConfidence)
	fmt.Printf("Sentiment: %d positive / %d negative / %d neutral\n\n",
		report.Summary.Positive, report.Summary.Negative, report.Summary.Neutral)

	for _, art := range report.Articles {
		fmt.Printf("  [%s %.2f] %s (%s)\n",
			art.Result.Label, art.Result.Confidence, art.Title, art.Source)
	}
	return nil
}
