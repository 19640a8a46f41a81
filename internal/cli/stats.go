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
	statsDays    int
	statsKeyword string
	statsJSON    bool
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics for the history window",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsDays, "days", 7, "window size in days")
	statsCmd.Flags().StringVar(&statsKeyword, "keyword", "", "filter to one keyword")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit stats as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, top, err := a.analyzer.Stats(ctx, statsKeyword, statsDays)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"stats":        stats,
			"top_keywords": top,
		})
	}

	fmt.Printf("Last %d days: %d articles, %d keywords, %d sources\n",
		stats.PeriodDays, stats.TotalArticles, stats.UniqueKeywords, stats.UniqueSources)
	fmt.Printf("Sentiment: %.0f%% positive / %.0f%% negative / %.0f%% neutral (avg confidence %.2f)\n",
		stats.PositivePct, stats.NegativePct, stats.NeutralPct, stats.AvgConfidence)

	if len(top) > 0 {
		fmt.Println("\nMost active keywords:")
		for _, k := range top {
			fmt.Printf("  %-20s %3d articles, sentiment ratio %+.2f\n",
				k.Keyword, k.ArticleCount, k.SentimentRatio)
		}
	}
	return nil
}
