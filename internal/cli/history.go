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
	historyDays    int
	historyKeyword string
	historyJSON    bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show scored articles from history",
	Long: `History lists scored articles from the append-only store,
newest window first. Filter to one keyword with --keyword; without it
every keyword is included.

Example:
  newspulse history --days 3
  newspulse history --keyword tesla --days 30 --json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyDays, "days", 7, "window size in days")
	historyCmd.Flags().StringVar(&historyKeyword, "keyword", "", "filter to one keyword")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "emit records as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := a.analyzer.History(ctx, historyKeyword, historyDays)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No records in window.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  [%s %.2f] %-12s %s (%s)\n",
			rec.AnalyzedAt.Local().Format("2006-01-02 15:04"),
			rec.Result.Label, rec.Result.Confidence,
			rec.Keyword, rec.Title, rec.Source)
	}
	fmt.Printf("\n%d records over the last %d days\n", len(records), historyDays)
	return nil
}
