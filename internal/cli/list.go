package cli

import (
	"fmt"

	"github.com/dealscope/dealscope/internal/observability"
	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List opportunities from the record source",
	Long: `List opportunities available in the record source as a table with
columns: ID, Name, Stage, Close Date, Amount.

The number of rows is capped by --limit, defaulting to the configured
query limit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFetcher(); err != nil {
			return err
		}

		limit := listLimit
		if limit <= 0 {
			limit = Config.QueryLimit
		}

		opps, err := Fetcher.ListOpportunities(cmd.Context(), limit)
		if err != nil {
			logEvent("ERROR", observability.EventQueryFailed, err.Error(), nil)
			return fmt.Errorf("fetching opportunities: %w", err)
		}

		if len(opps) == 0 {
			fmt.Println("No opportunities found.")
			return nil
		}

		fmt.Printf("%-18s %-30s %-22s %-12s %s\n", "ID", "Name", "Stage", "Close Date", "Amount")
		for _, opp := range opps {
			fmt.Printf("%-18s %-30s %-22s %-12s %s\n",
				opp.ID,
				truncate(opp.Name, 30),
				truncate(string(opp.StageName), 22),
				formatDate(opp.CloseDate),
				formatAmount(opp.Amount))
		}
		fmt.Printf("\n%d opportunity(ies)\n", len(opps))
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum opportunities to list (default: configured query limit)")
	rootCmd.AddCommand(listCmd)
}
