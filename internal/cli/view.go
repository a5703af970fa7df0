package cli

import (
	"fmt"
	"time"

	"github.com/dealscope/dealscope/internal/crm"
	"github.com/dealscope/dealscope/internal/observability"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <opportunity-id>",
	Short: "Show one opportunity with derived guidance",
	Long: `Fetch an opportunity together with its account, contacts, most recent
activity, and the account's other opportunities, then render the records
alongside the derived guidance: next step, risk analysis, recommended
action, stage guidance, and recommended resources.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFetcher(); err != nil {
			return err
		}

		id := args[0]
		bundle, err := crm.FetchBundle(cmd.Context(), Fetcher, id)
		if err != nil {
			logEvent("ERROR", observability.EventQueryFailed, err.Error(), map[string]any{"opportunity_id": id})
			return fmt.Errorf("fetching opportunity %s: %w", id, err)
		}

		insight := Engine.ComputeInsight(bundle.Opportunity, bundle.Account, time.Now())

		logEvent("INFO", observability.EventOpportunityViewed, bundle.Opportunity.Name, map[string]any{
			"opportunity_id": bundle.Opportunity.ID,
			"stage":          string(bundle.Opportunity.StageName),
		})
		logEvent("INFO", observability.EventInsightComputed, insight.RiskMessage, map[string]any{
			"opportunity_id": bundle.Opportunity.ID,
			"days_remaining": insight.DaysRemaining,
		})

		fmt.Println(renderBundle(bundle, insight))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
