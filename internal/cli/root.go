// Package cli defines the dealscope command tree. Service instances are
// injected by the app wiring in internal/app.go before Execute runs.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "dealscope",
	Short: "DealScope - Salesforce opportunity dashboard for sales teams",
	Long: `DealScope is a single-user terminal dashboard over a Salesforce record
source. It fetches opportunity, account, contact, and activity records and
derives guidance for each deal: the suggested next step, a risk assessment,
a recommended action, stage-specific guidance, and recommended reading for
the account's industry.

Commands that read records need Salesforce credentials in .dealscope.yaml
or DEALSCOPE_SALESFORCE_* environment variables. Without credentials the
static views (help, version, resource catalog listing) remain usable.

DealScope is read-only: it never writes back to the record source and
keeps no state between invocations beyond its event log.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dealscope %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
