package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dealscope/dealscope/internal/observability"
	"github.com/dealscope/dealscope/pkg/models"
	"github.com/spf13/cobra"
)

var resourcesDownload bool

var resourcesCmd = &cobra.Command{
	Use:   "resources [industry]",
	Short: "Show or download recommended resources for an industry",
	Long: `Show the recommended documents for an industry from the resource
catalog. With no argument, the catalog's industries are listed.

With --download, each document is copied from the resources directory into
the current working directory. A catalog entry whose file is missing on
disk is a configuration error and aborts the download.

This command works without record-source credentials.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Library == nil {
			return fmt.Errorf("resource library not initialized")
		}

		if len(args) == 0 {
			industries := Library.Industries()
			sort.Strings(industries)
			fmt.Println("Industries with recommended resources:")
			for _, name := range industries {
				fmt.Printf("  %s\n", name)
			}
			return nil
		}

		// Industry names may contain spaces ("Financial Services").
		industry := strings.Join(args, " ")
		resources := Library.Lookup(industry)
		if len(resources) == 0 {
			fmt.Printf("No resources available for industry %q.\n", industry)
			return nil
		}

		for _, r := range resources {
			fmt.Printf("  %s (%s)\n", r.Title, r.File)

			if !resourcesDownload {
				continue
			}
			if err := downloadResource(r); err != nil {
				return err
			}
			logEvent("INFO", observability.EventResourceDownloaded, r.File, map[string]any{"industry": industry})
			fmt.Printf("    downloaded to ./%s\n", r.File)
		}
		return nil
	},
}

// downloadResource copies a catalog entry's file into the current working
// directory.
func downloadResource(r models.Resource) error {
	src, err := Library.Open(r)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", r.File, err)
	}
	defer src.Close()

	dst, err := os.Create(r.File)
	if err != nil {
		return fmt.Errorf("creating %s: %w", r.File, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s: %w", r.File, err)
	}
	return nil
}

func init() {
	resourcesCmd.Flags().BoolVar(&resourcesDownload, "download", false, "copy the files into the current directory")
	rootCmd.AddCommand(resourcesCmd)
}
