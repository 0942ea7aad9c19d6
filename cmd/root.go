// Package cmd defines the CLI commands for the sunbiz-crawler executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sunbiz-crawler",
		Short: "Harvests newly filed business entities from the state registry.",
		Long: `sunbiz-crawler sweeps the state corporation registry by name prefix,
drives a headless browser through search and pagination, extracts structured
entity records from detail pages, and streams records filed within the
harvest window to the configured sink.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus CRAWLER_* env)")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
