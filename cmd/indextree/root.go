package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for indextree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indextree",
		Short: "Rebuild a directory tree from web server listings",
		Long: `indextree walks the directory listing pages of a web server, starting
from a root URL, and rebuilds the tree they describe.

Every listing page is fetched once per directory. Each <a href> on the page
becomes a child: hrefs ending in "/" are directories and are fetched in turn,
anything else is a file. The result is rendered through HTML templates or
exported as Markdown, JSON or CSV.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
