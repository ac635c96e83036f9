// instafilter-tool lists the available filters and applies them to local images
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "instafilter-tool",
		Short:         "Apply instafilter filters to local images",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newFiltersCommand(),
		newApplyCommand(),
		newVersionCommand(),
	)

	return cmd
}
