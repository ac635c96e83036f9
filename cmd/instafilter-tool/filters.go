package main

import (
	"fmt"
	"strings"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/spf13/cobra"
)

func newFiltersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the filters and the controls they respond to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, entry := range filter.Default().Entries() {
				controls := []string{}
				for _, control := range entry.Capabilities().Visible() {
					controls = append(controls, string(control))
				}

				name := entry.Name
				if name == filter.DefaultName {
					name += " (default)"
				}

				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", name, strings.Join(controls, ", ")); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
