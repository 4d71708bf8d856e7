package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/recipes"
)

func newRecipesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List the built-in pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range recipes.Names() {
				p, err := recipes.Get(name, "")
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, p.Description)
			}
			return tw.Flush()
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show name",
		Short: "Print a built-in pipeline so it can be copied and edited",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if format == "yaml" {
				b, err = recipes.Raw(args[0])
			} else {
				var p config.Pipeline
				if p, err = recipes.Get(args[0], ""); err == nil {
					b, err = config.Marshal(p, format)
				}
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "yaml", "yaml (as written) or json")
	cmd.AddCommand(show)
	return cmd
}
