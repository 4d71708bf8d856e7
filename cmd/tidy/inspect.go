package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/parser"
	"github.com/Haashiraaa/data-analysis-projects/internal/probe"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		popt     config.Parser
		sheet    string
		skipRows int
		delim    string
		sentinel string
		starter  bool
		job      string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "inspect source",
		Short: "Report column types, missing values and date layouts of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popt.Options = config.Options{"sheet": sheet, "skip_rows": skipRows, "delimiter": delim}
			po, err := parser.FromConfig(popt, a.log)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := probe.Inspect(ctx, args[0], probe.Options{Parser: po, Sentinel: sentinel, Logger: a.log})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if starter {
				b, err := config.Marshal(res.Starter(job), format)
				if err != nil {
					return err
				}
				_, err = out.Write(b)
				return err
			}
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if format != "yaml" && format != "text" {
				return fmt.Errorf("unknown format %q", format)
			}
			return res.Fprint(out)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&popt.Kind, "kind", "", "source kind: csv, xlsx, parquet, json (default from extension)")
	fl.StringVar(&sheet, "sheet", "", "spreadsheet sheet (default first)")
	fl.IntVar(&skipRows, "skip-rows", 0, "preamble rows above the header")
	fl.StringVar(&delim, "delimiter", "", "CSV delimiter (default ',' or tab for .tsv)")
	fl.StringVar(&sentinel, "sentinel", config.DefaultSentinel, "not-applicable placeholder to count")
	fl.BoolVar(&starter, "starter", false, "print a starter pipeline instead of the report")
	fl.StringVar(&job, "job", "", "job name for the starter pipeline (default from file name)")
	fl.StringVarP(&format, "format", "f", "yaml", "starter format yaml or json; report format text or json")
	return cmd
}
