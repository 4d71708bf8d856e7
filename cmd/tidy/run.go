package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/analysis"
	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/pipeline"
	"github.com/Haashiraaa/data-analysis-projects/internal/recipes"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer/builtin"
)

// runFlags are shared by run and analyze.
type runFlags struct {
	recipe  string
	source  string
	baseDir string
	strict  bool
	dryRun  bool
	output  string
	rows    int
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.recipe, "recipe", "", "run a built-in recipe instead of a config file (see `tidy recipes`)")
	fl.StringVar(&f.source, "source", "", "override the source path")
	fl.StringVar(&f.baseDir, "base-dir", "", "directory relative paths resolve against")
	fl.BoolVar(&f.strict, "strict", false, "treat coercion and validation findings as fatal")
	fl.StringVarP(&f.output, "output", "o", "text", "report format: text or json")
}

// loadPipeline resolves the pipeline from a recipe or a config file and lints
// it, printing every issue to stderr.
func (a *app) loadPipeline(f *runFlags, args []string) (config.Pipeline, error) {
	var (
		p    config.Pipeline
		name string
		err  error
	)
	switch {
	case f.recipe != "" && len(args) > 0:
		return p, errors.New("give either a config file or --recipe, not both")
	case f.recipe != "":
		name = "recipe " + f.recipe
		p, err = recipes.Get(f.recipe, f.source)
	case len(args) == 1:
		name = args[0]
		p, err = config.Load(args[0])
		if err == nil && f.source != "" {
			p.Source.Override(f.source)
		}
	default:
		return p, errors.New("a config file or --recipe is required")
	}
	if err != nil {
		return p, err
	}
	if f.strict {
		p.Settings.Strict = true
	}
	if err := a.lint(name, p); err != nil {
		return p, err
	}
	return p, nil
}

func (a *app) lint(name string, p config.Pipeline) error {
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(a.stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid: %s", name)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// execute runs p with logging, metrics and tracing wired in.
func (a *app) execute(p config.Pipeline, f *runFlags) (*pipeline.Result, error) {
	ctx, stop := signalContext()
	defer stop()

	shutdown, err := a.setupTracing()
	if err != nil {
		return nil, err
	}
	defer shutdown()
	flush := a.setupMetrics(p.Job)
	defer flush()

	res, err := pipeline.Run(ctx, p, pipeline.Options{
		Logger:   a.log,
		Observer: pipeline.Observers{pipeline.LogObserver{Logger: a.log}, pipeline.MetricsObserver{}},
		BaseDir:  f.baseDir,
		DryRun:   f.dryRun,
	})
	if errors.Is(err, context.Canceled) {
		a.log.Warn("interrupted; nothing was saved after the interrupted stage")
	}
	if err != nil && res != nil && len(res.Unsaved) > 0 {
		a.log.Warn("some destinations were not written",
			zap.Strings("written", res.Saved),
			zap.Strings("not_written", res.Unsaved),
		)
	}
	return res, err
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [config]",
		Short: "Run a pipeline: load, clean, analyse and save",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadPipeline(f, args)
			if err != nil {
				return err
			}
			res, err := a.execute(p, f)
			if err != nil {
				return explain(err)
			}
			for _, s := range res.Saved {
				a.log.Info("saved", zap.String("destination", s))
			}
			return writeReport(cmd.OutOrStdout(), res, f.output)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "run every stage but save nothing")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "analyze [config]",
		Short: "Run a pipeline without saving and print every analysis table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadPipeline(f, args)
			if err != nil {
				return err
			}
			f.dryRun = true
			res, err := a.execute(p, f)
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			if f.output == "json" {
				return writeReport(out, res, f.output)
			}
			if err := printTables(out, res.Analysis, f.rows); err != nil {
				return err
			}
			return writeReport(out, res, f.output)
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&f.rows, "rows", 20, "rows to print per table (0 prints all)")
	return cmd
}

func printTables(w io.Writer, results []analysis.Result, rows int) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "== %s (%d row(s))\n", r.Name, r.Table.NumRows()); err != nil {
			return err
		}
		if err := table.Fprint(w, r.Table, rows); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(w io.Writer, res *pipeline.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report)
	case "", "text":
		return res.Report.Fprint(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// explain adds the error kind so a failed run says what went wrong and
// where.
func explain(err error) error {
	if k := errs.KindOf(err); k != "" {
		return fmt.Errorf("%s error: %w", k, err)
	}
	return err
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate config...",
		Short: "Lint pipeline files and build their stages without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := a.validateFile(path); err != nil {
					fmt.Fprintf(a.stderr, "%s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configuration(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) validateFile(path string) error {
	p, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := a.lint(path, p); err != nil {
		return err
	}
	env := builtin.Env{Sentinel: p.Settings.SentinelOrDefault(), Logger: a.log}
	if _, err := builtin.BuildChain(p.Transform, env); err != nil {
		return err
	}
	_, err = analysis.Compile(p.Analysis, env)
	return err
}
