package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/logging"
	"github.com/Haashiraaa/data-analysis-projects/internal/metrics"
	"github.com/Haashiraaa/data-analysis-projects/internal/metrics/datadog"
	"github.com/Haashiraaa/data-analysis-projects/internal/metrics/prompush"
	"github.com/Haashiraaa/data-analysis-projects/internal/tracing"

	// register all backends with the storage factory.
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/all"
)

var (
	version = "dev"
	commit  = "none"
)

// envSettings are read from TIDY_* variables. Flags win over them.
type envSettings struct {
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"console"`
	MetricsBackend string `envconfig:"METRICS_BACKEND" default:"none"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:"http://localhost:9091"`
	DogstatsdAddr  string `envconfig:"DOGSTATSD_ADDR" default:"127.0.0.1:8125"`
	Trace          string `envconfig:"TRACE" default:"none"`
}

// app holds process-wide settings resolved before any command runs.
type app struct {
	settings envSettings
	log      *zap.Logger
	stdout   io.Writer
	stderr   io.Writer
}

func execute() int {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var flags envSettings

	root := &cobra.Command{
		Use:           "tidy",
		Short:         "Clean and summarise tabular exports",
		Long:          "tidy loads a CSV, spreadsheet or parquet source, runs it through a configured\ncleaning pipeline and analysis, and saves the results atomically.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := envconfig.Process("TIDY", &a.settings); err != nil {
				return fmt.Errorf("environment: %w", err)
			}
			// Precedence: flag > env > default.
			pick := func(name string, dst *string, v string) {
				if cmd.Flags().Changed(name) {
					*dst = v
				}
			}
			pick("log-level", &a.settings.LogLevel, flags.LogLevel)
			pick("log-format", &a.settings.LogFormat, flags.LogFormat)
			pick("metrics-backend", &a.settings.MetricsBackend, flags.MetricsBackend)
			pick("pushgateway-url", &a.settings.PushgatewayURL, flags.PushgatewayURL)
			pick("dogstatsd-addr", &a.settings.DogstatsdAddr, flags.DogstatsdAddr)
			pick("trace", &a.settings.Trace, flags.Trace)

			log, err := logging.New(logging.Config{Level: a.settings.LogLevel, Encoding: a.settings.LogFormat})
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error (env TIDY_LOG_LEVEL)")
	pf.StringVar(&flags.LogFormat, "log-format", "console", "log encoding: console or json (env TIDY_LOG_FORMAT)")
	pf.StringVar(&flags.MetricsBackend, "metrics-backend", "none", "metrics backend: none, pushgateway, datadog (env TIDY_METRICS_BACKEND)")
	pf.StringVar(&flags.PushgatewayURL, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL (env TIDY_PUSHGATEWAY_URL)")
	pf.StringVar(&flags.DogstatsdAddr, "dogstatsd-addr", "127.0.0.1:8125", "DogStatsD address (env TIDY_DOGSTATSD_ADDR)")
	pf.StringVar(&flags.Trace, "trace", "none", "span exporter: none or stdout (env TIDY_TRACE)")

	root.AddCommand(
		newRunCmd(a),
		newAnalyzeCmd(a),
		newValidateCmd(a),
		newInspectCmd(a),
		newRecipesCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setupMetrics installs the configured backend and returns its flush.
func (a *app) setupMetrics(job string) func() {
	noop := func() {}
	var (
		b   metrics.Backend
		err error
	)
	switch a.settings.MetricsBackend {
	case "", "none":
		a.log.Debug("metrics disabled")
		return noop
	case "pushgateway":
		b, err = prompush.NewBackend(job, a.settings.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       a.settings.DogstatsdAddr,
			Namespace:  "tidy.",
			GlobalTags: []string{"service:tidy"},
		})
	default:
		a.log.Warn("unknown metrics backend; metrics disabled", zap.String("backend", a.settings.MetricsBackend))
		return noop
	}
	if err != nil {
		a.log.Warn("metrics backend init failed; using nop", zap.Error(err))
		return noop
	}
	a.log.Info("metrics enabled", zap.String("backend", a.settings.MetricsBackend), zap.String("job", job))
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			a.log.Warn("metrics flush failed", zap.Error(err))
		}
	}
}

// setupTracing installs the configured span exporter and returns its
// shutdown.
func (a *app) setupTracing() (func(), error) {
	_, shutdown, err := tracing.Setup(tracing.Config{
		Exporter:       a.settings.Trace,
		ServiceName:    "tidy",
		ServiceVersion: version,
		Writer:         a.stderr,
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			a.log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "tidy %s (%s)\n", version, commit)
			return err
		},
	}
}
