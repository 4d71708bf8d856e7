// Package pipeline drives one cleaning run: load the source, thread the table
// through the configured stages, run the analysis steps, summarise, and only
// then persist. Cancellation is checked between stages. Nothing is saved when
// any stage fails, and file destinations are finalised atomically.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/analysis"
	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource/file"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource/httpds"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/parser"
	"github.com/Haashiraaa/data-analysis-projects/internal/report"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/tracing"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer/builtin"
)

// Options control a run. The zero value logs nothing, traces to the global
// provider and saves every configured destination.
type Options struct {
	Logger   *zap.Logger
	Observer Observer
	Tracer   trace.Tracer

	// BaseDir resolves relative source, destination and option paths.
	BaseDir string

	// DryRun skips every save.
	DryRun bool
}

// Result is everything a finished run produced.
type Result struct {
	RunID string
	Job   string

	Raw      *table.Table
	Clean    *table.Table
	Analysis []analysis.Result

	// Skipped counts source rows the loader could not use.
	Skipped int
	// Dropped counts rows removed by transform stages.
	Dropped int

	Findings []Finding
	Report   *report.Report

	// Saved lists the destinations written, in order.
	Saved []string
	// Unsaved lists the destinations a failed save phase did not write.
	Unsaved []string
}

// Seams for tests.
var (
	loadFn     = parser.LoadFrom
	newSaverFn = storage.New
)

type runner struct {
	p      config.Pipeline
	opt    Options
	log    *zap.Logger
	obs    Observer
	tracer trace.Tracer
	res    *Result
}

// Run executes p. On failure the returned Result holds whatever finished
// before the failing stage, and the error names that stage.
func Run(ctx context.Context, p config.Pipeline, opt Options) (*Result, error) {
	r := newRunner(p, opt)
	ctx, span := r.tracer.Start(ctx, "pipeline "+p.Job, trace.WithAttributes(
		attribute.String("job", p.Job),
		attribute.String("run_id", r.res.RunID),
	))
	defer span.End()

	err := r.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("run failed", zap.Error(err))
		return r.res, err
	}
	r.log.Info("run done",
		zap.Int("rows_loaded", r.res.Raw.NumRows()),
		zap.Int("rows_clean", r.res.Clean.NumRows()),
		zap.Int("rows_skipped", r.res.Skipped),
		zap.Int("rows_dropped", r.res.Dropped),
		zap.Int("findings", len(r.res.Findings)),
	)
	return r.res, nil
}

func newRunner(p config.Pipeline, opt Options) *runner {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	log = log.With(zap.String("job", p.Job), zap.String("run_id", runID))

	obs := opt.Observer
	if obs == nil {
		obs = LogObserver{Logger: log}
	}
	tr := opt.Tracer
	if tr == nil {
		tr = tracing.Tracer()
	}
	return &runner{
		p:      p,
		opt:    opt,
		log:    log,
		obs:    obs,
		tracer: tr,
		res:    &Result{RunID: runID, Job: p.Job},
	}
}

func (r *runner) env() builtin.Env {
	return builtin.Env{
		Sentinel: r.p.Settings.SentinelOrDefault(),
		BaseDir:  r.opt.BaseDir,
		Logger:   r.log,
	}
}

func (r *runner) path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.opt.BaseDir == "" {
		return p
	}
	return filepath.Join(r.opt.BaseDir, p)
}

func (r *runner) run(ctx context.Context) error {
	// Build everything before touching the source so a bad config fails fast.
	chain, err := builtin.BuildChain(r.p.Transform, r.env())
	if err != nil {
		return err
	}
	steps, err := analysis.Compile(r.p.Analysis, r.env())
	if err != nil {
		return err
	}
	popt, err := parser.FromConfig(r.p.Parser, r.log)
	if err != nil {
		return err
	}

	if err := r.load(ctx, popt); err != nil {
		return err
	}
	cur := r.res.Raw
	for i, s := range chain {
		cur, err = r.transform(ctx, r.p.Transform[i].Label(), s, cur)
		if err != nil {
			return err
		}
	}
	r.res.Clean = cur

	if err := r.analyse(ctx, steps); err != nil {
		return err
	}

	rep, err := report.Build(cur, r.p.Report)
	if err != nil {
		return errs.InStage("report", err)
	}
	rep.Job = r.p.Job
	rep.RunID = r.res.RunID
	rep.RowsLoaded = r.res.Raw.NumRows()
	for _, f := range r.res.Findings {
		rep.Findings = append(rep.Findings, f.ValidationError)
	}
	r.res.Report = rep

	if r.opt.DryRun {
		r.log.Info("dry run, nothing saved")
		return nil
	}
	return r.saveAll(ctx)
}

// stage runs fn as one observed, traced stage after checking ctx.
func (r *runner) stage(ctx context.Context, name string, phase Phase, rowsIn int, fn func(context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return errs.InStage(name, err)
	}
	ctx, span := r.tracer.Start(ctx, "stage "+name, trace.WithAttributes(
		attribute.String("phase", string(phase)),
		attribute.Int("rows_in", rowsIn),
	))
	defer span.End()

	start := time.Now()
	rowsOut, err := fn(ctx)
	err = errs.InStage(name, err)
	r.obs.OnStage(StageEvent{
		RunID:    r.res.RunID,
		Job:      r.p.Job,
		Stage:    name,
		Phase:    phase,
		RowsIn:   rowsIn,
		RowsOut:  rowsOut,
		Duration: time.Since(start),
		Err:      err,
	})
	span.SetAttributes(attribute.Int("rows_out", rowsOut))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *runner) record(stage string, findings []errs.ValidationError) {
	for _, v := range findings {
		f := Finding{RunID: r.res.RunID, Job: r.p.Job, Stage: stage, ValidationError: v}
		r.res.Findings = append(r.res.Findings, f)
		r.obs.OnFinding(f)
	}
}

func (r *runner) load(ctx context.Context, popt parser.Options) error {
	src, err := r.source()
	if err != nil {
		return errs.InStage("load", err)
	}
	return r.stage(ctx, "load", PhaseLoad, -1, func(ctx context.Context) (int, error) {
		t, skipped, err := loadFn(ctx, src, popt)
		if err != nil {
			return 0, err
		}
		r.res.Raw = t
		r.res.Skipped = skipped
		return t.NumRows(), nil
	})
}

func (r *runner) source() (datasource.Source, error) {
	s := r.p.Source
	switch s.Kind {
	case "", "file":
		return file.NewLocal(r.path(s.File.Path)), nil
	case "http":
		var timeout time.Duration
		if s.HTTP.Timeout != "" {
			d, err := time.ParseDuration(s.HTTP.Timeout)
			if err != nil {
				return nil, fmt.Errorf("source timeout: %w", err)
			}
			timeout = d
		}
		return httpds.NewSource(s.HTTP.URL, httpds.Config{
			Timeout:            timeout,
			MaxRetries:         s.HTTP.MaxRetries,
			Headers:            s.HTTP.Headers,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", s.Kind)
	}
}

func (r *runner) transform(ctx context.Context, name string, s transformer.Transformer, in *table.Table) (*table.Table, error) {
	var out *table.Table
	err := r.stage(ctx, name, PhaseTransform, in.NumRows(), func(context.Context) (int, error) {
		t, findings, err := transformer.Step(s, in, r.p.Settings.Strict)
		r.record(name, findings)
		if err != nil {
			return 0, err
		}
		out = t
		if d := in.NumRows() - t.NumRows(); d > 0 {
			r.res.Dropped += d
		}
		return t.NumRows(), nil
	})
	return out, err
}

func (r *runner) analyse(ctx context.Context, steps []analysis.Compiled) error {
	ts := analysis.Tables{analysis.Clean: r.res.Clean}
	for _, c := range steps {
		name := "analysis " + c.Step.Name
		in, _ := ts.Get(c.Input())
		rowsIn := -1
		if in != nil {
			rowsIn = in.NumRows()
		}
		err := r.stage(ctx, name, PhaseAnalysis, rowsIn, func(context.Context) (int, error) {
			out, err := c.Op(ts)
			if err != nil {
				return 0, err
			}
			ts[c.Step.Name] = out
			r.res.Analysis = append(r.res.Analysis, analysis.Result{Name: c.Step.Name, Table: out, Save: c.Step.Save})
			return out.NumRows(), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// saveTarget is one destination of the save phase.
type saveTarget struct {
	stage string
	cfg   storage.Config
	tbl   *table.Table
}

func (r *runner) saveTargets() []saveTarget {
	var out []saveTarget
	add := func(stage string, dst config.Storage, t *table.Table) {
		cfg := storage.FromConfig(dst, r.log)
		cfg.Path = r.path(cfg.Path)
		out = append(out, saveTarget{stage: stage, cfg: cfg, tbl: t})
	}
	if r.p.Storage.Kind != "" {
		add("save", r.p.Storage, r.res.Clean)
	}
	for _, a := range r.res.Analysis {
		if a.Save == nil || a.Save.Kind == "" {
			continue
		}
		add("save "+a.Name, *a.Save, a.Table)
	}
	return out
}

// saveAll writes every destination in order. When one fails, it and every
// later destination are listed in Result.Unsaved next to the ones already
// in Result.Saved.
func (r *runner) saveAll(ctx context.Context) error {
	targets := r.saveTargets()
	for i, tg := range targets {
		if err := r.save(ctx, tg); err != nil {
			for _, rest := range targets[i:] {
				r.res.Unsaved = append(r.res.Unsaved, destination(rest.cfg))
			}
			return err
		}
	}
	return nil
}

func (r *runner) save(ctx context.Context, tg saveTarget) error {
	return r.stage(ctx, tg.stage, PhaseSave, tg.tbl.NumRows(), func(ctx context.Context) (int, error) {
		s, err := newSaverFn(tg.cfg)
		if err != nil {
			return 0, err
		}
		if err := s.Save(ctx, tg.tbl); err != nil {
			return 0, err
		}
		r.res.Saved = append(r.res.Saved, destination(tg.cfg))
		return tg.tbl.NumRows(), nil
	})
}

func destination(c storage.Config) string {
	if c.Path != "" {
		return c.Kind + ":" + c.Path
	}
	return c.Kind + ":" + c.Table
}
