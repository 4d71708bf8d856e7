package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/metrics"
)

// Phase groups stages by what they do to the data.
type Phase string

const (
	PhaseLoad      Phase = "load"
	PhaseTransform Phase = "transform"
	PhaseAnalysis  Phase = "analysis"
	PhaseSave      Phase = "save"
)

// StageEvent reports one finished stage. RowsIn is -1 for the load stage.
type StageEvent struct {
	RunID    string
	Job      string
	Stage    string
	Phase    Phase
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	Err      error
}

// Dropped is the number of rows a transform stage removed.
func (e StageEvent) Dropped() int {
	if e.Phase != PhaseTransform || e.RowsOut > e.RowsIn {
		return 0
	}
	return e.RowsIn - e.RowsOut
}

// Finding is a ValidationError attributed to the stage that reported it.
type Finding struct {
	RunID string
	Job   string
	Stage string
	errs.ValidationError
}

// Observer receives run events as data.
type Observer interface {
	OnStage(StageEvent)
	OnFinding(Finding)
}

// Observers fans events out to every member.
type Observers []Observer

func (obs Observers) OnStage(e StageEvent) {
	for _, o := range obs {
		o.OnStage(e)
	}
}

func (obs Observers) OnFinding(f Finding) {
	for _, o := range obs {
		o.OnFinding(f)
	}
}

// LogObserver writes events as structured zap entries.
type LogObserver struct {
	Logger *zap.Logger
}

func (l LogObserver) OnStage(e StageEvent) {
	fields := []zap.Field{
		zap.String("run_id", e.RunID),
		zap.String("job", e.Job),
		zap.String("stage", e.Stage),
		zap.String("phase", string(e.Phase)),
		zap.Int("rows_out", e.RowsOut),
		zap.Duration("duration", e.Duration),
	}
	if e.RowsIn >= 0 {
		fields = append(fields, zap.Int("rows_in", e.RowsIn))
	}
	if e.Phase == PhaseTransform {
		fields = append(fields, zap.Int("dropped", e.Dropped()))
	}
	if e.Err != nil {
		l.Logger.Error("stage failed", append(fields, zap.Error(e.Err), zap.String("kind", string(errs.KindOf(e.Err))))...)
		return
	}
	l.Logger.Info("stage done", fields...)
}

func (l LogObserver) OnFinding(f Finding) {
	fields := []zap.Field{
		zap.String("run_id", f.RunID),
		zap.String("stage", f.Stage),
		zap.String("column", f.Column),
		zap.String("rule", f.Rule),
		zap.Int("count", f.Count),
	}
	if f.Value != "" {
		fields = append(fields, zap.String("sample", f.Value))
	}
	switch f.Severity {
	case errs.SeverityError:
		l.Logger.Error("finding", fields...)
	case errs.SeverityWarning:
		l.Logger.Warn("finding", fields...)
	default:
		l.Logger.Info("finding", fields...)
	}
}

// MetricsObserver records events through the metrics package.
type MetricsObserver struct{}

func (MetricsObserver) OnStage(e StageEvent) {
	metrics.RecordStage(e.Job, e.Stage, e.Err, e.Duration)
	if e.Err != nil {
		return
	}
	switch e.Phase {
	case PhaseLoad:
		metrics.RecordRows(e.Job, "loaded", int64(e.RowsOut))
	case PhaseTransform:
		metrics.RecordRows(e.Job, "dropped", int64(e.Dropped()))
	case PhaseSave:
		metrics.RecordRows(e.Job, "saved", int64(e.RowsOut))
	}
}

func (MetricsObserver) OnFinding(f Finding) {
	metrics.RecordFindings(f.Job, string(f.Severity), 1)
}

// Collector keeps every event in memory.
type Collector struct {
	mu       sync.Mutex
	stages   []StageEvent
	findings []Finding
}

func (c *Collector) OnStage(e StageEvent) {
	c.mu.Lock()
	c.stages = append(c.stages, e)
	c.mu.Unlock()
}

func (c *Collector) OnFinding(f Finding) {
	c.mu.Lock()
	c.findings = append(c.findings, f)
	c.mu.Unlock()
}

// Stages returns a copy of the collected stage events.
func (c *Collector) Stages() []StageEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StageEvent(nil), c.stages...)
}

// Findings returns a copy of the collected findings.
func (c *Collector) Findings() []Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Finding(nil), c.findings...)
}
