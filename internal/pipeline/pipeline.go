// Package pipeline runs the workbook passes: remark checking, score
// extraction, plan matching and plan conversion. Every pass is traced,
// counted and recorded in the run ledger.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"admitcli/internal/batch"
	"admitcli/internal/classify"
	"admitcli/internal/infrastructure"
	"admitcli/internal/matcher"
	"admitcli/internal/planconv"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

// TracerName names the pipeline tracer.
const TracerName = "admitcli.pipeline"

// Event stages.
const (
	StageStarted   = "started"
	StageProgress  = "progress"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// Source is one input workbook.
type Source struct {
	Name   string
	Reader io.Reader
}

// Event reports pass progress to a listener such as the websocket hub.
type Event struct {
	RunID     string `json:"run_id"`
	Pass      string `json:"pass"`
	Stage     string `json:"stage"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Message   string `json:"message,omitempty"`
}

// ProgressFunc receives events in order. It may be nil.
type ProgressFunc func(Event)

// RunRecorder is the part of the ledger the passes write to.
type RunRecorder interface {
	Begin(ctx context.Context, pass, inputFile string, inputRows int) (domain.RunRecord, error)
	Finish(ctx context.Context, rec domain.RunRecord, outputRows, issues int, runErr error) (domain.RunRecord, error)
}

// Deps wires a Runner. Ledger and Metrics are optional.
type Deps struct {
	Reader       *workbook.Reader
	Classifier   *classify.Classifier
	Orchestrator *batch.Orchestrator
	Ledger       RunRecorder
	Metrics      *infrastructure.PassMetrics
	Logger       *slog.Logger
}

// Output is what a pass produced.
type Output struct {
	Run        domain.RunRecord
	Sheets     []workbook.Sheet
	InputRows  int
	OutputRows int
	Issues     int
	// Match is set by the match pass.
	Match *matcher.Result
	// Comparisons is set by the convert pass when score sheets were given.
	Comparisons []ComparisonReport
}

// ComparisonReport summarizes one plan comparison.
type ComparisonReport struct {
	Name    string                     `json:"name"`
	Summary planconv.ComparisonSummary `json:"summary"`
}

// Runner executes passes.
type Runner struct {
	reader       *workbook.Reader
	classifier   *classify.Classifier
	orchestrator *batch.Orchestrator
	ledger       RunRecorder
	metrics      *infrastructure.PassMetrics
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewRunner creates a Runner, filling defaults for nil dependencies.
func NewRunner(d Deps) *Runner {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if d.Reader == nil {
		d.Reader = workbook.NewReader(logger)
	}
	if d.Classifier == nil {
		d.Classifier = classify.New(classify.References{}, nil)
	}
	if d.Orchestrator == nil {
		d.Orchestrator = batch.New(0, 0, logger)
	}
	return &Runner{
		reader:       d.Reader,
		classifier:   d.Classifier,
		orchestrator: d.Orchestrator,
		ledger:       d.Ledger,
		metrics:      d.Metrics,
		logger:       logger.With(slog.String("component", "pipeline")),
		tracer:       otel.Tracer(TracerName),
	}
}

// reporter forwards chunk progress for one run.
type reporter func(completed, total int, message string)

type passBody func(ctx context.Context, out *Output, report reporter) error

// execute wraps body with the span, ledger record, metrics and events that
// every pass shares.
func (r *Runner) execute(ctx context.Context, pass, input string, progress ProgressFunc, body passBody) (*Output, error) {
	start := time.Now()
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := r.tracer.Start(ctx, "pipeline."+pass,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pass.name", pass),
			attribute.String("pass.input", input),
		))
	defer span.End()

	out := &Output{Run: domain.RunRecord{
		ID:        uuid.New().String(),
		Pass:      pass,
		InputFile: input,
		Status:    domain.RunStatusRunning,
		StartedAt: start.UTC(),
	}}
	if r.ledger != nil {
		rec, err := r.ledger.Begin(ctx, pass, input, 0)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
		out.Run = rec
	}
	logger := r.logger.With(slog.String("pass", pass), slog.String("run_id", out.Run.ID))

	notify := func(ev Event) {
		if progress == nil {
			return
		}
		ev.RunID = out.Run.ID
		ev.Pass = pass
		progress(ev)
	}
	notify(Event{Stage: StageStarted, Message: input})
	logger.InfoContext(ctx, "pass started", slog.String("input", input))

	err := body(ctx, out, func(completed, total int, message string) {
		notify(Event{Stage: StageProgress, Completed: completed, Total: total, Message: message})
	})

	out.Run.InputRows = out.InputRows
	r.finish(ctx, logger, out, err)

	ambiguous := 0
	if out.Match != nil {
		ambiguous = len(out.Match.Ambiguous)
	}
	r.metrics.RecordPass(ctx, infrastructure.PassResult{
		Pass:      pass,
		RowsIn:    out.InputRows,
		RowsOut:   out.OutputRows,
		Issues:    out.Issues,
		Ambiguous: ambiguous,
		Duration:  time.Since(start),
		Err:       err,
	})
	span.SetAttributes(
		attribute.Int("pass.rows_in", out.InputRows),
		attribute.Int("pass.rows_out", out.OutputRows),
		attribute.Int("pass.issues", out.Issues),
	)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "pass failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		notify(Event{Stage: StageFailed, Message: err.Error()})
		return nil, err
	}

	logger.InfoContext(ctx, "pass completed",
		slog.Int("input_rows", out.InputRows),
		slog.Int("output_rows", out.OutputRows),
		slog.Int("dropped", out.Run.Dropped()),
		slog.Int("issues", out.Issues),
		slog.Duration("duration", time.Since(start)))
	notify(Event{Stage: StageCompleted, Completed: out.OutputRows, Total: out.InputRows})
	return out, nil
}

// finish closes the run record. A ledger failure is logged but does not
// fail a pass whose output is already computed.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, out *Output, runErr error) {
	if r.ledger != nil {
		rec, err := r.ledger.Finish(ctx, out.Run, out.OutputRows, out.Issues, runErr)
		if err == nil {
			out.Run = rec
			return
		}
		logger.ErrorContext(ctx, "failed to record run", slog.String("error", err.Error()))
	}

	finished := time.Now().UTC()
	out.Run.OutputRows = out.OutputRows
	out.Run.Issues = out.Issues
	out.Run.FinishedAt = &finished
	out.Run.Status = domain.RunStatusCompleted
	if runErr != nil {
		out.Run.Status = domain.RunStatusFailed
		out.Run.Error = runErr.Error()
	}
}
