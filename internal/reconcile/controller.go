// Package reconcile runs reconciliation cycles: load the manifest, detect
// drift, remediate by tearing the workload down and bringing it back up,
// then sync the checkout with its remote.
package reconcile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"driftd/internal/drift"
	"driftd/internal/gitsync"
	"driftd/internal/manifest"
)

const tracerName = "driftd/internal/reconcile"

// Controller runs one cycle at a time. It holds no state between cycles.
type Controller struct {
	source   ManifestSource
	detector Detector
	workload Workload

	syncer    Syncer
	history   HistoryRecorder
	tracer    trace.Tracer
	remediate bool
	now       func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithSyncer enables the git sync step that follows drift handling.
func WithSyncer(s Syncer) Option {
	return func(c *Controller) {
		c.syncer = s
	}
}

// WithHistory records every finished cycle.
func WithHistory(h HistoryRecorder) Option {
	return func(c *Controller) {
		c.history = h
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = t
	}
}

// WithRemediation toggles teardown and recreate on drift. On by default.
func WithRemediation(enabled bool) Option {
	return func(c *Controller) {
		c.remediate = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(source ManifestSource, detector Detector, workload Workload, opts ...Option) *Controller {
	c := &Controller{
		source:    source,
		detector:  detector,
		workload:  workload,
		remediate: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// RunCycle runs one full cycle. It never fails: every error is logged and
// recorded in the returned Outcome so the caller can keep ticking.
func (c *Controller) RunCycle(ctx context.Context) Outcome {
	ctx, span := c.tracer.Start(ctx, "reconcile.cycle")
	defer span.End()

	out := Outcome{Started: c.now(), Phase: PhaseDetecting}
	c.reconcileWorkload(ctx, &out)
	if c.syncer != nil {
		c.syncRepository(ctx, &out)
	}
	out.Finished = c.now()

	span.SetAttributes(
		attribute.String("cycle.phase", out.Phase.String()),
		attribute.Int("drift.count", out.Report.Count()),
		attribute.Bool("remediated", out.Remediated),
	)
	if err := out.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}

	if c.history != nil {
		if err := c.history.Record(ctx, out); err != nil {
			slog.Warn("record cycle history failed", "err", err)
		}
	}
	return out
}

func (c *Controller) reconcileWorkload(ctx context.Context, out *Outcome) {
	m, err := c.source.Load(ctx)
	if err != nil {
		out.ManifestErr = err
		slog.Warn("manifest unreadable, using empty desired state", "err", err)
		m = manifest.Manifest{}
	}

	report, err := c.detect(ctx, m)
	if err != nil {
		out.DetectErr = err
		slog.Error("read observed state failed, skipping remediation", "err", err)
		return
	}
	out.Report = report

	if report.InSync() {
		slog.Info("workload in sync", "at", out.Started.Format(time.RFC3339))
		c.advance(out, PhaseConverged)
		return
	}

	slog.Warn("workload drifted", "at", out.Started.Format(time.RFC3339), "subjects", len(report.Entries))
	logReport(report)

	if !c.remediate {
		return
	}
	c.advance(out, PhaseRemediating)

	start := c.now()
	if err := c.remediateWorkload(ctx); err != nil {
		out.RemediationErr = err
		slog.Error("remediation failed", "err", err)
	} else {
		out.Remediated = true
		slog.Info("remediation succeeded", "duration", c.now().Sub(start))
	}
	c.advance(out, PhaseConverged)
}

func (c *Controller) detect(ctx context.Context, m manifest.Manifest) (drift.Report, error) {
	ctx, span := c.tracer.Start(ctx, "detect", trace.WithAttributes(
		attribute.String("manifest.project", m.Project),
		attribute.Int("manifest.services", len(m.Services)),
	))
	defer span.End()

	report, err := c.detector.Detect(ctx, m)
	if err != nil {
		endWithError(span, err)
		return drift.Report{}, err
	}
	span.SetAttributes(attribute.Int("drift.count", report.Count()))
	return report, nil
}

// remediateWorkload tears everything down and brings it back up. Convergence
// is verified by the next cycle, not here.
func (c *Controller) remediateWorkload(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "remediate")
	defer span.End()

	if err := c.workload.Down(ctx); err != nil {
		err = &RuntimeError{Op: OpTeardown, Err: err}
		endWithError(span, err)
		return err
	}
	if err := c.workload.Up(ctx); err != nil {
		err = &RuntimeError{Op: OpRecreate, Err: err}
		endWithError(span, err)
		return err
	}
	return nil
}

func (c *Controller) syncRepository(ctx context.Context, out *Outcome) {
	ctx, span := c.tracer.Start(ctx, "git.sync")
	defer span.End()

	res, err := c.syncer.Sync(ctx)
	if err != nil {
		out.SyncErr = err
		endWithError(span, err)
		slog.Error("repository sync failed", "err", err)
		return
	}
	out.Sync = res
	span.SetAttributes(attribute.String("git.result", res.String()))
	switch res {
	case gitsync.ResultSynchronized:
		slog.Info("repository synchronized")
	case gitsync.ResultUpToDate:
		slog.Info("repository up to date")
	}
}

func (c *Controller) advance(out *Outcome, to Phase) {
	if err := out.advance(to); err != nil {
		slog.Error("cycle phase", "err", err)
	}
}

func logReport(report drift.Report) {
	for _, e := range report.Entries {
		for _, m := range e.Mismatches {
			slog.Warn("drift", "subject", e.Name, "dimension", m.Dimension.String(), "reason", m.Reason)
		}
	}
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
}
