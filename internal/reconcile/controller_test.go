package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"driftd/internal/drift"
	"driftd/internal/gitsync"
	"driftd/internal/manifest"
	"driftd/internal/observed"
)

type fakeSource struct {
	m   manifest.Manifest
	err error
}

func (f fakeSource) Load(context.Context) (manifest.Manifest, error) {
	return f.m, f.err
}

type fakeReader struct {
	containers []observed.Container
	records    map[string]observed.Record
	listErr    error
}

func (f *fakeReader) ListContainers(context.Context) ([]observed.Container, error) {
	return f.containers, f.listErr
}

func (f *fakeReader) InspectContainer(_ context.Context, id string) (observed.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return observed.Record{}, fmt.Errorf("container %s: %w", id, errdefs.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeReader) ListVolumes(context.Context) ([]string, error)  { return nil, nil }
func (f *fakeReader) ListNetworks(context.Context) ([]string, error) { return nil, nil }

type fakeWorkload struct {
	calls   []string
	downErr error
	upErr   error
}

func (f *fakeWorkload) Down(context.Context) error {
	f.calls = append(f.calls, "down")
	return f.downErr
}

func (f *fakeWorkload) Up(context.Context) error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

type fakeSyncer struct {
	res   gitsync.Result
	err   error
	calls int
}

func (f *fakeSyncer) Sync(context.Context) (gitsync.Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeHistory struct {
	outcomes []Outcome
}

func (f *fakeHistory) Record(_ context.Context, out Outcome) error {
	f.outcomes = append(f.outcomes, out)
	return nil
}

func webSource() fakeSource {
	return fakeSource{m: manifest.Manifest{
		Services: []manifest.ServiceSpec{{Name: "web", Image: "app:v1", Ports: []string{"8080:80"}}},
	}}
}

func webReader(hostPort string) *fakeReader {
	return &fakeReader{
		containers: []observed.Container{{ID: "c1", Image: "app:v1"}},
		records: map[string]observed.Record{
			"c1": {ID: "c1", Image: "app:v1", PortBindings: map[string][]observed.PortBinding{
				"80/tcp": {{HostIP: "0.0.0.0", HostPort: hostPort}},
			}},
		},
	}
}

func newTestTracer() (trace.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return provider.Tracer("reconcile-test"), recorder
}

func findSpanByName(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, span := range spans {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func TestRunCycle_InSyncDoesNotRemediate(t *testing.T) {
	workload := &fakeWorkload{}
	c := NewController(webSource(), drift.NewDetector(webReader("8080")), workload)

	out := c.RunCycle(context.Background())
	if out.Phase != PhaseConverged {
		t.Fatalf("phase = %s, want converged", out.Phase)
	}
	if out.Drifted() {
		t.Fatalf("report = %v, want empty", out.Report.Reasons())
	}
	if len(workload.calls) != 0 {
		t.Fatalf("workload calls = %v, want none", workload.calls)
	}
	if out.Err() != nil {
		t.Fatalf("Err() = %v", out.Err())
	}
}

func TestRunCycle_DriftTearsDownThenRecreatesOnce(t *testing.T) {
	workload := &fakeWorkload{}
	c := NewController(webSource(), drift.NewDetector(webReader("9090")), workload)

	out := c.RunCycle(context.Background())
	want := map[string][]string{"web": {"ports configuration does not match"}}
	if diff := cmp.Diff(want, out.Report.Reasons()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"down", "up"}, workload.calls); diff != "" {
		t.Fatalf("workload calls mismatch (-want +got):\n%s", diff)
	}
	if !out.Remediated || out.Phase != PhaseConverged {
		t.Fatalf("outcome = %+v, want remediated and converged", out)
	}
}

func TestRunCycle_Idempotent(t *testing.T) {
	workload := &fakeWorkload{}
	c := NewController(webSource(), drift.NewDetector(webReader("9090")), workload, WithRemediation(false))

	first := c.RunCycle(context.Background())
	second := c.RunCycle(context.Background())
	if diff := cmp.Diff(first.Report, second.Report); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}
	if len(workload.calls) != 0 {
		t.Fatalf("workload calls = %v, want none with remediation disabled", workload.calls)
	}
	if first.Phase != PhaseDetecting {
		t.Fatalf("phase = %s, want detecting", first.Phase)
	}
}

func TestRunCycle_TeardownFailureSkipsRecreate(t *testing.T) {
	boom := errors.New("exit status 1")
	workload := &fakeWorkload{downErr: boom}
	c := NewController(webSource(), drift.NewDetector(webReader("9090")), workload)

	out := c.RunCycle(context.Background())
	if diff := cmp.Diff([]string{"down"}, workload.calls); diff != "" {
		t.Fatalf("workload calls mismatch (-want +got):\n%s", diff)
	}
	var rtErr *RuntimeError
	if !errors.As(out.RemediationErr, &rtErr) || rtErr.Op != OpTeardown {
		t.Fatalf("RemediationErr = %v, want teardown RuntimeError", out.RemediationErr)
	}
	if !errors.Is(out.Err(), boom) {
		t.Fatalf("Err() = %v, want %v", out.Err(), boom)
	}
	if out.Remediated {
		t.Fatal("Remediated = true after failed teardown")
	}
}

func TestRunCycle_RecreateFailure(t *testing.T) {
	workload := &fakeWorkload{upErr: errors.New("pull access denied")}
	c := NewController(webSource(), drift.NewDetector(webReader("9090")), workload)

	out := c.RunCycle(context.Background())
	var rtErr *RuntimeError
	if !errors.As(out.RemediationErr, &rtErr) || rtErr.Op != OpRecreate {
		t.Fatalf("RemediationErr = %v, want recreate RuntimeError", out.RemediationErr)
	}
	if out.Phase != PhaseConverged {
		t.Fatalf("phase = %s, want converged", out.Phase)
	}
}

func TestRunCycle_UnreadableRuntimeTakesNoAction(t *testing.T) {
	workload := &fakeWorkload{}
	reader := &fakeReader{listErr: errors.New("cannot connect to the docker daemon")}
	c := NewController(webSource(), drift.NewDetector(reader), workload)

	out := c.RunCycle(context.Background())
	if out.DetectErr == nil {
		t.Fatal("DetectErr = nil, want list failure")
	}
	if len(workload.calls) != 0 {
		t.Fatalf("workload calls = %v, want none", workload.calls)
	}
	if out.Phase != PhaseDetecting {
		t.Fatalf("phase = %s, want detecting", out.Phase)
	}
}

func TestRunCycle_ManifestErrorUsesEmptyDesiredState(t *testing.T) {
	workload := &fakeWorkload{}
	source := fakeSource{err: &manifest.ParseError{Path: "docker-compose.yml", Err: errors.New("yaml: line 3")}}
	c := NewController(source, drift.NewDetector(webReader("9090")), workload)

	out := c.RunCycle(context.Background())
	var parseErr *manifest.ParseError
	if !errors.As(out.ManifestErr, &parseErr) {
		t.Fatalf("ManifestErr = %v, want *manifest.ParseError", out.ManifestErr)
	}
	if out.Drifted() || len(workload.calls) != 0 {
		t.Fatalf("outcome = %+v, calls = %v; want no drift and no remediation", out, workload.calls)
	}
}

func TestRunCycle_SyncRunsAfterDriftHandling(t *testing.T) {
	syncer := &fakeSyncer{res: gitsync.ResultSynchronized}
	history := &fakeHistory{}
	c := NewController(webSource(), drift.NewDetector(webReader("8080")), &fakeWorkload{},
		WithSyncer(syncer), WithHistory(history))

	out := c.RunCycle(context.Background())
	if syncer.calls != 1 || out.Sync != gitsync.ResultSynchronized {
		t.Fatalf("sync calls = %d, result = %s", syncer.calls, out.Sync)
	}
	if len(history.outcomes) != 1 || history.outcomes[0].Phase != PhaseConverged {
		t.Fatalf("history = %+v, want one converged cycle", history.outcomes)
	}
}

func TestRunCycle_SyncFailureIsRecorded(t *testing.T) {
	syncer := &fakeSyncer{err: &gitsync.SyncError{Step: "fetch", Err: errors.New("could not resolve host")}}
	c := NewController(webSource(), drift.NewDetector(webReader("8080")), &fakeWorkload{}, WithSyncer(syncer))

	out := c.RunCycle(context.Background())
	var syncErr *gitsync.SyncError
	if !errors.As(out.SyncErr, &syncErr) {
		t.Fatalf("SyncErr = %v, want *gitsync.SyncError", out.SyncErr)
	}
	if out.Phase != PhaseConverged {
		t.Fatalf("phase = %s, want converged", out.Phase)
	}
}

func TestRunCycle_Timestamps(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	c := NewController(webSource(), drift.NewDetector(webReader("8080")), &fakeWorkload{}, WithClock(clock))

	out := c.RunCycle(context.Background())
	if out.Duration() <= 0 {
		t.Fatalf("Duration() = %s, want positive", out.Duration())
	}
}

func TestRunCycle_Spans(t *testing.T) {
	tracer, recorder := newTestTracer()
	workload := &fakeWorkload{upErr: errors.New("boom")}
	c := NewController(webSource(), drift.NewDetector(webReader("9090")), workload,
		WithTracer(tracer), WithSyncer(&fakeSyncer{res: gitsync.ResultUpToDate}))

	c.RunCycle(context.Background())

	spans := recorder.Ended()
	root := findSpanByName(spans, "reconcile.cycle")
	if root == nil {
		t.Fatal("missing reconcile.cycle span")
	}
	if root.Status().Code != codes.Error {
		t.Fatalf("cycle span status = %v, want error", root.Status().Code)
	}
	for _, name := range []string{"detect", "remediate", "git.sync"} {
		span := findSpanByName(spans, name)
		if span == nil {
			t.Fatalf("missing %s span", name)
		}
		if span.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Fatalf("%s span is not a child of the cycle span", name)
		}
	}
	if findSpanByName(spans, "remediate").Status().Code != codes.Error {
		t.Fatal("remediate span should carry the recreate failure")
	}
}

func TestPhaseTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		ok       bool
	}{
		{PhaseDetecting, PhaseRemediating, true},
		{PhaseDetecting, PhaseConverged, true},
		{PhaseRemediating, PhaseConverged, true},
		{PhaseRemediating, PhaseDetecting, false},
		{PhaseConverged, PhaseDetecting, false},
		{PhaseConverged, PhaseRemediating, false},
	}
	for _, tt := range tests {
		got, err := tt.from.Transition(tt.to)
		if tt.ok && (err != nil || got != tt.to) {
			t.Errorf("%s -> %s = %s, %v; want allowed", tt.from, tt.to, got, err)
		}
		if !tt.ok && (err == nil || got != tt.from) {
			t.Errorf("%s -> %s = %s, %v; want rejected", tt.from, tt.to, got, err)
		}
	}
}

func TestPhaseJSON(t *testing.T) {
	data, err := PhaseRemediating.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var p Phase
	if err := p.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if p != PhaseRemediating {
		t.Fatalf("round trip = %s", p)
	}
	if _, err := Phase(0).MarshalJSON(); err == nil {
		t.Fatal("invalid phase should not marshal")
	}
}
