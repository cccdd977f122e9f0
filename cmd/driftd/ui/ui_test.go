package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/codes"

	"driftd/infra/sqlite"
	"driftd/internal/drift"
	"driftd/internal/gitsync"
	"driftd/internal/reconcile"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func portsDrift() drift.Report {
	return drift.Report{Entries: []drift.Entry{{
		Kind: drift.SubjectService,
		Name: "web",
		Mismatches: []drift.Mismatch{
			{Dimension: drift.DimensionPorts, Reason: drift.DimensionPorts.Message()},
		},
	}}}
}

func TestReport(t *testing.T) {
	if got := Report(drift.Report{}); !strings.Contains(got, "workload in sync") {
		t.Fatalf("Report(empty) = %q", got)
	}

	got := Report(portsDrift())
	for _, want := range []string{"1 issue across 1 subject", "web", "- ports configuration does not match (ports)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Report() = %q, missing %q", got, want)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		out  reconcile.Outcome
		want []string
	}{
		{
			name: "remediated and synced",
			out:  reconcile.Outcome{Report: portsDrift(), Remediated: true, Sync: gitsync.ResultSynchronized},
			want: []string{"workload recreated from manifest", "repository synchronized"},
		},
		{
			name: "phase shown",
			out:  reconcile.Outcome{Phase: reconcile.PhaseConverged},
			want: []string{"workload in sync", "cycle ended converged"},
		},
		{
			name: "dry run",
			out:  reconcile.Outcome{Report: portsDrift()},
			want: []string{"--remediate"},
		},
		{
			name: "runtime unreadable",
			out:  reconcile.Outcome{DetectErr: errors.New("daemon down")},
			want: []string{"could not read observed state: daemon down"},
		},
		{
			name: "remediation failure",
			out: reconcile.Outcome{
				Report:         portsDrift(),
				RemediationErr: &reconcile.RuntimeError{Op: reconcile.OpTeardown, Err: errors.New("exit status 1")},
			},
			want: []string{"remediation failed: runtime teardown: exit status 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Outcome(tt.out)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Outcome() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestHistory(t *testing.T) {
	if got := History(nil); !strings.Contains(got, "no cycles recorded") {
		t.Fatalf("History(nil) = %q", got)
	}

	start := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)
	got := History([]sqlite.Entry{
		{ID: 2, Started: start, Finished: start.Add(1500 * time.Millisecond), Phase: reconcile.PhaseConverged, DriftCount: 1, Remediated: true, Sync: "up_to_date"},
		{ID: 1, Started: start, Finished: start, Phase: reconcile.PhaseDetecting, DetectErr: "daemon down"},
	})
	for _, want := range []string{"PHASE", "converged", "recreated", "up_to_date", "1.5s", "skipped", "detecting"} {
		if !strings.Contains(got, want) {
			t.Errorf("History() missing %q:\n%s", want, got)
		}
	}
}

func TestStateStyles(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	styleOf := func(rendered, text string) string {
		t.Helper()
		before, _, ok := strings.Cut(rendered, text)
		if !ok {
			t.Fatalf("%q does not contain %q", rendered, text)
		}
		return before
	}

	converged := styleOf(Phase(reconcile.PhaseConverged), "converged")
	remediating := styleOf(Phase(reconcile.PhaseRemediating), "remediating")
	if converged == "" || converged == remediating {
		t.Fatalf("phases share styling: %q vs %q", converged, remediating)
	}

	missing := styleOf(Dimension(drift.DimensionContainer), "(container)")
	differs := styleOf(Dimension(drift.DimensionPorts), "(ports)")
	if missing == differs {
		t.Fatalf("missing container styled like a config difference: %q", missing)
	}
	if got := styleOf(Dimension(drift.DimensionNetwork), "(network)"); got != missing {
		t.Fatalf("missing network styled %q, want %q", got, missing)
	}
}

func TestKeyValues(t *testing.T) {
	got := KeyValues("  ", KV("Docker", "reachable"), KV("Clock offset", "3ms"))
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("KeyValues() = %q, want 2 lines", got)
	}
	if strings.Index(lines[0], "reachable") != strings.Index(lines[1], "3ms") {
		t.Fatalf("values not aligned:\n%s", got)
	}
}

func TestTraceOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewTraceOutput(&buf)
	tracer := out.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "reconcile.cycle")
	_, child := tracer.Start(ctx, "remediate")
	child.SetStatus(codes.Error, "runtime teardown: exit status 1")
	child.End()
	root.End()
	out.Close()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"  [->] reconcile.cycle",
		"    [->] remediate",
		"    [x] remediate (runtime teardown: exit status 1)",
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	if !strings.HasPrefix(lines[3], "  [ok] reconcile.cycle (") {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestTraceOutput_NilFallsBack(t *testing.T) {
	var out *TraceOutput
	if out.Tracer("x") == nil {
		t.Fatal("nil TraceOutput returned nil tracer")
	}
	out.Close()
}
