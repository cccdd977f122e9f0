package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TraceOutput prints cycle spans as they start and end.
type TraceOutput struct {
	provider *sdktrace.TracerProvider
}

func NewTraceOutput(w io.Writer) *TraceOutput {
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&spanLogger{w: w}))
	return &TraceOutput{provider: provider}
}

// Tracer falls back to the global tracer when o is nil.
func (o *TraceOutput) Tracer(name string) trace.Tracer {
	if o == nil || o.provider == nil {
		return otel.Tracer(name)
	}
	return o.provider.Tracer(name)
}

func (o *TraceOutput) Close() {
	if o == nil || o.provider == nil {
		return
	}
	_ = o.provider.Shutdown(context.Background())
}

type spanLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *spanLogger) OnStart(_ context.Context, span sdktrace.ReadWriteSpan) {
	p.println(formatSpanLine(mutedStyle.Render("[->]"), span.Name(), span.Parent().IsValid(), ""))
}

func (p *spanLogger) OnEnd(span sdktrace.ReadOnlySpan) {
	status := span.Status()
	if status.Code == codes.Error {
		p.println(formatSpanLine(failedStyle.Render("[x]"), span.Name(), span.Parent().IsValid(), strings.TrimSpace(status.Description)))
		return
	}
	elapsed := span.EndTime().Sub(span.StartTime()).Round(time.Millisecond)
	p.println(formatSpanLine(syncedStyle.Render("[ok]"), span.Name(), span.Parent().IsValid(), elapsed.String()))
}

func (p *spanLogger) Shutdown(context.Context) error   { return nil }
func (p *spanLogger) ForceFlush(context.Context) error { return nil }

func (p *spanLogger) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

func formatSpanLine(prefix, name string, child bool, msg string) string {
	indent := "  "
	if child {
		indent = "    "
	}
	if msg != "" {
		return fmt.Sprintf("%s%s %s (%s)", indent, prefix, name, msg)
	}
	return fmt.Sprintf("%s%s %s", indent, prefix, name)
}
