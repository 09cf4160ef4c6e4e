// Package tracing provides lightweight spans that travel in a context and
// are logged as one structured record per span. A query gets a root span
// and the engine hangs lex, parse and evaluation spans below it. Without a
// root span in the context every call is a no-op, so callers never check.
package tracing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type contextKey struct{}

// Span represents a timed operation within a trace.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any
	mu        sync.Mutex
}

// StartSpan creates a new root span and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	span := newSpan(name, traceID)
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChildSpan creates a child of the span in ctx. It returns a nil span,
// which is safe to use, when ctx carries no span.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		return ctx, nil
	}
	child := newSpan(name, parent.TraceID)
	parent.mu.Lock()
	parent.Children = append(parent.Children, child)
	parent.mu.Unlock()
	return context.WithValue(ctx, contextKey{}, child), child
}

func newSpan(name, traceID string) *Span {
	return &Span{
		Name:      name,
		TraceID:   traceID,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
}

// End records the span's duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.Duration = time.Since(s.StartTime)
	s.mu.Unlock()
}

// SetAttr attaches a key-value attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// SpanFromContext extracts the current Span from ctx, or nil if none.
func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(contextKey{}).(*Span); ok {
		return span
	}
	return nil
}

// Names lists the span and its descendants in depth-first order.
func (s *Span) Names() []string {
	if s == nil {
		return nil
	}
	var out []string
	s.walk(0, func(sp *Span, _ int) { out = append(out, sp.Name) })
	return out
}

func (s *Span) walk(depth int, fn func(*Span, int)) {
	fn(s, depth)
	s.mu.Lock()
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()
	for _, c := range children {
		c.walk(depth+1, fn)
	}
}

// Log writes the span tree to logger, one record per span. Attributes are
// written in key order.
func (s *Span) Log(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.walk(0, func(sp *Span, depth int) {
		sp.mu.Lock()
		attrs := []any{
			"trace_id", sp.TraceID,
			"span", sp.Name,
			"duration_ms", sp.Duration.Milliseconds(),
			"depth", depth,
		}
		keys := make([]string, 0, len(sp.Attrs))
		for k := range sp.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			attrs = append(attrs, k, sp.Attrs[k])
		}
		sp.mu.Unlock()
		logger.Info("span", attrs...)
	})
}
