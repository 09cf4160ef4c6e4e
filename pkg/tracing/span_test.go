package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "req-1")
	lexCtx, lex := StartChildSpan(ctx, "lex")
	lex.SetAttr("tokens", 3)
	lex.End()
	_, inner := StartChildSpan(lexCtx, "classify")
	inner.End()
	_, eval := StartChildSpan(ctx, "evaluate")
	eval.End()
	root.End()

	want := []string{"search", "lex", "classify", "evaluate"}
	if diff := cmp.Diff(want, root.Names()); diff != "" {
		t.Errorf("span names (-want +got):\n%s", diff)
	}
	if eval.TraceID != "req-1" {
		t.Errorf("child trace id = %q", eval.TraceID)
	}

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	out := buf.String()
	if strings.Count(out, "msg=span") != 4 || !strings.Contains(out, "tokens=3") {
		t.Errorf("unexpected log output:\n%s", out)
	}
}

func TestSpanWithoutRootIsNoop(t *testing.T) {
	ctx, span := StartChildSpan(context.Background(), "orphan")
	if span != nil {
		t.Fatal("expected a nil span without a root")
	}
	span.SetAttr("k", "v")
	span.End()
	span.Log(slog.Default())
	if SpanFromContext(ctx) != nil {
		t.Error("context unexpectedly carries a span")
	}
}
