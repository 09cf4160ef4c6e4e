package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReadQueries(t *testing.T) {
	in := "law\n\n# comment\n  law NEAR2 contract  \n"
	got, err := readQueries(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readQueries: %v", err)
	}
	want := []string{"law", "law NEAR2 contract"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchURL(t *testing.T) {
	cfg := Config{BaseURL: "http://host:8080/", Format: "count"}
	got := searchURL(cfg, "a NEAR2 b")
	want := "http://host:8080/api/v1/search?format=count&q=a+NEAR2+b"
	if got != want {
		t.Errorf("searchURL = %q, want %q", got, want)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1},
		{50, 5},
		{90, 9},
		{99, 10},
		{100, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}

func TestRunLoadTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			http.Error(w, "missing q", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":"law","cached":true,"total":2}`))
	}))
	defer srv.Close()

	stats := runLoadTest(Config{
		BaseURL:     srv.URL,
		Concurrency: 2,
		Duration:    200 * time.Millisecond,
		Queries:     []string{"law"},
	})
	total := stats.totalRequests.Load()
	if total == 0 {
		t.Fatal("no requests recorded")
	}
	if got := stats.successCount.Load(); got != total {
		t.Errorf("successful = %d, want %d", got, total)
	}
	if got := stats.cacheHits.Load(); got != total {
		t.Errorf("cache hits = %d, want %d", got, total)
	}
	if got := stats.matches.Load(); got != 2*total {
		t.Errorf("matches = %d, want %d", got, 2*total)
	}

	var buf bytes.Buffer
	if !printReport(&buf, stats, time.Second) {
		t.Error("printReport reported no completed requests")
	}
	if !strings.Contains(buf.String(), "200: ") {
		t.Errorf("report lacks status codes:\n%s", buf.String())
	}
}

func TestPrintReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if printReport(&buf, NewStats(), time.Second) {
		t.Error("printReport = true for an empty run")
	}
}
