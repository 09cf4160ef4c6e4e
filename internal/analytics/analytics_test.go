package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/metrics"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return f.err
}

func (f *fakePublisher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestCollectorBatches(t *testing.T) {
	pub := &fakePublisher{}
	agg := NewAggregator()
	m := metrics.New(prometheus.NewRegistry())
	c := NewCollector(pub, CollectorConfig{BufferSize: 16, BatchSize: 2, FlushInterval: time.Hour}, m, agg)
	c.Start(context.Background())

	for _, q := range []string{"alpha", "beta", "gamma"} {
		c.Track(QueryEvent{Query: q, Outcome: OutcomeMatched})
	}
	c.Close()

	if got := pub.total(); got != 3 {
		t.Fatalf("published %d events, want 3", got)
	}
	if len(pub.batches[0]) != 2 {
		t.Errorf("first batch has %d events, want 2", len(pub.batches[0]))
	}
	first := pub.batches[0][0]
	if first.Key != "alpha" || first.Type != string(EventQuery) {
		t.Errorf("first event = %+v", first)
	}
	if ev := first.Value.(QueryEvent); ev.Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
	if got := agg.Stats().TotalQueries; got != 3 {
		t.Errorf("sink saw %d queries, want 3", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("published")); got != 3 {
		t.Errorf("published counter = %v", got)
	}
}

func TestCollectorCountsFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	m := metrics.New(prometheus.NewRegistry())
	c := NewCollector(pub, CollectorConfig{BatchSize: 10, FlushInterval: time.Hour}, m)
	c.Start(context.Background())
	c.Track(QueryEvent{Query: "x"})
	c.Close()
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed counter = %v", got)
	}
}

func TestCollectorWithoutPublisher(t *testing.T) {
	agg := NewAggregator()
	c := NewCollector(nil, CollectorConfig{}, nil, agg)
	c.Start(context.Background())
	c.Track(QueryEvent{Query: "only sinks", Outcome: OutcomeEmpty})
	c.Close()
	if got := agg.Stats().ZeroResults; got != 1 {
		t.Errorf("ZeroResults = %d", got)
	}
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	start := agg.startTime
	agg.now = func() time.Time { return start.Add(2 * time.Minute) }

	events := []QueryEvent{
		{Query: "cat AND dog", Terms: []string{"cat", "dog"}, Outcome: OutcomeMatched, LatencyMs: 10},
		{Query: "cat AND dog", Terms: []string{"cat", "dog"}, Outcome: OutcomeMatched, LatencyMs: 20, CacheHit: true},
		{Query: "zebra", Terms: []string{"zebra"}, Outcome: OutcomeEmpty, LatencyMs: 30},
		{Query: "(cat", Outcome: OutcomeInvalid},
	}
	for _, ev := range events {
		agg.Record(ev)
	}

	stats := agg.Stats()
	if stats.TotalQueries != 4 || stats.Matched != 2 || stats.ZeroResults != 1 || stats.Invalid != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache = %d/%d", stats.CacheHits, stats.CacheMisses)
	}
	if stats.AvgLatencyMs != 20 || stats.P50LatencyMs != 20 || stats.P99LatencyMs != 30 {
		t.Errorf("latency = avg %v p50 %d p99 %d", stats.AvgLatencyMs, stats.P50LatencyMs, stats.P99LatencyMs)
	}
	if stats.QueriesPerMinute != 2 {
		t.Errorf("QueriesPerMinute = %v", stats.QueriesPerMinute)
	}
	wantTop := []QueryCount{{"cat AND dog", 2}, {"zebra", 1}}
	if diff := cmp.Diff(wantTop, stats.TopQueries); diff != "" {
		t.Errorf("TopQueries mismatch (-want +got):\n%s", diff)
	}
	wantTerms := []QueryCount{{"cat", 2}, {"dog", 2}, {"zebra", 1}}
	if diff := cmp.Diff(wantTerms, stats.TopTerms); diff != "" {
		t.Errorf("TopTerms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]QueryCount{{"zebra", 1}}, stats.ZeroResultQueries); diff != "" {
		t.Errorf("ZeroResultQueries mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatorLatencyRingIsBounded(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencies+10; i++ {
		agg.Record(QueryEvent{Query: "q", Outcome: OutcomeMatched, LatencyMs: int64(i)})
	}
	if got := len(agg.latencies); got != maxLatencies {
		t.Errorf("kept %d latencies, want %d", got, maxLatencies)
	}
}

func TestHandleMessage(t *testing.T) {
	agg := NewAggregator()
	handle := agg.HandleMessage()
	value, err := json.Marshal(QueryEvent{Type: EventQuery, Query: "wolf", Outcome: OutcomeMatched})
	if err != nil {
		t.Fatal(err)
	}

	msgs := []kafka.Message{
		{Key: []byte("wolf"), Type: string(EventQuery), Value: value},
		{Key: []byte("other"), Type: "index", Value: value},
		{Key: []byte("bad"), Type: string(EventQuery), Value: []byte("{not json")},
	}
	for _, msg := range msgs {
		if err := handle(context.Background(), msg); err != nil {
			t.Errorf("handle(%s) = %v", msg.Key, err)
		}
	}
	if got := agg.Stats().TotalQueries; got != 1 {
		t.Errorf("TotalQueries = %d, want 1", got)
	}
}

func TestRestore(t *testing.T) {
	agg := NewAggregator()
	snap := AggregatedStats{Matched: 5, ZeroResults: 2, TopQueries: []QueryCount{{"fox", 4}}}
	if err := agg.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	agg.Record(QueryEvent{Query: "fox", Outcome: OutcomeMatched})
	stats := agg.Stats()
	if stats.TotalQueries != 8 {
		t.Errorf("TotalQueries = %d, want 8", stats.TotalQueries)
	}
	if diff := cmp.Diff([]QueryCount{{"fox", 5}}, stats.TopQueries); diff != "" {
		t.Errorf("TopQueries mismatch (-want +got):\n%s", diff)
	}
	if err := agg.Restore(snap); err == nil {
		t.Error("second Restore should fail")
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		sorted []int64
		pct    int
		want   int64
	}{
		{nil, 50, 0},
		{[]int64{7}, 99, 7},
		{[]int64{1, 2, 3, 4}, 50, 3},
		{[]int64{1, 2, 3, 4}, 100, 4},
	}
	for _, tt := range tests {
		if got := percentile(tt.sorted, tt.pct); got != tt.want {
			t.Errorf("percentile(%v, %d) = %d, want %d", tt.sorted, tt.pct, got, tt.want)
		}
	}
}

func TestStatsHandler(t *testing.T) {
	agg := NewAggregator()
	for _, q := range []string{"a", "b", "b", "c", "c", "c"} {
		agg.Record(QueryEvent{Query: q, Outcome: OutcomeMatched})
	}
	h := NewHandler(agg)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantTop    []QueryCount
	}{
		{"default", "/api/v1/analytics", http.StatusOK, []QueryCount{{"c", 3}, {"b", 2}, {"a", 1}}},
		{"top two", "/api/v1/analytics?top=2", http.StatusOK, []QueryCount{{"c", 3}, {"b", 2}}},
		{"zero", "/api/v1/analytics?top=0", http.StatusBadRequest, nil},
		{"not a number", "/api/v1/analytics?top=many", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Stats(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var stats AggregatedStats
			if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if diff := cmp.Diff(tt.wantTop, stats.TopQueries); diff != "" {
				t.Errorf("TopQueries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
