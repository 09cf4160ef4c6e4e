// Package analytics records what users search for: the search service
// tracks one QueryEvent per query, a Collector publishes the events to
// Kafka in batches, and an Aggregator, in-process or in the analytics
// service, turns them into counters, latency percentiles and top lists.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/kafka"
)

// maxLatencies bounds the latency sample kept for percentiles.
const maxLatencies = 10000

type AggregatedStats struct {
	TotalQueries      int64        `json:"total_queries"`
	Matched           int64        `json:"matched"`
	ZeroResults       int64        `json:"zero_results"`
	Invalid           int64        `json:"invalid"`
	Errors            int64        `json:"errors"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	TopTerms          []QueryCount `json:"top_terms"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type Aggregator struct {
	mu                sync.RWMutex
	outcomes          map[Outcome]int64
	cacheHits         int64
	cacheMisses       int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	termCounts        map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
	now               func() time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		outcomes:          make(map[Outcome]int64),
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		termCounts:        make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Record adds one event. It satisfies Sink.
func (a *Aggregator) Record(ev QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[ev.Outcome]++
	if ev.Outcome == OutcomeInvalid {
		return
	}
	if ev.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < maxLatencies {
		a.latencies = append(a.latencies, ev.LatencyMs)
	} else {
		a.latencies[a.next] = ev.LatencyMs
		a.next = (a.next + 1) % maxLatencies
	}
	a.queryCounts[ev.Query]++
	for _, t := range ev.Terms {
		a.termCounts[t]++
	}
	if ev.Outcome == OutcomeEmpty {
		a.zeroResultQueries[ev.Query]++
	}
}

// HandleMessage adapts the aggregator to a Kafka consumer. Messages of other
// event types are skipped; undecodable ones are logged and committed so a
// bad message cannot stall the partition.
func (a *Aggregator) HandleMessage() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if msg.Type != "" && msg.Type != string(EventQuery) {
			return nil
		}
		ev, err := kafka.DecodeJSON[QueryEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode analytics event", "key", string(msg.Key), "error", err)
			return nil
		}
		a.Record(ev)
		return nil
	}
}

// DefaultTop is the length of the top lists returned by Stats.
const DefaultTop = 10

// Stats returns the current totals with top lists of DefaultTop entries.
func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(DefaultTop)
}

// StatsTop returns the current totals with top lists of at most n entries.
func (a *Aggregator) StatsTop(n int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		Matched:     a.outcomes[OutcomeMatched],
		ZeroResults: a.outcomes[OutcomeEmpty],
		Invalid:     a.outcomes[OutcomeInvalid],
		Errors:      a.outcomes[OutcomeError],
		CacheHits:   a.cacheHits,
		CacheMisses: a.cacheMisses,
	}
	for _, n := range a.outcomes {
		stats.TotalQueries += n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, n)
	stats.TopTerms = topN(a.termCounts, n)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, n)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

// Restore seeds the counters from a saved snapshot, so that restarting the
// analytics service does not reset its totals. Percentile samples and top
// lists are restored only as far as the snapshot carries them.
func (a *Aggregator) Restore(s AggregatedStats) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for outcome, n := range a.outcomes {
		if n != 0 {
			return fmt.Errorf("restoring analytics: %d %s events already recorded", n, outcome)
		}
	}
	a.outcomes[OutcomeMatched] = s.Matched
	a.outcomes[OutcomeEmpty] = s.ZeroResults
	a.outcomes[OutcomeInvalid] = s.Invalid
	a.outcomes[OutcomeError] = s.Errors
	a.cacheHits = s.CacheHits
	a.cacheMisses = s.CacheMisses
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] = q.Count
	}
	for _, q := range s.TopTerms {
		a.termCounts[q.Query] = q.Count
	}
	for _, q := range s.ZeroResultQueries {
		a.zeroResultQueries[q.Query] = q.Count
	}
	return nil
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts, ties broken alphabetically.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
