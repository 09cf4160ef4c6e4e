package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/metrics"
)

type failingStore struct{ calls atomic.Int64 }

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	f.calls.Add(1)
	return nil, false, errors.New("connection refused")
}

func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	f.calls.Add(1)
	return errors.New("connection refused")
}

func (f *failingStore) FlushByPattern(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func constant(v string) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) { return []byte(v), nil }
}

func TestGetOrCompute(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(NewMemoryStore(), time.Minute, m)
	ctx := context.Background()
	key := Key("cat AND dog", "opts")

	v, cached, err := c.GetOrCompute(ctx, key, constant("first"))
	if err != nil || cached || string(v) != "first" {
		t.Fatalf("first call = %q %v %v", v, cached, err)
	}
	v, cached, err = c.GetOrCompute(ctx, key, constant("second"))
	if err != nil || !cached || string(v) != "first" {
		t.Fatalf("second call = %q %v %v", v, cached, err)
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate != 0.5 || s.Breaker != "closed" {
		t.Errorf("stats = %+v", s)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("hits metric = %v", got)
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), Key("q"), func(context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if store.Len() != 0 {
		t.Error("failed result was cached")
	}
}

func TestConcurrentMissesComputeOnce(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, nil)
	var calls atomic.Int64
	release := make(chan struct{})
	compute := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrCompute(context.Background(), Key("same"), compute); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("compute ran %d times, want 1", n)
	}
}

func TestStoreFailuresOpenBreaker(t *testing.T) {
	store := &failingStore{}
	c := New(store, time.Minute, nil)
	for i := 0; i < 10; i++ {
		v, _, err := c.GetOrCompute(context.Background(), Key("q"), constant("fresh"))
		if err != nil || string(v) != "fresh" {
			t.Fatalf("call %d = %q %v", i, v, err)
		}
	}
	if c.Stats().Breaker != "open" {
		t.Errorf("breaker = %s, want open", c.Stats().Breaker)
	}
	if n := store.calls.Load(); n >= 20 {
		t.Errorf("store called %d times despite open breaker", n)
	}
}

func TestKey(t *testing.T) {
	if Key("cat  AND\tdog") != Key("cat AND dog") {
		t.Error("whitespace changes the key")
	}
	if Key("Cat") == Key("cat") {
		t.Error("case must change the key")
	}
	if Key("cat", "a") == Key("cat", "b") {
		t.Error("options must change the key")
	}
}

func TestInvalidate(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Minute, nil)
	ctx := context.Background()
	for _, q := range []string{"a", "b", "c"} {
		if _, _, err := c.GetOrCompute(ctx, Key(q), constant(q)); err != nil {
			t.Fatal(err)
		}
	}
	_ = store.Set(ctx, "other:key", []byte("x"), 0)
	n, err := c.Invalidate(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Invalidate = %d %v", n, err)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d entries, want the foreign key only", store.Len())
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Unix(0, 0)
	s.now = func() time.Time { return now }
	_ = s.Set(context.Background(), "k", []byte("v"), time.Second)
	if _, ok, _ := s.Get(context.Background(), "k"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := s.Get(context.Background(), "k"); ok {
		t.Error("expired entry returned")
	}
}
