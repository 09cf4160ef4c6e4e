package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
)

// Runs only against a live server: WOSP_TEST_REDIS_ADDR=localhost:6379.
func TestClientRoundTrip(t *testing.T) {
	addr := os.Getenv("WOSP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WOSP_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewClient(ctx, config.RedisConfig{Addr: addr, PoolSize: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if _, found, err := c.Get(ctx, "wosp-test:absent"); err != nil || found {
		t.Fatalf("absent key: found=%v err=%v", found, err)
	}
	if err := c.Set(ctx, "wosp-test:k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	v, found, err := c.Get(ctx, "wosp-test:k")
	if err != nil || !found || string(v) != "v" {
		t.Fatalf("get = %q %v %v", v, found, err)
	}
	n, err := c.FlushByPattern(ctx, "wosp-test:*")
	if err != nil || n < 1 {
		t.Fatalf("flush = %d %v", n, err)
	}
}
