// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingCache always errors.
type failingCache struct{ NullCache }

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unavailable")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("unavailable")
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryCache(2, time.Hour)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Fatal("Get() on empty cache hit")
	}

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("oldest entry survived eviction")
	}
	if data, hit, _ := c.Get(ctx, "c"); !hit || string(data) != "3" {
		t.Errorf("Get(c) = %q, %v", data, hit)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryCache(4, 20*time.Millisecond)
	_ = c.Set(ctx, "a", []byte("1"), 0)
	time.Sleep(60 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("expired entry still served")
	}
}

func TestTieredCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fast := NewMemoryCache(8, time.Hour)
	slow := NewMemoryCache(8, time.Hour)
	_ = slow.Set(ctx, "k", []byte("v"), 0)

	c := NewTieredCache(time.Hour, failingCache{}, fast, slow)
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}
	if _, hit, _ := fast.Get(ctx, "k"); !hit {
		t.Error("hit in lower tier was not backfilled")
	}

	if err := c.Set(ctx, "x", []byte("y"), time.Hour); err == nil {
		t.Error("Set() error = nil, want the failing tier's error")
	}
	if _, hit, _ := slow.Get(ctx, "x"); !hit {
		t.Error("Set() skipped tiers after a failure")
	}
}
