// SPDX-License-Identifier: MPL-2.0

package nuget_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/invowk/loadremote/internal/testutil"
	"github.com/invowk/loadremote/pkg/nuget"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestRedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping redis integration test: testcontainers provider not available")
	}

	testutil.AcquireContainerSlot(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redis, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skipping redis integration test: %v", err)
	}
	defer func() {
		if err := redis.Terminate(context.Background()); err != nil {
			t.Logf("warning: terminate returned error: %v", err)
		}
	}()

	host, err := redis.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := redis.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatal(err)
	}

	cache, err := nuget.NewRedisCache(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	defer testutil.DeferClose(t, cache)()

	if _, hit, err := cache.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v", hit, err)
	}
	if err := cache.Set(ctx, "src|acme", []byte("1.0.0\n1.1.0"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A second process sees the entry through its own tiered cache.
	other, err := nuget.NewRedisCache(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	if err != nil {
		t.Fatal(err)
	}
	memory := nuget.NewMemoryCache(8, time.Minute)
	tiered := nuget.NewTieredCache(time.Minute, memory, other)
	defer testutil.DeferClose(t, tiered)()

	data, hit, err := tiered.Get(ctx, "src|acme")
	if err != nil || !hit || string(data) != "1.0.0\n1.1.0" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}
	if _, hit, _ := memory.Get(ctx, "src|acme"); !hit {
		t.Error("redis hit was not backfilled into memory")
	}
}
