//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// startRedis runs a Redis 8 container (query engine built in) and returns a
// connected store. The test is skipped when no container runtime is available.
func startRedis(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:8.0")
	if err != nil {
		t.Skipf("could not start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}

	store, err := NewStore(Config{Addrs: []string{addr}, Namespace: "it"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
		t.Fatalf("wait for ready: %v", err)
	}
	return store
}

func TestIntegration_ProvisionAndList(t *testing.T) {
	store := startRedis(t)
	ctx := context.Background()

	specs := index.DefaultSpecifications(8, index.SimilarityCosine, "embedding", "content", "")
	for _, spec := range specs {
		ack, err := store.CreateSearchIndex(ctx, "chunks", spec)
		if err != nil {
			t.Fatalf("create %s: %v", spec.Name, err)
		}
		if want := "it:chunks:" + spec.Name; ack != want {
			t.Errorf("expected ack %s, got %s", want, ack)
		}
	}

	if _, err := store.CreateSearchIndex(ctx, "chunks", specs[0]); !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}

	ready := func() bool {
		statuses, err := store.ListSearchIndexes(ctx, "chunks")
		if err != nil || len(statuses) != 2 {
			return false
		}
		for _, s := range statuses {
			if s.Status != index.StatusReady {
				return false
			}
		}
		return true
	}
	deadline := time.Now().Add(10 * time.Second)
	for !ready() {
		if time.Now().After(deadline) {
			t.Fatal("indexes did not become READY within 10s")
		}
		time.Sleep(200 * time.Millisecond)
	}

	other, err := store.ListSearchIndexes(ctx, "other")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no indexes for another collection, got %v", other)
	}
}
