package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/nidhogg/mnemo/internal/mirror"
)

// Suppress unused import warning for testcontainers base package.
var _ = testcontainers.GenericContainerRequest{}

var (
	testLogger   *zap.Logger
	testRedisURL string
)

// startRedis starts a Redis testcontainer, returns URL + cleanup func.
func startRedis(ctx context.Context) (string, func(), error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return "", nil, fmt.Errorf("start redis: %w", err)
	}
	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("redis endpoint: %w", err)
	}
	url := "redis://" + endpoint
	cleanup := func() { container.Terminate(ctx) }
	return url, cleanup, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()
	testLogger, _ = zap.NewDevelopment()

	url, cleanup, err := startRedis(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = url

	code := m.Run()
	cleanup()
	os.Exit(code)
}

func TestRedisMirrorPublishAndStats(t *testing.T) {
	m, err := mirror.NewRedisMirror(testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("connect mirror: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	if err := m.Publish(ctx, mirror.Summarize("user prefers green tea", "preference", 2.0, "s1", nil, now)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Publish(ctx, mirror.Summarize("the meeting moved to friday", "conversation", 1.0, "s1", nil, now)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("got total %d, want 2", stats.Total)
	}
	if stats.ByType["preference"] != 1 || stats.ByType["conversation"] != 1 {
		t.Errorf("unexpected type counts: %v", stats.ByType)
	}
}

func TestRedisMirrorDedup(t *testing.T) {
	m, err := mirror.NewRedisMirror(testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("connect mirror: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	s := mirror.Summarize("a repeated observation", "knowledge", 1.0, "", nil, time.Now().UTC())
	for i := 0; i < 3; i++ {
		if err := m.Publish(ctx, s); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := stats.ByType["knowledge"]; got != 1 {
		t.Fatalf("got %d knowledge entries, want 1 (deduplicated)", got)
	}
	if stats.TotalAccesses < 2 {
		t.Errorf("got %d accesses, want at least 2 after re-publishing", stats.TotalAccesses)
	}
}
