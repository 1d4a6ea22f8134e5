package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewGuard(rdb, time.Minute)
}

func TestGuardMarksFirstDeliveryNew(t *testing.T) {
	guard := newTestGuard(t)
	ts := time.UnixMilli(1700000000000)

	if !guard.MarkIfNew(context.Background(), "call_abc123", ts) {
		t.Fatal("first delivery must be new")
	}
}

func TestGuardDropsReplay(t *testing.T) {
	guard := newTestGuard(t)
	ts := time.UnixMilli(1700000000000)

	guard.MarkIfNew(context.Background(), "call_abc123", ts)
	if guard.MarkIfNew(context.Background(), "call_abc123", ts) {
		t.Fatal("replayed delivery must be dropped")
	}
}

func TestGuardDistinguishesEventTimestamps(t *testing.T) {
	guard := newTestGuard(t)

	guard.MarkIfNew(context.Background(), "call_abc123", time.UnixMilli(1700000000000))
	if !guard.MarkIfNew(context.Background(), "call_abc123", time.UnixMilli(1700000005000)) {
		t.Fatal("a later event for the same call is a distinct delivery")
	}
}

func TestGuardDistinguishesCalls(t *testing.T) {
	guard := newTestGuard(t)
	ts := time.UnixMilli(1700000000000)

	guard.MarkIfNew(context.Background(), "call_abc123", ts)
	if !guard.MarkIfNew(context.Background(), "call_def456", ts) {
		t.Fatal("deliveries for different calls must not collide")
	}
}

func TestGuardFailsOpenWithoutRedis(t *testing.T) {
	guard := NewGuard(nil, time.Minute)
	ts := time.UnixMilli(1700000000000)

	if !guard.MarkIfNew(context.Background(), "call_abc123", ts) {
		t.Fatal("nil-client guard must treat every delivery as new")
	}
	if !guard.MarkIfNew(context.Background(), "call_abc123", ts) {
		t.Fatal("nil-client guard must treat every delivery as new")
	}
}
