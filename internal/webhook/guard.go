package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard is the fast-path idempotency check for webhook deliveries, keyed by
// provider call id plus event timestamp. It sits in front of the store's
// conditional update: the guard sheds obvious replays cheaply, the
// conditional update stays the correctness authority.
//
// Redis is optional. Without it every delivery is treated as new and the
// store-level staleness check alone filters duplicates.
type Guard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGuard creates the idempotency guard. rdb may be nil.
func NewGuard(rdb *redis.Client, ttl time.Duration) *Guard {
	return &Guard{rdb: rdb, ttl: ttl}
}

func guardKey(providerCallID string, eventTimestamp time.Time) string {
	return fmt.Sprintf("webhook:seen:%s:%d", providerCallID, eventTimestamp.UnixMilli())
}

// MarkIfNew records the delivery key and reports whether it was unseen.
// Guard errors fail open: a broken cache must not drop deliveries.
func (g *Guard) MarkIfNew(ctx context.Context, providerCallID string, eventTimestamp time.Time) bool {
	if g.rdb == nil {
		return true
	}

	fresh, err := g.rdb.SetNX(ctx, guardKey(providerCallID, eventTimestamp), 1, g.ttl).Result()
	if err != nil {
		return true
	}
	return fresh
}

// Forget releases a delivery key after a failed processing attempt so the
// provider's retry of the same delivery is not shed as a duplicate. Errors
// are ignored: worst case the retry falls through to the store-level
// staleness check.
func (g *Guard) Forget(ctx context.Context, providerCallID string, eventTimestamp time.Time) {
	if g.rdb == nil {
		return
	}
	g.rdb.Del(ctx, guardKey(providerCallID, eventTimestamp))
}
