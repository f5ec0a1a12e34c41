package cache

import (
	"context"
	"time"
)

// ReportCache stores rendered report payloads keyed by a digest of the report
// request. A miss is not an error; callers recompute and Set.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	Invalidate(ctx context.Context)
}

// Noop satisfies ReportCache when no redis is configured. Every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Invalidate(context.Context)                         {}
