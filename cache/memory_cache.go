package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"petcare-analytics/analytics"
)

// memoryCacheEntries bounds distinct branch sets held in process
const memoryCacheEntries = 16

// MemoryReportCache is the in-process report cache used when Redis is unreachable.
// The TTL is fixed at construction; entries are shared with callers and must not be mutated.
type MemoryReportCache struct {
	cache *lru.LRU[string, *analytics.BranchReport]
}

// NewMemoryReportCache creates an in-memory LRU cache with TTL support
func NewMemoryReportCache(ttl time.Duration) *MemoryReportCache {
	return &MemoryReportCache{
		cache: lru.NewLRU[string, *analytics.BranchReport](memoryCacheEntries, nil, ttl),
	}
}

// GetBranchReport retrieves the cached report for a branch set
func (c *MemoryReportCache) GetBranchReport(ctx context.Context, branches []string) (*analytics.BranchReport, bool) {
	return c.cache.Get(memoryKey(branches))
}

// SetBranchReport caches a report for a branch set
func (c *MemoryReportCache) SetBranchReport(ctx context.Context, branches []string, report *analytics.BranchReport, ttl time.Duration) error {
	c.cache.Add(memoryKey(branches), report)
	return nil
}

// InvalidateBranchReport drops the cached report for a branch set
func (c *MemoryReportCache) InvalidateBranchReport(ctx context.Context, branches []string) error {
	c.cache.Remove(memoryKey(branches))
	return nil
}

// PublishRefresh is a no-op: a single process has nobody to notify
func (c *MemoryReportCache) PublishRefresh(ctx context.Context, report *analytics.BranchReport) error {
	return nil
}

func memoryKey(branches []string) string {
	return strings.Join(branches, "\x1f")
}
