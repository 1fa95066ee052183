package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"petcare-analytics/analytics"
)

// RefreshChannel carries a RefreshNotice each time a report is recomputed
const RefreshChannel = "analytics:refreshed"

// RefreshNotice is published on RefreshChannel
type RefreshNotice struct {
	Origin      string         `json:"origin"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Totals      map[string]int `json:"totals"`
}

// AnalyticsCache stores computed branch reports with a fixed TTL.
// Expiry is Redis' own; concurrent writers simply overwrite the same value.
type AnalyticsCache struct {
	redis      *RedisClient
	instanceID string
}

// NewAnalyticsCache creates a new analytics cache instance
func NewAnalyticsCache(redis *RedisClient) *AnalyticsCache {
	return &AnalyticsCache{
		redis:      redis,
		instanceID: uuid.NewString(),
	}
}

// GetBranchReport retrieves the cached report for a branch set.
// Returns the report and true if found, nil and false otherwise.
func (c *AnalyticsCache) GetBranchReport(ctx context.Context, branches []string) (*analytics.BranchReport, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	var report analytics.BranchReport
	if err := c.redis.Get(ctx, branchReportKey(branches), &report); err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  Failed to read cached branch report: %v", err)
		}
		return nil, false
	}
	return &report, true
}

// SetBranchReport caches a report for a branch set
func (c *AnalyticsCache) SetBranchReport(ctx context.Context, branches []string, report *analytics.BranchReport, ttl time.Duration) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, branchReportKey(branches), report, ttl)
}

// InvalidateBranchReport drops the cached report for a branch set
func (c *AnalyticsCache) InvalidateBranchReport(ctx context.Context, branches []string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Delete(ctx, branchReportKey(branches))
}

// PublishRefresh announces a freshly computed report to other instances
func (c *AnalyticsCache) PublishRefresh(ctx context.Context, report *analytics.BranchReport) error {
	if c == nil || c.redis == nil {
		return nil
	}
	notice := RefreshNotice{
		Origin:      c.instanceID,
		GeneratedAt: report.GeneratedAt,
		Totals:      make(map[string]int, len(report.CurrentMetrics)),
	}
	for branch, s := range report.CurrentMetrics {
		notice.Totals[branch] = s.Total
	}
	return c.redis.Publish(ctx, RefreshChannel, notice)
}

// SubscribeRefresh delivers refresh notices published by other instances until ctx is cancelled
func (c *AnalyticsCache) SubscribeRefresh(ctx context.Context, handle func(RefreshNotice)) {
	if c == nil || c.redis == nil {
		return
	}
	pubsub := c.redis.Subscribe(ctx, RefreshChannel)
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var notice RefreshNotice
			if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
				log.Printf("⚠️  Ignoring malformed refresh notice: %v", err)
				continue
			}
			if notice.Origin == c.instanceID {
				continue
			}
			handle(notice)
		}
	}
}

func branchReportKey(branches []string) string {
	return fmt.Sprintf("analytics:branch-report:%s", GenerateDataHash(branches))
}

// GenerateDataHash creates a short hash of any JSON-encodable value
func GenerateDataHash(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf("%x", hash[:8]) // Use first 8 bytes for shorter hash
}
