package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"petcare-analytics/analytics"
	"petcare-analytics/api"
	"petcare-analytics/realtime"
)

// refreshTimeout bounds one scheduled recomputation
const refreshTimeout = 2 * time.Minute

// Refresher recomputes and caches the branch report
type Refresher interface {
	Refresh(ctx context.Context) (*analytics.BranchReport, error)
}

// Broadcaster pushes an event to connected dashboards
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// SnapshotRefresher periodically recomputes the branch report so the cache
// stays warm and dashboards get an analytics_refreshed event
type SnapshotRefresher struct {
	service     Refresher
	broadcaster Broadcaster
	schedule    string
	cron        *cron.Cron

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	initial sync.WaitGroup
}

// NewSnapshotRefresher creates a refresher for a cron schedule. Standard
// 5-field expressions and descriptors such as "@every 15m" are accepted.
// An empty schedule disables the refresher and returns nil.
func NewSnapshotRefresher(service Refresher, broadcaster Broadcaster, schedule string, loc *time.Location) (*SnapshotRefresher, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sr := &SnapshotRefresher{
		service:     service,
		broadcaster: broadcaster,
		schedule:    schedule,
		cron:        cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		ctx:         ctx,
		cancel:      cancel,
	}
	if _, err := sr.cron.AddFunc(schedule, sr.refresh); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}
	return sr, nil
}

// Start follows the schedule and runs one refresh immediately.
// It is a no-op once Stop has been called.
func (sr *SnapshotRefresher) Start() {
	sr.mu.Lock()
	if sr.stopped {
		sr.mu.Unlock()
		return
	}
	sr.cron.Start()
	sr.initial.Add(1)
	sr.mu.Unlock()
	defer sr.initial.Done()

	log.Printf("🔄 Snapshot Refresher started (cron: %s)", sr.schedule)

	// Initial run
	sr.refresh()
}

// Stop stops the schedule, cancels an in-flight refresh and waits for it to return
func (sr *SnapshotRefresher) Stop() {
	sr.mu.Lock()
	sr.stopped = true
	sr.mu.Unlock()

	sr.cancel()
	<-sr.cron.Stop().Done()
	sr.initial.Wait()
	log.Println("🔄 Snapshot Refresher stopped")
}

func (sr *SnapshotRefresher) refresh() {
	ctx, cancel := context.WithTimeout(sr.ctx, refreshTimeout)
	defer cancel()

	report, err := sr.service.Refresh(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to refresh branch report: %v", err)
		return
	}

	if sr.broadcaster != nil {
		sr.broadcaster.Broadcast(realtime.EventAnalyticsRefreshed, api.RefreshSummary(report))
	}
	if report.DataUnavailable {
		log.Println("⚠️ Branch report refreshed without data (record store unavailable)")
		return
	}
	log.Println("✅ Branch report refreshed successfully")
}
