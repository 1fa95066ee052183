package analytics

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"petcare-analytics/config"
	"petcare-analytics/database"
	models "petcare-analytics/database/models_pkg"
	"petcare-analytics/observability"
)

// branchReportKeyType labels cache metrics for the branch report
const branchReportKeyType = "branch_report"

// RecordStore is the read-only source of appointments and the breed catalog
type RecordStore interface {
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	ListPets(ctx context.Context) ([]models.Pet, error)
}

// ReportCache stores computed reports. Implementations must tolerate concurrent writers.
type ReportCache interface {
	GetBranchReport(ctx context.Context, branches []string) (*BranchReport, bool)
	SetBranchReport(ctx context.Context, branches []string, report *BranchReport, ttl time.Duration) error
	InvalidateBranchReport(ctx context.Context, branches []string) error
	PublishRefresh(ctx context.Context, report *BranchReport) error
}

// PetTypeForecaster predicts next-period appointments per branch and pet type
type PetTypeForecaster interface {
	ForecastPetTypes(ctx context.Context, input ForecastInput) (map[string]map[string]int, error)
}

// Service computes branch reports and pet type predictions on demand
type Service struct {
	store      RecordStore
	cfg        config.AnalyticsConfig
	rng        RandomSource
	cache      ReportCache
	forecaster PetTypeForecaster
	metrics    *observability.Metrics
	now        func() time.Time
	group      singleflight.Group
}

// NewService creates a new analytics service
func NewService(store RecordStore, cfg config.AnalyticsConfig) *Service {
	if len(cfg.Branches) == 0 {
		cfg.Branches = append([]string(nil), config.DefaultBranches...)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		store: store,
		cfg:   cfg,
		rng:   NewRandomSource(time.Now().UnixNano()),
		now:   time.Now,
	}
}

// SetCache enables the read-through report cache
func (s *Service) SetCache(cache ReportCache) {
	s.cache = cache
}

// SetForecaster enables the external pet type forecaster
func (s *Service) SetForecaster(f PetTypeForecaster) {
	s.forecaster = f
}

// SetMetrics attaches Prometheus metrics
func (s *Service) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// SetRandomSource replaces the source of the randomised demo figures
func (s *Service) SetRandomSource(rng RandomSource) {
	s.rng = rng
}

// SetClock replaces time.Now, mostly for tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Branches returns the configured branch names
func (s *Service) Branches() []string {
	return append([]string(nil), s.cfg.Branches...)
}

// BranchReport returns the cached report when present, else computes and caches one
func (s *Service) BranchReport(ctx context.Context) (*BranchReport, error) {
	if s.cache != nil {
		if report, ok := s.cache.GetBranchReport(ctx, s.cfg.Branches); ok {
			s.metrics.CacheHit(branchReportKeyType)
			return report, nil
		}
		s.metrics.CacheMiss(branchReportKeyType)
	}

	// Concurrent misses share one computation, so it must outlive the caller
	// that happened to start it.
	v, _, _ := s.group.Do(branchReportKeyType, func() (interface{}, error) {
		flightCtx := context.WithoutCancel(ctx)
		report := s.compute(flightCtx)
		s.cacheReport(flightCtx, report)
		return report, nil
	})
	return v.(*BranchReport), nil
}

// Refresh recomputes the report, overwrites the cache and announces it.
// When the store cannot be read the cached report is dropped instead.
func (s *Service) Refresh(ctx context.Context) (*BranchReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := s.compute(ctx)
	s.cacheReport(ctx, report)

	if s.cache != nil && report.DataUnavailable {
		if err := s.cache.InvalidateBranchReport(ctx, s.cfg.Branches); err != nil {
			log.Printf("⚠️  Failed to drop stale branch report: %v", err)
		}
	}
	if s.cache != nil && !report.DataUnavailable {
		if err := s.cache.PublishRefresh(ctx, report); err != nil {
			log.Printf("⚠️  Failed to publish analytics refresh: %v", err)
		}
	}
	return report, nil
}

// BranchDetail returns the snapshot and forecast of a single branch
func (s *Service) BranchDetail(ctx context.Context, branch string) (*BranchDetail, error) {
	if !s.isBranch(branch) {
		return nil, database.NewNotFoundErrorWithID("branch", branch)
	}
	report, err := s.BranchReport(ctx)
	if err != nil {
		return nil, err
	}
	return &BranchDetail{
		Branch:         branch,
		CurrentMetrics: report.CurrentMetrics[branch],
		Prediction:     report.Predictions[branch],
		GeneratedAt:    report.GeneratedAt,
	}, nil
}

// PetTypePredictions projects next-period demand per pet type and per branch.
// The external forecaster is used when configured; any failure falls back to
// the heuristic forecast with IsMockData set.
func (s *Service) PetTypePredictions(ctx context.Context) (*PetTypePredictions, error) {
	report, err := s.BranchReport(ctx)
	if err != nil {
		return nil, err
	}
	heuristic := PredictionCounts(report.Predictions)

	if s.forecaster == nil || report.DataUnavailable {
		out := ProjectPetTypes(s.cfg.Branches, heuristic)
		out.GeneratedAt = report.GeneratedAt
		return out, nil
	}

	counts, err := s.forecaster.ForecastPetTypes(ctx, s.forecastInput(report))
	if err != nil {
		log.Printf("⚠️  External forecast failed, using heuristic: %v", err)
		s.metrics.ForecastRun("fallback")

		out := ProjectPetTypes(s.cfg.Branches, heuristic)
		out.IsMockData = true
		out.Error = err.Error()
		out.GeneratedAt = report.GeneratedAt
		return out, nil
	}
	s.metrics.ForecastRun("success")

	out := ProjectPetTypes(s.cfg.Branches, mergeCounts(counts, heuristic))
	out.Source = SourceModel
	out.GeneratedAt = report.GeneratedAt
	return out, nil
}

// compute scans the store and builds a fresh report.
// A store failure yields a zeroed report flagged DataUnavailable.
func (s *Service) compute(ctx context.Context) *BranchReport {
	start := time.Now()
	now := s.now().In(s.cfg.Location)

	unavailable := false
	appointments, err := s.store.ListAppointments(ctx)
	if err != nil {
		log.Printf("❌ Failed to load appointments, serving empty report: %v", err)
		s.metrics.StoreError("ListAppointments")
		appointments = nil
		unavailable = true
	}

	var pets []models.Pet
	if !unavailable {
		pets, err = s.store.ListPets(ctx)
		if err != nil {
			log.Printf("⚠️  Failed to load pet catalog, inferring types without it: %v", err)
			s.metrics.StoreError("ListPets")
			pets = nil
		}
	}

	catalog := models.NewPetTypeCatalog(pets, s.cfg.PetCatalog)
	snapshots := NewAggregator(s.cfg.Branches, catalog, s.rng, s.cfg.Location).Aggregate(appointments)

	// No placeholder forecasts when the data could not be read.
	engineRng := s.rng
	if unavailable {
		engineRng = nil
	}
	engine := NewForecastEngine(engineRng, s.cfg.SeasonalMonths, s.cfg.SeasonalFactor)

	report := &BranchReport{
		CurrentMetrics:  snapshots,
		Predictions:     engine.ForecastAll(snapshots, now),
		GeneratedAt:     now,
		DataUnavailable: unavailable,
	}

	s.metrics.ObserveCompute(time.Since(start), len(appointments))
	log.Printf("📊 Branch report computed: %d appointments, %d branches in %v",
		len(appointments), len(snapshots), time.Since(start))
	return report
}

// cacheReport caches a report. Degraded reports are never cached.
func (s *Service) cacheReport(ctx context.Context, report *BranchReport) {
	if s.cache == nil || report.DataUnavailable || s.cfg.CacheTTL <= 0 {
		return
	}
	if err := s.cache.SetBranchReport(ctx, s.cfg.Branches, report, s.cfg.CacheTTL); err != nil {
		log.Printf("⚠️  Failed to cache branch report: %v", err)
	}
}

func (s *Service) forecastInput(report *BranchReport) ForecastInput {
	input := ForecastInput{
		Branches:       make(map[string]BranchSeries, len(report.CurrentMetrics)),
		PetTypes:       append([]string(nil), models.KnownPetTypes...),
		ForecastMonth:  NextMonthIndex(report.GeneratedAt),
		GeneratedAtUTC: report.GeneratedAt.UTC(),
	}
	for branch, snapshot := range report.CurrentMetrics {
		input.Branches[branch] = BranchSeries{
			Monthly:        snapshot.Monthly,
			PetTypeMonthly: snapshot.PetTypeMonthly,
		}
	}
	return input
}

func (s *Service) isBranch(name string) bool {
	for _, b := range s.cfg.Branches {
		if b == name {
			return true
		}
	}
	return false
}

// mergeCounts overlays model predictions on the heuristic ones; branches and
// types the model left out keep their heuristic value.
func mergeCounts(model, heuristic map[string]map[string]int) map[string]map[string]int {
	out := make(map[string]map[string]int, len(heuristic))
	for branch, types := range heuristic {
		merged := make(map[string]int, len(types))
		for petType, n := range types {
			merged[petType] = n
		}
		for petType, n := range model[branch] {
			merged[petType] = n
		}
		out[branch] = merged
	}
	return out
}
