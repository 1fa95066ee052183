package analytics

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	models "petcare-analytics/database/models_pkg"
	"petcare-analytics/helpers"
)

// maxTopPetNames caps BranchMetricsSnapshot.TopPetNames
const maxTopPetNames = 5

// unknownLabel replaces missing pet names and unresolved pet types
const unknownLabel = models.PetTypeUnknown

// interestedInPattern matches the shop flow's "Interested in Dog: Labrador (₹500)" reason text
var interestedInPattern = regexp.MustCompile(`(?i)interested in\s+(dog|cat|bird|fish|rabbit)\s*:`)

// Aggregator buckets appointments per branch, month, status, pet type and pet name
type Aggregator struct {
	branches []string
	catalog  models.PetTypeCatalog
	rng      RandomSource
	loc      *time.Location
}

// NewAggregator creates an aggregator for the given branch set.
// loc decides which calendar month a timestamp falls into; nil means UTC.
func NewAggregator(branches []string, catalog models.PetTypeCatalog, rng RandomSource, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		branches: append([]string(nil), branches...),
		catalog:  catalog,
		rng:      rng,
		loc:      loc,
	}
}

// NewEmptySnapshot returns a zeroed snapshot with every status and pet type key present
func NewEmptySnapshot() *BranchMetricsSnapshot {
	s := &BranchMetricsSnapshot{
		Statuses:       make(map[string]int, len(models.KnownStatuses)),
		PetTypeStats:   make(map[string]int, len(models.KnownPetTypes)+1),
		PetTypeMonthly: make(map[string]MonthlySeries, len(models.KnownPetTypes)+1),
		PetNameStats:   make(map[string]*PetNameStat),
		PetTypeTrends:  make(map[string]float64, len(models.KnownPetTypes)+1),
		Trend:          "0.0",
		TopPetTypes:    []RankedPetType{},
		TopPetNames:    []RankedPetName{},
		RevenueDisplay: helpers.FormatRupees(0),
	}
	for _, status := range models.KnownStatuses {
		s.Statuses[status] = 0
	}
	for _, petType := range allPetTypes() {
		s.PetTypeStats[petType] = 0
		s.PetTypeMonthly[petType] = MonthlySeries{}
		s.PetTypeTrends[petType] = 0
	}
	return s
}

// Aggregate scans the appointments once and returns one finalised snapshot per
// configured branch. Branches without appointments get a zeroed snapshot.
func (a *Aggregator) Aggregate(appointments []models.Appointment) map[string]*BranchMetricsSnapshot {
	snapshots := make(map[string]*BranchMetricsSnapshot, len(a.branches))
	for _, branch := range a.branches {
		snapshots[branch] = NewEmptySnapshot()
	}

	for i := range appointments {
		snapshot, ok := snapshots[appointments[i].Branch]
		if !ok {
			continue // unknown branch
		}
		a.accumulate(snapshot, &appointments[i])
	}

	for _, snapshot := range snapshots {
		snapshot.finalize()
	}
	return snapshots
}

// accumulate folds one appointment into its branch snapshot.
// A missing or zero date only skips the monthly buckets.
func (a *Aggregator) accumulate(s *BranchMetricsSnapshot, appt *models.Appointment) {
	petName := strings.TrimSpace(appt.PetName)
	if petName == "" {
		petName = unknownLabel
	}
	petType := InferPetType(appt, a.catalog)
	month, hasMonth := a.monthOf(appt.AppointmentDate)

	s.Total++
	if hasMonth {
		s.Monthly[month]++
	}

	if models.IsKnownStatus(appt.Status) {
		s.Statuses[appt.Status]++
	}

	s.PetTypeStats[petType]++
	if hasMonth {
		series := s.PetTypeMonthly[petType]
		series[month]++
		s.PetTypeMonthly[petType] = series
	}

	stat, ok := s.PetNameStats[petName]
	if !ok {
		stat = &PetNameStat{Type: petType}
		s.PetNameStats[petName] = stat
	}
	stat.Count++
	if hasMonth {
		stat.Monthly[month]++
	}

	if appt.Status == models.StatusCompleted && a.rng != nil {
		s.Revenue += syntheticRevenue(a.rng)
		s.satisfactionSum += syntheticSatisfaction(a.rng)
		s.completed++
	}
}

func (a *Aggregator) monthOf(date *time.Time) (int, bool) {
	if date == nil || date.IsZero() {
		return 0, false
	}
	return int(date.In(a.loc).Month()) - 1, true
}

// InferPetType resolves the pet type of an appointment: explicit field first,
// then the "Interested in <Type>:" reason token, then the breed catalog keyed
// by pet name, else Unknown.
func InferPetType(appt *models.Appointment, catalog models.PetTypeCatalog) string {
	if petType, ok := models.CanonicalPetType(appt.PetType); ok {
		return petType
	}
	if m := interestedInPattern.FindStringSubmatch(appt.Reason); m != nil {
		if petType, ok := models.CanonicalPetType(m[1]); ok {
			return petType
		}
	}
	if petType, ok := catalog.Lookup(appt.PetName); ok {
		return petType
	}
	return unknownLabel
}

// finalize derives averages, trends and the sorted top views
func (s *BranchMetricsSnapshot) finalize() {
	if s.completed > 0 {
		s.AvgSatisfaction = roundTo(s.satisfactionSum/float64(s.completed), 1)
	} else {
		s.AvgSatisfaction = 0
	}
	s.RevenueDisplay = helpers.FormatRupees(s.Revenue)
	s.Trend = BranchTrend(s.Monthly)

	for petType, series := range s.PetTypeMonthly {
		s.PetTypeTrends[petType] = SeriesTrend(series)
	}

	s.TopPetTypes = s.TopPetTypes[:0]
	for _, petType := range allPetTypes() {
		if count := s.PetTypeStats[petType]; count > 0 {
			s.TopPetTypes = append(s.TopPetTypes, RankedPetType{
				Type:  petType,
				Count: count,
				Trend: s.PetTypeTrends[petType],
			})
		}
	}
	// Stable sort keeps display order among equal counts.
	sort.SliceStable(s.TopPetTypes, func(i, j int) bool {
		return s.TopPetTypes[i].Count > s.TopPetTypes[j].Count
	})

	names := make([]RankedPetName, 0, len(s.PetNameStats))
	for name, stat := range s.PetNameStats {
		names = append(names, RankedPetName{
			Name:  name,
			Count: stat.Count,
			Type:  stat.Type,
			Trend: SeriesTrend(stat.Monthly),
		})
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].Count != names[j].Count {
			return names[i].Count > names[j].Count
		}
		return names[i].Name < names[j].Name
	})
	if len(names) > maxTopPetNames {
		names = names[:maxTopPetNames]
	}
	s.TopPetNames = names
}

// allPetTypes is KnownPetTypes followed by Unknown
func allPetTypes() []string {
	types := make([]string, 0, len(models.KnownPetTypes)+1)
	types = append(types, models.KnownPetTypes...)
	return append(types, unknownLabel)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
