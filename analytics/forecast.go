package analytics

import (
	"math"
	"time"

	models "petcare-analytics/database/models_pkg"
)

// forecastWindow is the number of trailing monthly buckets the forecast weighs
const forecastWindow = 6

// DefaultSeasonalMonths are May, Jun and Jul (0-based), the busy grooming season
var DefaultSeasonalMonths = []int{4, 5, 6}

// DefaultSeasonalFactor boosts forecasts whose target month is in season
const DefaultSeasonalFactor = 1.1

// ForecastEngine predicts next-month demand from a branch snapshot.
// It is a weighted-average + growth-rate + seasonal heuristic, not a fitted model.
type ForecastEngine struct {
	rng            RandomSource
	seasonalMonths map[int]bool
	seasonalFactor float64
}

// NewForecastEngine creates an engine. Empty seasonalMonths or a non-positive
// factor select the defaults.
func NewForecastEngine(rng RandomSource, seasonalMonths []int, seasonalFactor float64) *ForecastEngine {
	if len(seasonalMonths) == 0 {
		seasonalMonths = DefaultSeasonalMonths
	}
	if seasonalFactor <= 0 {
		seasonalFactor = DefaultSeasonalFactor
	}
	months := make(map[int]bool, len(seasonalMonths))
	for _, m := range seasonalMonths {
		months[m] = true
	}
	return &ForecastEngine{
		rng:            rng,
		seasonalMonths: months,
		seasonalFactor: seasonalFactor,
	}
}

// SeasonalFactor returns the multiplier for the month following now
func (e *ForecastEngine) SeasonalFactor(now time.Time) float64 {
	if e.seasonalMonths[NextMonthIndex(now)] {
		return e.seasonalFactor
	}
	return 1.0
}

// NextMonthIndex is the 0-based calendar month after now, wrapping December to January
func NextMonthIndex(now time.Time) int {
	return int(now.Month()) % MonthsPerYear
}

// Forecast produces the next-period prediction for one branch
func (e *ForecastEngine) Forecast(s *BranchMetricsSnapshot, now time.Time) *ForecastResult {
	seasonal := e.SeasonalFactor(now)

	result := &ForecastResult{
		Total:           e.forecastTotal(s.Monthly, seasonal),
		ByPetType:       make(map[string]int, len(models.KnownPetTypes)+1),
		ByPetName:       make(map[string]PetNamePrediction),
		MostPopularType: unknownLabel,
	}

	for _, petType := range models.KnownPetTypes {
		result.ByPetType[petType] = 0
	}
	for _, petType := range allPetTypes() {
		count := s.PetTypeStats[petType]
		if count <= 0 {
			continue
		}
		factor := 1 + s.PetTypeTrends[petType]/100
		result.ByPetType[petType] = atLeastOne(float64(count) * factor * seasonal)
	}

	for _, name := range s.TopPetNames {
		combined := (1 + name.Trend/200) * (1 + s.PetTypeTrends[name.Type]/200)
		result.ByPetName[name.Name] = PetNamePrediction{
			Count: atLeastOne(float64(name.Count) * combined * seasonal),
			Type:  name.Type,
		}
	}

	if len(s.TopPetTypes) > 0 {
		result.MostPopularType = s.TopPetTypes[0].Type
	}
	return result
}

// ForecastAll forecasts every snapshot in the map
func (e *ForecastEngine) ForecastAll(snapshots map[string]*BranchMetricsSnapshot, now time.Time) map[string]*ForecastResult {
	out := make(map[string]*ForecastResult, len(snapshots))
	for branch, s := range snapshots {
		out[branch] = e.Forecast(s, now)
	}
	return out
}

func (e *ForecastEngine) forecastTotal(monthly MonthlySeries, seasonal float64) int {
	recent := monthly.Tail(forecastWindow)
	trendValue := WeightedAverage(recent) * (1 + GrowthRate(recent))

	total := math.Round(trendValue * seasonal)
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		if e.rng == nil {
			return 0
		}
		return fallbackCount(e.rng)
	}
	return int(total)
}

// WeightedAverage weighs the i-th value (1-based) by i and divides by n(n+1)/2
func WeightedAverage(values []int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	var sum float64
	for i, v := range values {
		sum += float64(v) * float64(i+1)
	}
	return sum / float64(n*(n+1)/2)
}

// GrowthRate compares the mean of the first half of values with the second half.
// A zero first half reports 1 when the second half has any demand, else 0.
func GrowthRate(values []int) float64 {
	half := len(values) / 2
	if half == 0 {
		return 0
	}
	firstAvg := mean(values[:half])
	lastAvg := mean(values[len(values)-half:])
	if firstAvg != 0 {
		return (lastAvg - firstAvg) / firstAvg
	}
	if lastAvg > 0 {
		return 1
	}
	return 0
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

func atLeastOne(v float64) int {
	r := math.Round(v)
	if math.IsNaN(r) || r < 1 {
		return 1
	}
	return int(r)
}
