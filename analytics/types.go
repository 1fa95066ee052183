// Package analytics turns appointment records into per-branch metrics,
// trend indicators and a next-period demand forecast for the dashboard.
//
// The pipeline is stateless and request scoped:
//
//	records -> Aggregator -> trend helpers -> ForecastEngine -> BranchReport
//
// Two values are randomised on purpose: the demo revenue/satisfaction figures
// of completed appointments and the forecast fallback when the heuristic
// yields zero. Both draw from an injectable RandomSource.
package analytics

import "time"

// MonthsPerYear is the number of monthly buckets in every series
const MonthsPerYear = 12

// MonthlySeries counts events per calendar month, 0=Jan..11=Dec, all years folded together
type MonthlySeries [MonthsPerYear]int

// Sum returns the total of all buckets
func (m MonthlySeries) Sum() int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// Tail returns the last n buckets in calendar order
func (m MonthlySeries) Tail(n int) []int {
	if n > MonthsPerYear {
		n = MonthsPerYear
	}
	out := make([]int, n)
	copy(out, m[MonthsPerYear-n:])
	return out
}

// PetNameStat tracks one pet name within a branch
type PetNameStat struct {
	Count   int           `json:"count"`
	Monthly MonthlySeries `json:"monthly"`
	Type    string        `json:"type"`
}

// RankedPetType is an entry of BranchMetricsSnapshot.TopPetTypes
type RankedPetType struct {
	Type  string  `json:"type"`
	Count int     `json:"count"`
	Trend float64 `json:"trend"`
}

// RankedPetName is an entry of BranchMetricsSnapshot.TopPetNames
type RankedPetName struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Type  string  `json:"type"`
	Trend float64 `json:"trend"`
}

// BranchMetricsSnapshot is the aggregated view of one branch.
// It is recomputed on demand and never persisted.
type BranchMetricsSnapshot struct {
	Total          int                      `json:"total"`
	Monthly        MonthlySeries            `json:"monthly"`
	Statuses       map[string]int           `json:"statuses"`
	PetTypeStats   map[string]int           `json:"petTypeStats"`
	PetTypeMonthly map[string]MonthlySeries `json:"petTypeMonthly"`
	PetNameStats   map[string]*PetNameStat  `json:"petNameStats"`
	PetTypeTrends  map[string]float64       `json:"petTypeTrends"`
	Trend          string                   `json:"trend"`
	TopPetTypes    []RankedPetType          `json:"topPetTypes"`
	TopPetNames    []RankedPetName          `json:"topPetNames"`

	// Demo figures, randomised per completed appointment
	Revenue         float64 `json:"revenue"`
	RevenueDisplay  string  `json:"revenueDisplay"`
	AvgSatisfaction float64 `json:"avgSatisfaction"`

	completed       int
	satisfactionSum float64
}

// PetNamePrediction is a per-name forecast entry
type PetNamePrediction struct {
	Count int    `json:"count"`
	Type  string `json:"type"`
}

// ForecastResult is the next-period prediction for one branch
type ForecastResult struct {
	Total           int                          `json:"total"`
	ByPetType       map[string]int               `json:"byPetType"`
	ByPetName       map[string]PetNamePrediction `json:"byPetName"`
	MostPopularType string                       `json:"mostPopularType"`
}

// BranchReport is the payload of GET /api/analytics/branch
type BranchReport struct {
	CurrentMetrics  map[string]*BranchMetricsSnapshot `json:"currentMetrics"`
	Predictions     map[string]*ForecastResult        `json:"predictions"`
	GeneratedAt     time.Time                         `json:"generatedAt"`
	DataUnavailable bool                              `json:"dataUnavailable,omitempty"`
}

// BranchDetail is the payload of GET /api/analytics/branch/{branch}
type BranchDetail struct {
	Branch         string                 `json:"branch"`
	CurrentMetrics *BranchMetricsSnapshot `json:"currentMetrics"`
	Prediction     *ForecastResult        `json:"prediction"`
	GeneratedAt    time.Time              `json:"generatedAt"`
}

// PetTypeTotals is the byPetType entry of PetTypePredictions
type PetTypeTotals struct {
	Total    int            `json:"total"`
	ByBranch map[string]int `json:"byBranch"`
}

// BranchPetTypes is the byBranch entry of PetTypePredictions
type BranchPetTypes struct {
	BranchName string         `json:"branchName"`
	PetTypes   map[string]int `json:"petTypes"`
}

// Prediction sources reported by PetTypePredictions.Source
const (
	SourceHeuristic = "heuristic"
	SourceModel     = "model"
)

// PetTypePredictions is the payload of GET /api/analytics/pet-type-predictions.
// ByPetType and ByBranch are two projections of the same branch -> type counts.
type PetTypePredictions struct {
	ByPetType   map[string]*PetTypeTotals  `json:"byPetType"`
	ByBranch    map[string]*BranchPetTypes `json:"byBranch"`
	Source      string                     `json:"source"`
	IsMockData  bool                       `json:"isMockData"`
	Error       string                     `json:"error,omitempty"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

// BranchSeries is the per-branch input handed to an external forecaster
type BranchSeries struct {
	Monthly        MonthlySeries            `json:"monthly"`
	PetTypeMonthly map[string]MonthlySeries `json:"petTypeMonthly"`
}

// ForecastInput is the document written to an external forecaster
type ForecastInput struct {
	Branches       map[string]BranchSeries `json:"branches"`
	PetTypes       []string                `json:"petTypes"`
	ForecastMonth  int                     `json:"forecastMonth"` // 0=Jan
	GeneratedAtUTC time.Time               `json:"generatedAt"`
}
