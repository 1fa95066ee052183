package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "petcare-analytics/database/models_pkg"
)

// march is a forecast date whose next month (April) is out of season
var march = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestBranchTrend(t *testing.T) {
	tests := []struct {
		name string
		tail [3]int
		want string
	}{
		{"all zero", [3]int{0, 0, 0}, "0.0"},
		{"doubling", [3]int{5, 5, 10}, "100.0"},
		{"zero start clamps divisor", [3]int{0, 0, 1}, "100.0"},
		{"zero start raw growth", [3]int{0, 5, 3}, "300.0"},
		{"decline", [3]int{2, 1, 1}, "-50.0"},
		{"flat", [3]int{4, 9, 4}, "0.0"},
		{"one decimal", [3]int{3, 0, 4}, "33.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MonthlySeries
			m[0] = 50 // outside the window
			copy(m[9:], tt.tail[:])
			assert.Equal(t, tt.want, BranchTrend(m))
		})
	}
}

func TestSeriesTrend(t *testing.T) {
	var m MonthlySeries
	m[9], m[11] = 2, 3
	assert.InDelta(t, 50.0, SeriesTrend(m), 1e-9)

	m[9] = 0
	assert.Zero(t, SeriesTrend(m), "empty first bucket reports zero")
}

func TestWeightedAverageAndGrowth(t *testing.T) {
	assert.InDelta(t, 91.0/21.0, WeightedAverage([]int{1, 2, 3, 4, 5, 6}), 1e-9)
	assert.Zero(t, WeightedAverage(nil))

	assert.InDelta(t, 1.0, GrowthRate([]int{1, 1, 1, 2, 2, 2}), 1e-9)
	assert.InDelta(t, -0.5, GrowthRate([]int{4, 4, 4, 2, 2, 2}), 1e-9)
	assert.Equal(t, 1.0, GrowthRate([]int{0, 0, 0, 1, 1, 1}))
	assert.Zero(t, GrowthRate([]int{0, 0, 0, 0, 0, 0}))
}

func TestNextMonthIndexAndSeason(t *testing.T) {
	engine := NewForecastEngine(nil, nil, 0)

	assert.Equal(t, 0, NextMonthIndex(time.Date(2026, time.December, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, NextMonthIndex(march))

	assert.Equal(t, 1.0, engine.SeasonalFactor(march))
	assert.Equal(t, DefaultSeasonalFactor, engine.SeasonalFactor(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1.0, engine.SeasonalFactor(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)))
}

func TestForecastTotal(t *testing.T) {
	s := NewEmptySnapshot()
	for i := 6; i < MonthsPerYear; i++ {
		s.Monthly[i] = 10
	}
	engine := NewForecastEngine(fixedSource{}, nil, 0)

	assert.Equal(t, 10, engine.Forecast(s, march).Total)
	// May is in season: round(10 * 1.1)
	assert.Equal(t, 11, engine.Forecast(s, time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)).Total)
}

func TestForecastZeroFallsBackToSmallPositive(t *testing.T) {
	s := NewEmptySnapshot()

	stub := NewForecastEngine(fixedSource{n: 2}, nil, 0)
	assert.Equal(t, 3, stub.Forecast(s, march).Total)

	engine := NewForecastEngine(NewRandomSource(42), nil, 0)
	for i := 0; i < 200; i++ {
		total := engine.Forecast(s, march).Total
		require.GreaterOrEqual(t, total, 1)
		require.LessOrEqual(t, total, fallbackMax)
	}

	noRng := NewForecastEngine(nil, nil, 0)
	assert.Zero(t, noRng.Forecast(s, march).Total)
}

func TestForecastPerTypeAndName(t *testing.T) {
	s := NewEmptySnapshot()
	s.PetTypeStats[models.PetTypeDog] = 4
	s.PetTypeTrends[models.PetTypeDog] = 50
	s.PetTypeStats[models.PetTypeCat] = 1
	s.PetTypeTrends[models.PetTypeCat] = -100
	s.TopPetTypes = []RankedPetType{
		{Type: models.PetTypeDog, Count: 4, Trend: 50},
		{Type: models.PetTypeCat, Count: 1, Trend: -100},
	}
	s.TopPetNames = []RankedPetName{{Name: "Rex", Count: 2, Type: models.PetTypeDog, Trend: 100}}

	result := NewForecastEngine(fixedSource{}, nil, 0).Forecast(s, march)

	assert.Equal(t, 6, result.ByPetType[models.PetTypeDog]) // 4 * 1.5
	assert.Equal(t, 1, result.ByPetType[models.PetTypeCat], "clamped to at least one")
	assert.Equal(t, 0, result.ByPetType[models.PetTypeFish])
	_, hasUnknown := result.ByPetType[models.PetTypeUnknown]
	assert.False(t, hasUnknown)
	for _, petType := range models.KnownPetTypes {
		_, ok := result.ByPetType[petType]
		assert.True(t, ok, petType)
	}

	// 2 * (1 + 100/200) * (1 + 50/200) = 3.75
	assert.Equal(t, PetNamePrediction{Count: 4, Type: models.PetTypeDog}, result.ByPetName["Rex"])
	assert.Equal(t, models.PetTypeDog, result.MostPopularType)
}

func TestForecastMostPopularTypeDefaultsToUnknown(t *testing.T) {
	result := NewForecastEngine(nil, nil, 0).Forecast(NewEmptySnapshot(), march)
	assert.Equal(t, models.PetTypeUnknown, result.MostPopularType)
	assert.Empty(t, result.ByPetName)
}

func TestAtLeastOne(t *testing.T) {
	assert.Equal(t, 1, atLeastOne(0))
	assert.Equal(t, 1, atLeastOne(-3))
	assert.Equal(t, 1, atLeastOne(math.NaN()))
	assert.Equal(t, 3, atLeastOne(2.5))
}

func TestProjectPetTypesViewsAgree(t *testing.T) {
	counts := map[string]map[string]int{
		"Colombo Branch": {models.PetTypeDog: 5, models.PetTypeCat: 2},
		"Kandy Branch":   {models.PetTypeDog: 1, "Hamster": 3},
		"Nowhere":        {models.PetTypeDog: 99},
	}

	out := ProjectPetTypes(testBranches, counts)

	assert.Equal(t, SourceHeuristic, out.Source)
	require.Len(t, out.ByBranch, len(testBranches))
	assert.Equal(t, 6, out.ByPetType[models.PetTypeDog].Total)
	assert.Equal(t, 3, out.ByPetType["Hamster"].Total)
	assert.Equal(t, 0, out.ByPetType[models.PetTypeRabbit].Total)

	byTypeSum, byBranchSum := 0, 0
	for petType, totals := range out.ByPetType {
		rowSum := 0
		for branch, n := range totals.ByBranch {
			rowSum += n
			assert.Equal(t, n, out.ByBranch[branch].PetTypes[petType], "%s/%s", branch, petType)
		}
		assert.Equal(t, totals.Total, rowSum, petType)
		byTypeSum += totals.Total
	}
	for branch, entry := range out.ByBranch {
		assert.Equal(t, branch, entry.BranchName)
		for _, n := range entry.PetTypes {
			byBranchSum += n
		}
	}
	assert.Equal(t, byTypeSum, byBranchSum)
}

func TestPredictionCountsCopies(t *testing.T) {
	predictions := map[string]*ForecastResult{
		"Galle Branch": {ByPetType: map[string]int{models.PetTypeFish: 2}},
	}
	counts := PredictionCounts(predictions)
	counts["Galle Branch"][models.PetTypeFish] = 9

	assert.Equal(t, 2, predictions["Galle Branch"].ByPetType[models.PetTypeFish])
}
