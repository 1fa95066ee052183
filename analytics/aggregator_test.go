package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "petcare-analytics/database/models_pkg"
)

var testBranches = []string{"Colombo Branch", "Kandy Branch", "Galle Branch", "Jaffna Branch"}

// fixedSource is a RandomSource that always returns the same values
type fixedSource struct {
	n int
	f float64
}

func (s fixedSource) Intn(n int) int {
	if s.n >= n {
		return n - 1
	}
	return s.n
}

func (s fixedSource) Float64() float64 { return s.f }

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
	return &d
}

func appt(branch string, when *time.Time, status, petName, reason string) models.Appointment {
	return models.Appointment{
		ID:              uuid.New(),
		Branch:          branch,
		AppointmentDate: when,
		Status:          status,
		PetName:         petName,
		Reason:          reason,
	}
}

func TestAggregateShopFlowAppointment(t *testing.T) {
	agg := NewAggregator(testBranches, nil, fixedSource{n: 0, f: 0}, time.UTC)

	snapshots := agg.Aggregate([]models.Appointment{
		appt("Colombo Branch", date(2026, time.March, 15), models.StatusCompleted, "Buddy", "Interested in Dog: Labrador (₹500)"),
	})

	require.Len(t, snapshots, len(testBranches))
	colombo := snapshots["Colombo Branch"]
	require.NotNil(t, colombo)

	assert.Equal(t, 1, colombo.Total)
	assert.Equal(t, 1, colombo.Monthly[2])
	assert.Equal(t, 1, colombo.Statuses[models.StatusCompleted])
	assert.Equal(t, 1, colombo.PetTypeStats[models.PetTypeDog])
	assert.Equal(t, 1, colombo.PetTypeMonthly[models.PetTypeDog][2])
	assert.Equal(t, 1, colombo.PetNameStats["Buddy"].Count)
	assert.Equal(t, models.PetTypeDog, colombo.PetNameStats["Buddy"].Type)
	assert.Equal(t, "0.0", colombo.Trend)

	require.Len(t, colombo.TopPetTypes, 1)
	assert.Equal(t, models.PetTypeDog, colombo.TopPetTypes[0].Type)
	require.Len(t, colombo.TopPetNames, 1)
	assert.Equal(t, "Buddy", colombo.TopPetNames[0].Name)

	assert.Equal(t, float64(minRevenue), colombo.Revenue)
	assert.Equal(t, "₹1,000", colombo.RevenueDisplay)
	assert.Equal(t, minSatisfaction, colombo.AvgSatisfaction)

	for _, branch := range testBranches[1:] {
		s := snapshots[branch]
		require.NotNil(t, s, branch)
		assert.Zero(t, s.Total)
		assert.Equal(t, "0.0", s.Trend)
		assert.Empty(t, s.TopPetTypes)
	}
}

func TestAggregateEmptyInputIsShapeStable(t *testing.T) {
	snapshots := NewAggregator(testBranches, nil, nil, nil).Aggregate(nil)

	require.Len(t, snapshots, len(testBranches))
	for branch, s := range snapshots {
		for _, status := range models.KnownStatuses {
			_, ok := s.Statuses[status]
			assert.True(t, ok, "%s missing status %s", branch, status)
		}
		for _, petType := range append(append([]string{}, models.KnownPetTypes...), models.PetTypeUnknown) {
			_, ok := s.PetTypeStats[petType]
			assert.True(t, ok, "%s missing pet type %s", branch, petType)
			_, ok = s.PetTypeMonthly[petType]
			assert.True(t, ok, "%s missing monthly series for %s", branch, petType)
		}
		assert.Equal(t, "₹0", s.RevenueDisplay)
		assert.NotNil(t, s.TopPetNames)
	}
}

func TestAggregateSkipsUnknownBranchAndUndatedMonths(t *testing.T) {
	agg := NewAggregator(testBranches, nil, nil, time.UTC)

	snapshots := agg.Aggregate([]models.Appointment{
		appt("Mars Branch", date(2026, time.January, 1), models.StatusPending, "Rex", ""),
		appt("Kandy Branch", nil, models.StatusPending, "Rex", ""),
		appt("Kandy Branch", &time.Time{}, "Rescheduled", "", ""),
	})

	_, ok := snapshots["Mars Branch"]
	assert.False(t, ok)

	kandy := snapshots["Kandy Branch"]
	assert.Equal(t, 2, kandy.Total)
	assert.Zero(t, kandy.Monthly.Sum())
	assert.Equal(t, 1, kandy.Statuses[models.StatusPending])
	_, ok = kandy.Statuses["Rescheduled"]
	assert.False(t, ok)
	assert.Equal(t, 1, kandy.PetNameStats[models.PetTypeUnknown].Count)
	assert.Equal(t, 2, kandy.PetTypeStats[models.PetTypeUnknown])
}

func TestAggregateSumInvariants(t *testing.T) {
	catalog := models.NewPetTypeCatalog([]models.Pet{{Breed: "Persian", PetType: "Cat"}}, nil)
	agg := NewAggregator(testBranches, catalog, NewRandomSource(7), time.UTC)

	var appointments []models.Appointment
	statuses := models.KnownStatuses
	names := []string{"Persian", "Rex", "Coco", "Nemo", "Bunny", "Tweety", "Milo"}
	reasons := []string{"", "Interested in Cat: Persian", "Interested in fish: Goldfish", "checkup", "Interested in Rabbit: Lop"}
	for i := 0; i < 60; i++ {
		appointments = append(appointments, appt(
			testBranches[i%len(testBranches)],
			date(2025+i%2, time.Month(1+i%12), 1+i%27),
			statuses[i%len(statuses)],
			names[i%len(names)],
			reasons[i%len(reasons)],
		))
	}

	for branch, s := range agg.Aggregate(appointments) {
		typeSum, statusSum, nameSum := 0, 0, 0
		for _, n := range s.PetTypeStats {
			typeSum += n
		}
		for _, n := range s.Statuses {
			statusSum += n
		}
		for _, stat := range s.PetNameStats {
			nameSum += stat.Count
		}
		assert.Equal(t, s.Total, s.Monthly.Sum(), branch)
		assert.Equal(t, s.Total, typeSum, branch)
		assert.Equal(t, s.Total, statusSum, branch)
		assert.Equal(t, s.Total, nameSum, branch)

		for petType, series := range s.PetTypeMonthly {
			assert.Equal(t, s.PetTypeStats[petType], series.Sum(), "%s/%s", branch, petType)
		}
		assert.LessOrEqual(t, len(s.TopPetNames), maxTopPetNames)
		for i := 1; i < len(s.TopPetTypes); i++ {
			assert.GreaterOrEqual(t, s.TopPetTypes[i-1].Count, s.TopPetTypes[i].Count)
		}
		if s.Statuses[models.StatusCompleted] > 0 {
			assert.GreaterOrEqual(t, s.AvgSatisfaction, minSatisfaction)
			assert.LessOrEqual(t, s.AvgSatisfaction, maxSatisfaction)
		}
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	appointments := []models.Appointment{
		appt("Galle Branch", date(2026, time.October, 3), models.StatusConfirmed, "Rex", "Interested in Dog: Beagle"),
		appt("Galle Branch", date(2026, time.November, 3), models.StatusCompleted, "Rex", ""),
		appt("Galle Branch", date(2026, time.December, 3), models.StatusCompleted, "Kitty", "Interested in Cat: Siamese"),
	}
	agg := NewAggregator(testBranches, nil, fixedSource{n: 3, f: 0.25}, time.UTC)

	first := agg.Aggregate(appointments)
	second := agg.Aggregate(appointments)
	assert.Equal(t, first, second)
}

func TestTopPetNamesOrderingAndCap(t *testing.T) {
	var appointments []models.Appointment
	counts := map[string]int{"Ace": 3, "Bolt": 3, "Cleo": 2, "Duke": 2, "Echo": 1, "Fido": 1, "Gus": 4}
	for name, n := range counts {
		for i := 0; i < n; i++ {
			appointments = append(appointments, appt("Jaffna Branch", date(2026, time.June, 1), models.StatusPending, name, ""))
		}
	}

	s := NewAggregator(testBranches, nil, nil, time.UTC).Aggregate(appointments)["Jaffna Branch"]

	got := make([]string, 0, len(s.TopPetNames))
	for _, n := range s.TopPetNames {
		got = append(got, n.Name)
	}
	assert.Equal(t, []string{"Gus", "Ace", "Bolt", "Cleo", "Duke"}, got)
}

func TestInferPetType(t *testing.T) {
	catalog := models.NewPetTypeCatalog([]models.Pet{{Breed: "Labrador", PetType: "Dog"}}, nil)

	tests := []struct {
		name string
		appt models.Appointment
		want string
	}{
		{"explicit field wins", models.Appointment{PetType: "cat", Reason: "Interested in Dog: Lab"}, models.PetTypeCat},
		{"reason token", models.Appointment{Reason: "Interested in Bird: Parrot (₹800)"}, models.PetTypeBird},
		{"reason token case-insensitive", models.Appointment{Reason: "INTERESTED IN rabbit : Lop"}, models.PetTypeRabbit},
		{"catalog by pet name", models.Appointment{PetName: "labrador", Reason: "vaccination"}, models.PetTypeDog},
		{"unresolved", models.Appointment{PetName: "Rex", Reason: "vaccination"}, models.PetTypeUnknown},
		{"explicit unknown falls through", models.Appointment{PetType: "Unknown", PetName: "Labrador"}, models.PetTypeDog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferPetType(&tt.appt, catalog))
		})
	}
}

func TestMonthUsesConfiguredLocation(t *testing.T) {
	colombo := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on 31 Jan is already 1 Feb in Colombo.
	when := time.Date(2026, time.January, 31, 20, 0, 0, 0, time.UTC)

	s := NewAggregator(testBranches, nil, nil, colombo).Aggregate([]models.Appointment{
		appt("Colombo Branch", &when, models.StatusPending, "Rex", ""),
	})["Colombo Branch"]

	assert.Equal(t, 1, s.Monthly[1])
	assert.Zero(t, s.Monthly[0])
}
