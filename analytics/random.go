package analytics

import (
	"math/rand"
	"sync"
)

// RandomSource feeds the randomised demo figures and the zero-forecast fallback.
// *rand.Rand satisfies it; tests pass a fixed stub.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// Ranges of the demo figures attached to completed appointments
const (
	minRevenue      = 1000 // rupees
	maxRevenue      = 5000
	minSatisfaction = 3.5
	maxSatisfaction = 5.0

	// Zero forecasts are replaced by a value in [1, fallbackMax]
	fallbackMax = 5
)

// lockedSource serialises access to a *rand.Rand shared by concurrent requests
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a goroutine-safe source seeded with seed
func NewRandomSource(seed int64) RandomSource {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

func syntheticRevenue(rng RandomSource) float64 {
	return float64(minRevenue + rng.Intn(maxRevenue-minRevenue+1))
}

func syntheticSatisfaction(rng RandomSource) float64 {
	return minSatisfaction + rng.Float64()*(maxSatisfaction-minSatisfaction)
}

// fallbackCount returns a small positive placeholder so the dashboard never shows an empty forecast
func fallbackCount(rng RandomSource) int {
	return 1 + rng.Intn(fallbackMax)
}
