package analytics

import "strconv"

// trendWindow is the number of trailing monthly buckets both trend formulas look at
const trendWindow = 3

// BranchTrend returns the branch-level trend percentage of the last three buckets,
// formatted with one decimal. The divisor is clamped to 1, so a window starting
// at zero reports the raw growth count times 100; dashboards rely on that number.
func BranchTrend(monthly MonthlySeries) string {
	window := monthly.Tail(trendWindow)
	first, last := window[0], window[len(window)-1]

	if window[0] == 0 && window[1] == 0 && window[2] == 0 {
		return "0.0"
	}

	divisor := first
	if divisor < 1 {
		divisor = 1
	}
	pct := float64(last-first) / float64(divisor) * 100
	return strconv.FormatFloat(pct, 'f', 1, 64)
}

// SeriesTrend is the pet-type and pet-name trend over the same window.
// Unlike BranchTrend it reports 0 whenever the first bucket is empty.
func SeriesTrend(monthly MonthlySeries) float64 {
	window := monthly.Tail(trendWindow)
	first, last := window[0], window[len(window)-1]
	if first == 0 {
		return 0
	}
	return float64(last-first) / float64(first) * 100
}
