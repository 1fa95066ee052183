package analytics

import (
	models "petcare-analytics/database/models_pkg"
)

// PredictionCounts extracts branch -> pet type -> predicted count from heuristic forecasts
func PredictionCounts(predictions map[string]*ForecastResult) map[string]map[string]int {
	counts := make(map[string]map[string]int, len(predictions))
	for branch, p := range predictions {
		types := make(map[string]int, len(p.ByPetType))
		for petType, n := range p.ByPetType {
			types[petType] = n
		}
		counts[branch] = types
	}
	return counts
}

// ProjectPetTypes builds both views of PetTypePredictions from one branch -> type
// count table, so byPetType and byBranch always agree. Every branch and every
// known pet type is present; extra types found in counts are carried along.
func ProjectPetTypes(branches []string, counts map[string]map[string]int) *PetTypePredictions {
	types := append([]string(nil), models.KnownPetTypes...)
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		seen[t] = true
	}
	for _, branch := range branches {
		for petType := range counts[branch] {
			if !seen[petType] {
				seen[petType] = true
				types = append(types, petType)
			}
		}
	}

	out := &PetTypePredictions{
		ByPetType: make(map[string]*PetTypeTotals, len(types)),
		ByBranch:  make(map[string]*BranchPetTypes, len(branches)),
		Source:    SourceHeuristic,
	}

	for _, petType := range types {
		out.ByPetType[petType] = &PetTypeTotals{ByBranch: make(map[string]int, len(branches))}
	}

	for _, branch := range branches {
		entry := &BranchPetTypes{
			BranchName: branch,
			PetTypes:   make(map[string]int, len(types)),
		}
		for _, petType := range types {
			n := counts[branch][petType]
			entry.PetTypes[petType] = n
			out.ByPetType[petType].ByBranch[branch] = n
			out.ByPetType[petType].Total += n
		}
		out.ByBranch[branch] = entry
	}
	return out
}
