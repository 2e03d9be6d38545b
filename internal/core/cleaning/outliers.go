package cleaning

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// removePricePerSqftOutliers оставляет в каждой группе локации только строки,
// у которых price_per_sqft строго внутри (mean - std, mean + std).
// Группы выдаются по возрастанию ключа, порядок строк внутри группы сохраняется.
func removePricePerSqftOutliers(rows []parsedListing) []parsedListing {
	groups := make(map[string][]parsedListing)
	keys := make([]string, 0)
	for _, r := range rows {
		if _, seen := groups[r.location]; !seen {
			keys = append(keys, r.location)
		}
		groups[r.location] = append(groups[r.location], r)
	}
	sort.Strings(keys)

	out := make([]parsedListing, 0, len(rows))
	for _, key := range keys {
		out = append(out, filterGroup(groups[key])...)
	}
	return out
}

func filterGroup(group []parsedListing) []parsedListing {
	// у одной строки выборочное отклонение не определено
	if len(group) < 2 {
		return group
	}

	values := make(stats.Float64Data, len(group))
	for i, r := range group {
		values[i] = r.pricePerSqft
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return group
	}
	std, err := stats.StandardDeviationSample(values)
	if err != nil || math.IsNaN(std) || std == 0 {
		return group
	}

	low, high := mean-std, mean+std
	kept := make([]parsedListing, 0, len(group))
	for _, r := range group {
		if r.pricePerSqft > low && r.pricePerSqft < high {
			kept = append(kept, r)
		}
	}
	return kept
}
