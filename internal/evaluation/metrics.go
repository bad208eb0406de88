package evaluation

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

// TagRecall is the fraction of expected tags the extractor found.
// An empty expectation is satisfied only by an empty extraction.
func TagRecall(expected, actual []entities.SymptomTag) float64 {
	if len(expected) == 0 {
		if len(actual) == 0 {
			return 1.0
		}
		return 0.0
	}
	return float64(overlap(expected, actual)) / float64(len(expected))
}

// TagPrecision is the fraction of extracted tags that were expected.
func TagPrecision(expected, actual []entities.SymptomTag) float64 {
	if len(actual) == 0 {
		if len(expected) == 0 {
			return 1.0
		}
		return 0.0
	}
	return float64(overlap(expected, actual)) / float64(len(actual))
}

// UnderTriaged reports whether the actual tier ranks below the expected one.
func UnderTriaged(expected, actual entities.RiskTier) bool {
	return actual.Rank() < expected.Rank()
}

func overlap(expected, actual []entities.SymptomTag) int {
	want := make(map[entities.SymptomTag]struct{}, len(expected))
	for _, t := range expected {
		want[t] = struct{}{}
	}
	found := 0
	for _, t := range actual {
		if _, ok := want[t]; ok {
			found++
			delete(want, t)
		}
	}
	return found
}
