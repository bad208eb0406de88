package triage

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

var redFlags = map[entities.SymptomTag]struct{}{
	entities.SymptomBleeding:   {},
	entities.SymptomFever:      {},
	entities.SymptomBreastPain: {},
}

var yellowFlags = map[entities.SymptomTag]struct{}{
	entities.SymptomPain:          {},
	entities.SymptomUrinationPain: {},
	entities.SymptomCramping:      {},
	entities.SymptomLowMood:       {},
}

// Classify returns the highest tier any tag maps to. The red set is checked
// first; tags outside both sets are green.
func Classify(tags []entities.SymptomTag) entities.RiskTier {
	for _, tag := range tags {
		if _, ok := redFlags[tag]; ok {
			return entities.RiskTierRed
		}
	}
	for _, tag := range tags {
		if _, ok := yellowFlags[tag]; ok {
			return entities.RiskTierYellow
		}
	}
	return entities.RiskTierGreen
}

// tierOf returns the tier a flagged tag maps to; ok is false for tags that
// are green on their own.
func tierOf(tag entities.SymptomTag) (entities.RiskTier, bool) {
	if _, ok := redFlags[tag]; ok {
		return entities.RiskTierRed, true
	}
	if _, ok := yellowFlags[tag]; ok {
		return entities.RiskTierYellow, true
	}
	return entities.RiskTierGreen, false
}

// FirstRedFlag returns the first tag in tags that forces an urgent response.
func FirstRedFlag(tags []entities.SymptomTag) (entities.SymptomTag, bool) {
	for _, tag := range tags {
		if IsRedFlag(tag) {
			return tag, true
		}
	}
	return "", false
}

// IsRedFlag reports whether a single tag forces an urgent response.
func IsRedFlag(tag entities.SymptomTag) bool {
	_, ok := redFlags[tag]
	return ok
}
