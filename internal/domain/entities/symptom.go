package entities

// SymptomTag is the canonical identifier for a self-reported symptom.
type SymptomTag string

const (
	SymptomBleeding      SymptomTag = "bleeding"
	SymptomFever         SymptomTag = "fever"
	SymptomPain          SymptomTag = "pain"
	SymptomBreastPain    SymptomTag = "breast_pain"
	SymptomUrinationPain SymptomTag = "urination_pain"
	SymptomCramping      SymptomTag = "cramping"
	SymptomLowMood       SymptomTag = "low_mood"
	SymptomTired         SymptomTag = "tired"
	SymptomNausea        SymptomTag = "nausea"
	SymptomHeadache      SymptomTag = "headache"
)

// AllSymptomTags returns the vocabulary in declaration order.
func AllSymptomTags() []SymptomTag {
	return []SymptomTag{
		SymptomBleeding,
		SymptomFever,
		SymptomPain,
		SymptomBreastPain,
		SymptomUrinationPain,
		SymptomCramping,
		SymptomLowMood,
		SymptomTired,
		SymptomNausea,
		SymptomHeadache,
	}
}

// IsValid checks if the tag is part of the vocabulary.
func (t SymptomTag) IsValid() bool {
	for _, known := range AllSymptomTags() {
		if t == known {
			return true
		}
	}
	return false
}

// RiskTier represents the triage outcome for a symptom report.
type RiskTier string

const (
	RiskTierGreen  RiskTier = "green"
	RiskTierYellow RiskTier = "yellow"
	RiskTierRed    RiskTier = "red"
)

// Rank orders tiers so that green < yellow < red.
func (r RiskTier) Rank() int {
	switch r {
	case RiskTierRed:
		return 2
	case RiskTierYellow:
		return 1
	default:
		return 0
	}
}

// IsValid checks if the tier is one of the defined constants.
func (r RiskTier) IsValid() bool {
	switch r {
	case RiskTierGreen, RiskTierYellow, RiskTierRed:
		return true
	}
	return false
}

// TagStrings converts tags to plain strings for storage and logging.
func TagStrings(tags []SymptomTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
