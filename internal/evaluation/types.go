package evaluation

import (
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// GoldenCase is a labelled message with the triage outcome a clinician
// reviewer expects.
type GoldenCase struct {
	ID           string                `yaml:"id" json:"id"`
	Text         string                `yaml:"text" json:"text"`
	Language     string                `yaml:"language" json:"language"`
	ExpectedTier entities.RiskTier     `yaml:"expected_tier" json:"expected_tier"`
	ExpectedTags []entities.SymptomTag `yaml:"expected_tags" json:"expected_tags"`
	Difficulty   string                `yaml:"difficulty" json:"difficulty"` // easy, medium, hard
}

// CaseResult holds the evaluation outcome for a single case.
type CaseResult struct {
	CaseID       string                `json:"case_id"`
	Text         string                `json:"text"`
	ExpectedTier entities.RiskTier     `json:"expected_tier"`
	ActualTier   entities.RiskTier     `json:"actual_tier"`
	ActualTags   []entities.SymptomTag `json:"actual_tags"`
	TierMatch    bool                  `json:"tier_match"`
	TagRecall    float64               `json:"tag_recall"`
	TagPrecision float64               `json:"tag_precision"`
	UnderTriaged bool                  `json:"under_triaged"`
	Latency      time.Duration         `json:"latency_ns"`
}

// EvalSummary holds aggregate metrics across all golden cases.
type EvalSummary struct {
	TotalCases      int                                `json:"total_cases"`
	TierAccuracy    float64                            `json:"tier_accuracy"`
	AvgTagRecall    float64                            `json:"avg_tag_recall"`
	AvgTagPrecision float64                            `json:"avg_tag_precision"`
	UnderTriaged    int                                `json:"under_triaged"`
	RedUnderTriaged int                                `json:"red_under_triaged"`
	AvgLatency      time.Duration                      `json:"avg_latency_ns"`
	ByTier          map[entities.RiskTier]*TierSummary `json:"by_tier"`
	Mismatches      []CaseResult                       `json:"mismatches,omitempty"`
}

// TierSummary holds metrics grouped by expected tier.
type TierSummary struct {
	Count        int     `json:"count"`
	Correct      int     `json:"correct"`
	Accuracy     float64 `json:"accuracy"`
	AvgTagRecall float64 `json:"avg_tag_recall"`
}
