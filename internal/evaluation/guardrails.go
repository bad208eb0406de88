package evaluation

import "fmt"

// GuardrailConfig sets the minimum quality a rule change must keep.
// Red cases classified below red always fail regardless of config.
type GuardrailConfig struct {
	MinTierAccuracy float64
	MinTagRecall    float64
	MaxUnderTriaged int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinTierAccuracy <= 0 {
		config.MinTierAccuracy = 0.9
	}
	if config.MinTagRecall <= 0 {
		config.MinTagRecall = 0.8
	}
	if config.MaxUnderTriaged < 0 {
		config.MaxUnderTriaged = 0
	}
	return &Guardrails{config: config}
}

// Check returns one violation per failed guardrail; empty means the run passes.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if s.RedUnderTriaged > 0 {
		violations = append(violations, fmt.Sprintf("%d red case(s) classified below red", s.RedUnderTriaged))
	}
	if s.UnderTriaged > g.config.MaxUnderTriaged {
		violations = append(violations, fmt.Sprintf("%d under-triaged case(s), limit %d", s.UnderTriaged, g.config.MaxUnderTriaged))
	}
	if s.TierAccuracy < g.config.MinTierAccuracy {
		violations = append(violations, fmt.Sprintf("tier accuracy %.3f below %.3f", s.TierAccuracy, g.config.MinTierAccuracy))
	}
	if s.AvgTagRecall < g.config.MinTagRecall {
		violations = append(violations, fmt.Sprintf("tag recall %.3f below %.3f", s.AvgTagRecall, g.config.MinTagRecall))
	}
	return violations
}
