package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// Assessor classifies a message. *triage.Engine satisfies it.
type Assessor interface {
	Assess(text string, lang entities.Language) triage.Assessment
}

// Runner runs evaluation across a set of golden cases.
type Runner struct {
	assessor Assessor
}

func NewRunner(assessor Assessor) *Runner {
	return &Runner{assessor: assessor}
}

// Run assesses every case and aggregates the results. It stops early only
// when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cases []GoldenCase) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalCases: len(cases),
		ByTier:     make(map[entities.RiskTier]*TierSummary),
	}

	for _, gc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		assessment := r.assessor.Assess(gc.Text, gc.language())
		duration := time.Since(start)

		result := CaseResult{
			CaseID:       gc.ID,
			Text:         gc.Text,
			ExpectedTier: gc.ExpectedTier,
			ActualTier:   assessment.Tier,
			ActualTags:   assessment.Tags,
			TierMatch:    assessment.Tier == gc.ExpectedTier,
			TagRecall:    TagRecall(gc.ExpectedTags, assessment.Tags),
			TagPrecision: TagPrecision(gc.ExpectedTags, assessment.Tags),
			UnderTriaged: UnderTriaged(gc.ExpectedTier, assessment.Tier),
			Latency:      duration,
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res CaseResult) {
	s.AvgTagRecall += res.TagRecall
	s.AvgTagPrecision += res.TagPrecision
	s.AvgLatency += res.Latency
	if res.TierMatch {
		s.TierAccuracy++
	} else {
		s.Mismatches = append(s.Mismatches, res)
	}
	if res.UnderTriaged {
		s.UnderTriaged++
		if res.ExpectedTier == entities.RiskTierRed {
			s.RedUnderTriaged++
		}
	}

	if _, ok := s.ByTier[res.ExpectedTier]; !ok {
		s.ByTier[res.ExpectedTier] = &TierSummary{}
	}
	ts := s.ByTier[res.ExpectedTier]
	ts.Count++
	ts.AvgTagRecall += res.TagRecall
	if res.TierMatch {
		ts.Correct++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalCases > 0 {
		n := float64(s.TotalCases)
		s.TierAccuracy /= n
		s.AvgTagRecall /= n
		s.AvgTagPrecision /= n
		s.AvgLatency /= time.Duration(s.TotalCases)
	}

	for _, ts := range s.ByTier {
		if ts.Count > 0 {
			n := float64(ts.Count)
			ts.Accuracy = float64(ts.Correct) / n
			ts.AvgTagRecall /= n
		}
	}
}
