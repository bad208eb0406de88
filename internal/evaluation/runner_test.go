package evaluation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

type fixedAssessor struct {
	tier entities.RiskTier
	tags []entities.SymptomTag
}

func (f fixedAssessor) Assess(string, entities.Language) triage.Assessment {
	return triage.Assessment{Tier: f.tier, Tags: f.tags}
}

func TestRunner_Aggregates(t *testing.T) {
	cases := []GoldenCase{
		{ID: "r1", Text: "bleeding", ExpectedTier: entities.RiskTierRed, ExpectedTags: tags("bleeding")},
		{ID: "y1", Text: "cramps", ExpectedTier: entities.RiskTierYellow, ExpectedTags: tags("cramping")},
	}
	runner := NewRunner(fixedAssessor{tier: entities.RiskTierYellow, tags: tags("cramping")})

	summary, err := runner.Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalCases)
	assert.InDelta(t, 0.5, summary.TierAccuracy, floatTolerance)
	assert.InDelta(t, 0.5, summary.AvgTagRecall, floatTolerance)
	assert.Equal(t, 1, summary.UnderTriaged)
	assert.Equal(t, 1, summary.RedUnderTriaged)
	require.Len(t, summary.Mismatches, 1)
	assert.Equal(t, "r1", summary.Mismatches[0].CaseID)
	assert.Equal(t, 1, summary.ByTier[entities.RiskTierYellow].Correct)
	assert.InDelta(t, 0.0, summary.ByTier[entities.RiskTierRed].Accuracy, floatTolerance)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(fixedAssessor{}).Run(ctx, []GoldenCase{{ID: "c1", Text: "x", ExpectedTier: entities.RiskTierGreen}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_RepositoryCasesPassGuardrails(t *testing.T) {
	rules, err := triage.DefaultRules()
	require.NoError(t, err)
	cases, err := LoadGoldenCases(filepath.Join("..", "..", "config", "golden_cases.yaml"))
	require.NoError(t, err)

	summary, err := NewRunner(triage.NewEngine(rules, nil)).Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Zero(t, summary.RedUnderTriaged)
	assert.Empty(t, NewGuardrails(GuardrailConfig{}).Check(summary), "mismatches: %+v", summary.Mismatches)
}
