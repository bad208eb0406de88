package insights

import (
	"context"
	"fmt"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
)

// MockInsightProvider returns canned insights so the enrichment path can run
// without an API key.
type MockInsightProvider struct{}

// NewMockInsightProvider creates a new mock insight provider
func NewMockInsightProvider() providers.InsightProvider {
	return &MockInsightProvider{}
}

// Name identifies the provider in logs and metrics.
func (m *MockInsightProvider) Name() string {
	return "mock"
}

// Enrich derives a fixed insight from the tier and phase
func (m *MockInsightProvider) Enrich(ctx context.Context, in entities.InsightContext) ([]entities.Insight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	insights := make([]entities.Insight, 0, 2)
	switch in.RiskTier {
	case entities.RiskTierRed:
		insights = append(insights, entities.Insight{
			Title: "Keep your phone close",
			Body:  "A health worker may call you back. Keep someone with you until you have been seen.",
		})
	case entities.RiskTierYellow:
		insights = append(insights, entities.Insight{
			Title: "Track this symptom",
			Body:  "Note when it started and whether it is getting better so you can describe it at your next visit.",
		})
	}

	if in.Phase != "" {
		insights = append(insights, entities.Insight{
			Title: in.Phase,
			Body:  fmt.Sprintf("You are about %d%% of the way through the expected recovery.", in.Percent),
		})
	}

	if len(insights) == 0 {
		insights = append(insights, entities.Insight{
			Title: "Keep checking in",
			Body:  "Regular check-ins help us notice changes early.",
		})
	}

	return insights, nil
}
