package entities

import "time"

// CareEventType identifies what happened.
type CareEventType string

const (
	CareEventTriageCompleted   CareEventType = "triage.completed"
	CareEventSnapshotRequested CareEventType = "snapshot.requested"
)

// CareEvent is published on the event bus after a triage or snapshot request.
// Subscribers use it for work that must stay off the response path.
type CareEvent struct {
	ID           string        `json:"id"`
	Type         CareEventType `json:"type"`
	SenderID     string        `json:"sender_id"`
	RiskTier     RiskTier      `json:"risk_tier,omitempty"`
	Tags         []SymptomTag  `json:"tags,omitempty"`
	Phase        string        `json:"phase,omitempty"`
	Percent      int           `json:"percent,omitempty"`
	DeliveryType DeliveryType  `json:"delivery_type,omitempty"`
	Language     Language      `json:"language,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// InsightContext is the input handed to an insight provider.
type InsightContext struct {
	SenderID     string
	Language     Language
	RiskTier     RiskTier
	Tags         []SymptomTag
	Phase        string
	Percent      int
	DeliveryType DeliveryType
}

// NewInsightContext builds the provider input from an event.
func NewInsightContext(event *CareEvent) InsightContext {
	return InsightContext{
		SenderID:     event.SenderID,
		Language:     event.Language,
		RiskTier:     event.RiskTier,
		Tags:         event.Tags,
		Phase:        event.Phase,
		Percent:      event.Percent,
		DeliveryType: event.DeliveryType,
	}
}
