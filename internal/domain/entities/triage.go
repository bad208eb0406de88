package entities

import "time"

// InboundMessage is a short free-text report received from a sender.
type InboundMessage struct {
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ResponseKind describes which path produced a TriageResult.
type ResponseKind string

const (
	ResponseKindOnboarding ResponseKind = "onboarding"
	ResponseKindCommand    ResponseKind = "command"
	ResponseKindTriage     ResponseKind = "triage"
)

// TriageResult is the answer returned to the messaging transport.
type TriageResult struct {
	Kind        ResponseKind `json:"kind"`
	RiskTier    RiskTier     `json:"risk_tier"`
	MatchedTags []SymptomTag `json:"matched_tags"`
	Message     string       `json:"message"`
	Language    Language     `json:"language"`
}

// CheckInRecord is the persisted trace of a triaged message.
type CheckInRecord struct {
	ID        string    `json:"id" db:"id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Date      time.Time `json:"date" db:"date"`
	Tags      []string  `json:"tags" db:"tags"`
	RiskTier  RiskTier  `json:"risk_tier" db:"risk_tier"`
	RawText   string    `json:"raw_text" db:"raw_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
