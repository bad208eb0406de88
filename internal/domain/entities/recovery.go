package entities

import "time"

// RecoveryMetricSample is one self-reported daily check-in.
type RecoveryMetricSample struct {
	ID          string    `json:"id" db:"id"`
	SenderID    string    `json:"sender_id" db:"sender_id"`
	Date        time.Time `json:"date" db:"date"`
	EnergyLevel int       `json:"energy_level" db:"energy_level"` // 1-10
	MoodScore   int       `json:"mood_score" db:"mood_score"`     // 1-10
	SleepHours  float64   `json:"sleep_hours" db:"sleep_hours"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Milestone is a named recovery checkpoint tied to an elapsed-day offset.
type Milestone struct {
	DayOffset   int    `json:"day_offset"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Achieved    bool   `json:"achieved"`
	Upcoming    bool   `json:"upcoming"`
}

// PredictionCategory is the polarity of a prediction.
type PredictionCategory string

const (
	PredictionPositive  PredictionCategory = "positive"
	PredictionInsight   PredictionCategory = "insight"
	PredictionAttention PredictionCategory = "attention"
)

// Prediction is a qualitative statement derived from rolling metric means.
type Prediction struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    PredictionCategory `json:"category"`
}

// TipCategory groups recovery tips.
type TipCategory string

const (
	TipCategorySleep    TipCategory = "sleep"
	TipCategoryFamily   TipCategory = "family"
	TipCategoryHealth   TipCategory = "health"
	TipCategoryRecovery TipCategory = "recovery"
	TipCategorySupport  TipCategory = "support"
	TipCategoryTracking TipCategory = "tracking"
)

// Tip is an actionable suggestion.
type Tip struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    TipCategory `json:"category"`
}

// TodaysFocus is the single highest-priority message for the current day.
type TodaysFocus struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

// Insight is supplementary AI-generated guidance. It is never required for
// a correct snapshot.
type Insight struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// RecoverySnapshot is recomputed on every request and never persisted.
type RecoverySnapshot struct {
	SenderID     string       `json:"sender_id"`
	DeliveryType DeliveryType `json:"delivery_type"`
	ElapsedDays  int          `json:"elapsed_days"`
	Phase        string       `json:"phase"`
	Percent      int          `json:"percent"`
	Milestones   []Milestone  `json:"milestones"`
	Predictions  []Prediction `json:"predictions"`
	Tips         []Tip        `json:"tips"`
	TodaysFocus  TodaysFocus  `json:"todays_focus"`
	Insights     []Insight    `json:"insights,omitempty"`
}
