package recovery

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

// Input is everything a snapshot is computed from. Samples are newest first.
type Input struct {
	SenderID     string
	DeliveryType entities.DeliveryType
	ElapsedDays  int
	Samples      []*entities.RecoveryMetricSample
}

// Engine computes recovery snapshots from an immutable timeline and thresholds.
type Engine struct {
	timeline   *Timeline
	thresholds Thresholds
}

// NewEngine creates an engine.
func NewEngine(timeline *Timeline, thresholds Thresholds) *Engine {
	return &Engine{timeline: timeline, thresholds: thresholds}
}

// Thresholds returns the engine's cut-offs.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Compute builds a snapshot. It performs no I/O.
func (e *Engine) Compute(in Input) *entities.RecoverySnapshot {
	dt := in.DeliveryType
	if dt != entities.DeliveryCesarean {
		dt = entities.DeliveryVaginal
	}
	elapsed := in.ElapsedDays
	if elapsed < 0 {
		elapsed = 0
	}

	samples := in.Samples
	if w := e.thresholds.SampleWindow; w > 0 && len(samples) > w {
		samples = samples[:w]
	}
	var latest *entities.RecoveryMetricSample
	if len(samples) > 0 {
		latest = samples[0]
	}

	percent := e.timeline.Percent(elapsed, dt)
	means := RollingMeans(samples, e.thresholds.SampleWindow)

	return &entities.RecoverySnapshot{
		SenderID:     in.SenderID,
		DeliveryType: dt,
		ElapsedDays:  elapsed,
		Phase:        e.timeline.Phase(elapsed, dt),
		Percent:      percent,
		Milestones:   e.timeline.Milestones(elapsed, dt),
		Predictions:  Predict(means, percent, e.thresholds),
		Tips:         SelectTips(means, dt, elapsed, e.thresholds),
		TodaysFocus:  TodaysFocus(latest, elapsed, e.thresholds),
	}
}
