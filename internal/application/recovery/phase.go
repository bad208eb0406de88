package recovery

import (
	"math"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// ElapsedDays returns whole days between the delivery date and now. A nil
// date or a date in the future yields 0.
func ElapsedDays(deliveryDate *time.Time, now time.Time) int {
	if deliveryDate == nil {
		return 0
	}
	days := int(math.Floor(now.Sub(*deliveryDate).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// Phase returns the bucket name elapsed falls into. Negative input clamps to 0.
func (t *Timeline) Phase(elapsed int, dt entities.DeliveryType) string {
	if elapsed < 0 {
		elapsed = 0
	}
	s := t.schedule(dt)
	for _, p := range s.phases {
		if p.open || elapsed <= p.untilDay {
			return p.name
		}
	}
	return s.phases[len(s.phases)-1].name
}

// Percent is round(100*elapsed/expected) clamped to [0,100].
func (t *Timeline) Percent(elapsed int, dt entities.DeliveryType) int {
	if elapsed <= 0 {
		return 0
	}
	expected := t.schedule(dt).expectedDays
	pct := int(math.Round(100 * float64(elapsed) / float64(expected)))
	if pct > 100 {
		return 100
	}
	return pct
}
