package recovery

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

// Milestones returns a fresh copy of the delivery type's milestones with
// achieved and upcoming derived from elapsed. Only the first unachieved
// milestone can be upcoming, and only inside the look-ahead window.
func (t *Timeline) Milestones(elapsed int, dt entities.DeliveryType) []entities.Milestone {
	if elapsed < 0 {
		elapsed = 0
	}
	src := t.schedule(dt).milestones
	out := make([]entities.Milestone, len(src))
	copy(out, src)

	nextFound := false
	for i := range out {
		out[i].Achieved = elapsed >= out[i].DayOffset
		if out[i].Achieved || nextFound {
			continue
		}
		nextFound = true
		until := out[i].DayOffset - elapsed
		out[i].Upcoming = until > 0 && until <= t.lookAheadDays
	}
	return out
}
