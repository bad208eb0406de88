package recovery

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

// Focus categories.
const (
	FocusCategoryEnergy    = "energy"
	FocusCategoryEmotional = "emotional"
	FocusCategorySleep     = "sleep"
	FocusCategoryPhase     = "phase"
)

// TodaysFocus picks exactly one focus. The latest sample is checked first,
// in order energy, mood, sleep; otherwise the elapsed-day default applies.
func TodaysFocus(latest *entities.RecoveryMetricSample, elapsed int, th Thresholds) entities.TodaysFocus {
	if latest != nil {
		switch {
		case latest.EnergyLevel <= th.FocusEnergyAtMost:
			return entities.TodaysFocus{
				Title:    "Restore Your Energy",
				Message:  "Your energy is very low today. Rest as much as you can and eat something nourishing.",
				Category: FocusCategoryEnergy,
			}
		case latest.MoodScore <= th.FocusMoodAtMost:
			return entities.TodaysFocus{
				Title:    "Emotional Wellbeing",
				Message:  "Today is a hard day. Reach out to someone you trust and be gentle with yourself.",
				Category: FocusCategoryEmotional,
			}
		case latest.SleepHours < th.FocusSleepBelow:
			return entities.TodaysFocus{
				Title:    "Sleep Recovery",
				Message:  "You slept very little. Take a nap today and let someone else watch the baby.",
				Category: FocusCategorySleep,
			}
		}
	}
	return phaseFocus(elapsed)
}

func phaseFocus(elapsed int) entities.TodaysFocus {
	switch {
	case elapsed <= 7:
		return entities.TodaysFocus{
			Title:    "Rest and Heal",
			Message:  "Your body is doing important healing work. Rest, feed your baby and stay hydrated.",
			Category: FocusCategoryPhase,
		}
	case elapsed <= 21:
		return entities.TodaysFocus{
			Title:    "Gentle Movement",
			Message:  "Short, gentle walks help circulation and mood. Stop if anything hurts.",
			Category: FocusCategoryPhase,
		}
	case elapsed <= 42:
		return entities.TodaysFocus{
			Title:    "Building Strength",
			Message:  "You are getting stronger. Add a little more activity each day if you feel well.",
			Category: FocusCategoryPhase,
		}
	default:
		return entities.TodaysFocus{
			Title:    "Maintaining Wellness",
			Message:  "Keep up healthy routines for sleep, food and movement.",
			Category: FocusCategoryPhase,
		}
	}
}
