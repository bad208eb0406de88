package recovery

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

var (
	tipStartTracking = entities.Tip{
		Title:       "Start Health Tracking",
		Description: "Record how you feel each day so we can suggest what will help most.",
		Category:    entities.TipCategoryTracking,
	}
	tipSleep = entities.Tip{
		Title:       "Prioritise Sleep",
		Description: "Sleep when the baby sleeps and ask someone to take a night feed if possible.",
		Category:    entities.TipCategorySleep,
	}
	tipFamily = entities.Tip{
		Title:       "Lean on Family",
		Description: "Share how you feel with family or friends. Short visits and company can lift your mood.",
		Category:    entities.TipCategoryFamily,
	}
	tipHealth = entities.Tip{
		Title:       "Boost Your Energy",
		Description: "Eat regular meals with iron and protein, drink water and keep taking your supplements.",
		Category:    entities.TipCategoryHealth,
	}
	tipIncisionCare = entities.Tip{
		Title:       "Incision Care",
		Description: "Keep your wound clean and dry and watch for redness, swelling or discharge.",
		Category:    entities.TipCategoryRecovery,
	}
	tipNoLifting = entities.Tip{
		Title:       "Avoid Heavy Lifting",
		Description: "Do not lift anything heavier than your baby until your health worker says it is safe.",
		Category:    entities.TipCategoryRecovery,
	}
	tipSupport = entities.Tip{
		Title:       "Ask Your Support Network",
		Description: "You do not have to do this alone. Ask for help with meals, chores and the baby.",
		Category:    entities.TipCategorySupport,
	}
)

// SelectTips evaluates the per-category rules and the cesarean care block,
// then appends the support tip. With no samples only the tracking tip is returned.
func SelectTips(m Means, dt entities.DeliveryType, elapsed int, th Thresholds) []entities.Tip {
	if m.Count == 0 {
		return []entities.Tip{tipStartTracking}
	}
	if elapsed < 0 {
		elapsed = 0
	}

	out := make([]entities.Tip, 0, 6)
	if m.Sleep < th.TipSleepBelow {
		out = append(out, tipSleep)
	}
	if m.Mood <= th.TipMoodAtMost {
		out = append(out, tipFamily)
	}
	if m.Energy <= th.TipEnergyAtMost {
		out = append(out, tipHealth)
	}
	if dt == entities.DeliveryCesarean {
		if elapsed < th.IncisionCareDays {
			out = append(out, tipIncisionCare)
		}
		if elapsed < th.NoLiftingDays {
			out = append(out, tipNoLifting)
		}
	}
	return append(out, tipSupport)
}
