package recovery

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

// Means are the rolling averages over the most recent samples.
type Means struct {
	Count  int
	Energy float64
	Mood   float64
	Sleep  float64
}

// RollingMeans averages up to window samples. Samples are expected newest first.
func RollingMeans(samples []*entities.RecoveryMetricSample, window int) Means {
	if window > 0 && len(samples) > window {
		samples = samples[:window]
	}
	var m Means
	for _, s := range samples {
		if s == nil {
			continue
		}
		m.Count++
		m.Energy += float64(s.EnergyLevel)
		m.Mood += float64(s.MoodScore)
		m.Sleep += s.SleepHours
	}
	if m.Count > 0 {
		n := float64(m.Count)
		m.Energy /= n
		m.Mood /= n
		m.Sleep /= n
	}
	return m
}

var startTracking = entities.Prediction{
	Title:       "Start Tracking",
	Description: "Log your energy, mood and sleep each day to see how your recovery is going.",
	Category:    entities.PredictionInsight,
}

// Predict applies the independent threshold rules to the rolling means.
// Any number of rules may fire. With no samples only the placeholder is returned.
func Predict(m Means, percent int, th Thresholds) []entities.Prediction {
	if m.Count == 0 {
		return []entities.Prediction{startTracking}
	}

	out := make([]entities.Prediction, 0, 4)
	switch {
	case m.Energy >= th.EnergyHigh:
		out = append(out, entities.Prediction{
			Title:       "Strong Energy Levels",
			Description: "Your energy has been consistently good. Keep pacing yourself.",
			Category:    entities.PredictionPositive,
		})
	case m.Energy <= th.EnergyLow:
		out = append(out, entities.Prediction{
			Title:       "Energy Support Needed",
			Description: "Your energy has been low. Rest, eat well and accept help with the baby.",
			Category:    entities.PredictionInsight,
		})
	}

	switch {
	case m.Mood >= th.MoodHigh:
		out = append(out, entities.Prediction{
			Title:       "Positive Mood Trend",
			Description: "Your mood has been steady and positive this week.",
			Category:    entities.PredictionPositive,
		})
	case m.Mood <= th.MoodLow:
		out = append(out, entities.Prediction{
			Title:       "Mood Needs Attention",
			Description: "Your mood has been low. Talk to someone you trust or your health worker.",
			Category:    entities.PredictionAttention,
		})
	}

	switch {
	case m.Sleep >= th.SleepGood:
		out = append(out, entities.Prediction{
			Title:       "Good Sleep Pattern",
			Description: "You are getting solid rest, which helps your body heal.",
			Category:    entities.PredictionPositive,
		})
	case m.Sleep < th.SleepPoor:
		out = append(out, entities.Prediction{
			Title:       "Sleep Deficit",
			Description: "You have been sleeping very little. Try to nap when the baby sleeps.",
			Category:    entities.PredictionAttention,
		})
	}

	if percent < th.FastMaxPercent && m.Energy > th.FastMinEnergy {
		out = append(out, entities.Prediction{
			Title:       "Recovering Faster Than Expected",
			Description: "Your energy is high for this stage of recovery. Keep going, but do not overdo it.",
			Category:    entities.PredictionPositive,
		})
	}
	return out
}
