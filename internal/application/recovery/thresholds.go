package recovery

// Thresholds are the heuristic cut-offs used by the predictor, tip selector
// and today's focus. They are not clinically validated.
type Thresholds struct {
	SampleWindow int

	EnergyHigh float64
	EnergyLow  float64
	MoodHigh   float64
	MoodLow    float64
	SleepGood  float64
	SleepPoor  float64 // strict

	// Faster-than-expected fires when percent < FastMaxPercent and mean
	// energy > FastMinEnergy.
	FastMaxPercent int
	FastMinEnergy  float64

	TipSleepBelow    float64
	TipMoodAtMost    float64
	TipEnergyAtMost  float64
	IncisionCareDays int
	NoLiftingDays    int

	FocusEnergyAtMost int
	FocusMoodAtMost   int
	FocusSleepBelow   float64
}

// DefaultThresholds returns the standard cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SampleWindow: 7,

		EnergyHigh: 7,
		EnergyLow:  4,
		MoodHigh:   7,
		MoodLow:    4,
		SleepGood:  7,
		SleepPoor:  5,

		FastMaxPercent: 50,
		FastMinEnergy:  7,

		TipSleepBelow:    6,
		TipMoodAtMost:    5,
		TipEnergyAtMost:  5,
		IncisionCareDays: 14,
		NoLiftingDays:    42,

		FocusEnergyAtMost: 3,
		FocusMoodAtMost:   3,
		FocusSleepBelow:   5,
	}
}
