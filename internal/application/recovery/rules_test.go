package recovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/postnatalcare/backend/internal/application/recovery"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

func TestPredict(t *testing.T) {
	th := recovery.DefaultThresholds()

	tests := []struct {
		name    string
		means   recovery.Means
		percent int
		want    []string
	}{
		{
			name: "no samples",
			want: []string{"Start Tracking"},
		},
		{
			name:    "all middling",
			means:   recovery.Means{Count: 3, Energy: 5.5, Mood: 5.5, Sleep: 6},
			percent: 60,
			want:    []string{},
		},
		{
			name:    "all low",
			means:   recovery.Means{Count: 3, Energy: 3, Mood: 4, Sleep: 4.5},
			percent: 20,
			want:    []string{"Energy Support Needed", "Mood Needs Attention", "Sleep Deficit"},
		},
		{
			name:    "high energy early",
			means:   recovery.Means{Count: 2, Energy: 8, Mood: 6, Sleep: 6},
			percent: 30,
			want:    []string{"Strong Energy Levels", "Recovering Faster Than Expected"},
		},
		{
			name:    "high energy late",
			means:   recovery.Means{Count: 2, Energy: 8, Mood: 6, Sleep: 6},
			percent: 50,
			want:    []string{"Strong Energy Levels"},
		},
		{
			name:    "energy exactly seven is not faster",
			means:   recovery.Means{Count: 2, Energy: 7, Mood: 6, Sleep: 6},
			percent: 10,
			want:    []string{"Strong Energy Levels"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, predictionTitles(recovery.Predict(tt.means, tt.percent, th)))
		})
	}
}

func TestPredict_FastThresholdsOverridable(t *testing.T) {
	th := recovery.DefaultThresholds()
	th.FastMaxPercent = 80
	th.FastMinEnergy = 6

	got := predictionTitles(recovery.Predict(recovery.Means{Count: 1, Energy: 6.5, Mood: 6, Sleep: 6}, 70, th))
	assert.Equal(t, []string{"Recovering Faster Than Expected"}, got)
}

func TestSelectTips(t *testing.T) {
	th := recovery.DefaultThresholds()

	t.Run("no samples", func(t *testing.T) {
		got := recovery.SelectTips(recovery.Means{}, entities.DeliveryCesarean, 2, th)
		assert.Equal(t, []string{"Start Health Tracking"}, tipTitles(got))
	})

	t.Run("healthy vaginal", func(t *testing.T) {
		got := recovery.SelectTips(recovery.Means{Count: 4, Energy: 8, Mood: 8, Sleep: 7}, entities.DeliveryVaginal, 5, th)
		assert.Equal(t, []string{"Ask Your Support Network"}, tipTitles(got))
	})

	t.Run("struggling early cesarean", func(t *testing.T) {
		got := recovery.SelectTips(recovery.Means{Count: 4, Energy: 5, Mood: 5, Sleep: 5.9}, entities.DeliveryCesarean, 10, th)
		assert.Equal(t, []string{
			"Prioritise Sleep",
			"Lean on Family",
			"Boost Your Energy",
			"Incision Care",
			"Avoid Heavy Lifting",
			"Ask Your Support Network",
		}, tipTitles(got))
	})

	t.Run("cesarean after two weeks", func(t *testing.T) {
		got := recovery.SelectTips(recovery.Means{Count: 4, Energy: 8, Mood: 8, Sleep: 8}, entities.DeliveryCesarean, 14, th)
		assert.Equal(t, []string{"Avoid Heavy Lifting", "Ask Your Support Network"}, tipTitles(got))
	})

	t.Run("cesarean after six weeks", func(t *testing.T) {
		got := recovery.SelectTips(recovery.Means{Count: 4, Energy: 8, Mood: 8, Sleep: 8}, entities.DeliveryCesarean, 42, th)
		assert.Equal(t, []string{"Ask Your Support Network"}, tipTitles(got))
	})
}

func TestTodaysFocus(t *testing.T) {
	th := recovery.DefaultThresholds()

	tests := []struct {
		name    string
		latest  *entities.RecoveryMetricSample
		elapsed int
		want    string
	}{
		{"energy first", sample(3, 2, 2), 30, recovery.FocusCategoryEnergy},
		{"mood second", sample(4, 3, 2), 30, recovery.FocusCategoryEmotional},
		{"sleep third", sample(4, 4, 4.9), 30, recovery.FocusCategorySleep},
		{"phase default", sample(6, 6, 7), 30, recovery.FocusCategoryPhase},
		{"no sample", nil, 0, recovery.FocusCategoryPhase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recovery.TodaysFocus(tt.latest, tt.elapsed, th).Category)
		})
	}
}

func TestTodaysFocus_PhaseDefaults(t *testing.T) {
	th := recovery.DefaultThresholds()

	assert.Equal(t, "Rest and Heal", recovery.TodaysFocus(nil, 7, th).Title)
	assert.Equal(t, "Gentle Movement", recovery.TodaysFocus(nil, 21, th).Title)
	assert.Equal(t, "Building Strength", recovery.TodaysFocus(nil, 42, th).Title)
	assert.Equal(t, "Maintaining Wellness", recovery.TodaysFocus(nil, 43, th).Title)
}

func TestRollingMeans(t *testing.T) {
	m := recovery.RollingMeans([]*entities.RecoveryMetricSample{sample(8, 6, 7), sample(4, 2, 5), sample(1, 1, 1)}, 2)

	assert.Equal(t, 2, m.Count)
	assert.InDelta(t, 6.0, m.Energy, 1e-9)
	assert.InDelta(t, 4.0, m.Mood, 1e-9)
	assert.InDelta(t, 6.0, m.Sleep, 1e-9)
}

func TestParseTimeline_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "delivery_types: ["},
		{"missing cesarean", `
delivery_types:
  vaginal:
    expected_days: 42
    phases: [{name: All}]
`},
		{"non increasing milestones", `
delivery_types:
  vaginal:
    expected_days: 42
    phases: [{name: All}]
    milestones: [{day: 3, title: a}, {day: 3, title: b}]
  cesarean:
    expected_days: 56
    phases: [{name: All}]
`},
		{"closed last phase", `
delivery_types:
  vaginal:
    expected_days: 42
    phases: [{until_day: 7, name: A}]
  cesarean:
    expected_days: 56
    phases: [{name: All}]
`},
		{"zero expected days", `
delivery_types:
  vaginal:
    expected_days: 0
    phases: [{name: All}]
  cesarean:
    expected_days: 56
    phases: [{name: All}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recovery.ParseTimeline([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadTimeline_File(t *testing.T) {
	doc := `
look_ahead_days: 1
delivery_types:
  vaginal:
    expected_days: 10
    phases: [{until_day: 5, name: Early}, {name: Late}]
    milestones: [{day: 2, title: Two}]
  cesarean:
    expected_days: 20
    phases: [{name: All}]
`
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tl, err := recovery.LoadTimeline(path)
	require.NoError(t, err)

	assert.Equal(t, "Late", tl.Phase(6, entities.DeliveryVaginal))
	assert.Equal(t, 50, tl.Percent(5, entities.DeliveryVaginal))
	assert.False(t, tl.Milestones(0, entities.DeliveryVaginal)[0].Upcoming)
	assert.True(t, tl.Milestones(1, entities.DeliveryVaginal)[0].Upcoming)
}
