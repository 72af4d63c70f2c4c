package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ApplyProfileInput_FullFlow(t *testing.T) {
	sess := &Session{State: StateCollectingWeight}

	steps := []struct {
		input      string
		wantPrompt string
		wantState  State
	}{
		{"70", "Enter your height (cm):", StateCollectingHeight},
		{"175", "Enter your age:", StateCollectingAge},
		{"25", "How many minutes of activity do you get per day?", StateCollectingActivity},
		{"60", "Which city are you in?", StateCollectingCity},
		{"Lisbon", "Enter your calorie goal, or \"auto\" to compute it:", StateCollectingCalorieGoal},
	}

	for _, step := range steps {
		prompt, done, err := sess.applyProfileInput(step.input)
		require.NoError(t, err, "input %q", step.input)
		require.False(t, done)
		assert.Equal(t, step.wantPrompt, prompt)
		assert.Equal(t, step.wantState, sess.State)
	}

	_, done, err := sess.applyProfileInput("auto")
	require.NoError(t, err)
	require.True(t, done)

	assert.Equal(t, 70.0, sess.WeightKg)
	assert.Equal(t, 175.0, sess.HeightCm)
	assert.Equal(t, 25, sess.Age)
	assert.Equal(t, 60, sess.ActivityMinutes)
	assert.Equal(t, "Lisbon", sess.City)
	assert.False(t, sess.CalorieGoalIsManual)
}

func TestSession_ApplyProfileInput_ManualCalorieGoal(t *testing.T) {
	sess := &Session{State: StateCollectingCalorieGoal}

	_, done, err := sess.applyProfileInput("1800")
	require.NoError(t, err)
	require.True(t, done)
	assert.True(t, sess.CalorieGoalIsManual)
	assert.Equal(t, 1800.0, sess.CalorieGoalKcal)
}

func TestSession_ApplyProfileInput_AutoKeywordIsCaseInsensitive(t *testing.T) {
	sess := &Session{State: StateCollectingCalorieGoal}

	_, done, err := sess.applyProfileInput("AUTO")
	require.NoError(t, err)
	require.True(t, done)
	assert.False(t, sess.CalorieGoalIsManual)
}

func TestSession_ApplyProfileInput_InvalidInputRetainsState(t *testing.T) {
	tests := []struct {
		name  string
		state State
		input string
	}{
		{"weight not a number", StateCollectingWeight, "heavy"},
		{"weight zero", StateCollectingWeight, "0"},
		{"weight negative", StateCollectingWeight, "-70"},
		{"height not a number", StateCollectingHeight, "tall"},
		{"age fractional", StateCollectingAge, "25.5"},
		{"age zero", StateCollectingAge, "0"},
		{"activity negative", StateCollectingActivity, "-10"},
		{"city blank", StateCollectingCity, "   "},
		{"goal not a number or auto", StateCollectingCalorieGoal, "lots"},
		{"goal negative", StateCollectingCalorieGoal, "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &Session{State: tt.state}

			prompt, done, err := sess.applyProfileInput(tt.input)
			require.Error(t, err)
			assert.False(t, done)
			assert.Empty(t, prompt)
			assert.Equal(t, tt.state, sess.State, "state must not advance on bad input")

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Prompt)
		})
	}
}

func TestSession_ApplyProfileInput_ActivityZeroAllowed(t *testing.T) {
	sess := &Session{State: StateCollectingActivity}

	_, done, err := sess.applyProfileInput("0")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, StateCollectingCity, sess.State)
	assert.Equal(t, 0, sess.ActivityMinutes)
}

func TestSession_ApplyProfileInput_TrimsWhitespace(t *testing.T) {
	sess := &Session{State: StateCollectingWeight}

	_, _, err := sess.applyProfileInput("  70.5  ")
	require.NoError(t, err)
	assert.Equal(t, 70.5, sess.WeightKg)
}
