package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"plain command", "/start", "start", []string{}, true},
		{"command with args", "/log_water 250", "log_water", []string{"250"}, true},
		{"bot suffix stripped", "/log_water@nutricoach_bot 250", "log_water", []string{"250"}, true},
		{"multi word args", "/log_food greek yogurt", "log_food", []string{"greek", "yogurt"}, true},
		{"surrounding whitespace", "  /help  ", "help", []string{}, true},
		{"not a command", "hello there", "", nil, false},
		{"bare slash", "/", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, ok := Split(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			if tt.wantOK {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	spec, ok := r.Get(LogWater)
	require.True(t, ok)
	assert.Equal(t, "log_water", spec.Name)

	_, ok = r.Get("does_not_exist")
	assert.False(t, ok)

	all := r.All()
	assert.Equal(t, Start, all[0].Name, "declaration order is stable")
	assert.Len(t, all, 9)
}

func TestRegistry_UsageHint(t *testing.T) {
	hint := NewRegistry().UsageHint()
	assert.Contains(t, hint, "/log_water <amount_ml>")
	assert.Contains(t, hint, "/set_profile")
	assert.Contains(t, hint, "/log_workout")
}

func TestSpec_ParseArgs(t *testing.T) {
	r := NewRegistry()

	t.Run("log_water parses a number", func(t *testing.T) {
		spec, _ := r.Get(LogWater)
		got, err := spec.ParseArgs([]string{"250"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"amount_ml": 250.0}, got)
	})

	t.Run("log_water missing argument returns usage", func(t *testing.T) {
		spec, _ := r.Get(LogWater)
		_, err := spec.ParseArgs(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "usage: /log_water")
	})

	t.Run("log_water rejects a non-number", func(t *testing.T) {
		spec, _ := r.Get(LogWater)
		_, err := spec.ParseArgs([]string{"lots"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "number")
	})

	t.Run("log_water rejects negatives via schema minimum", func(t *testing.T) {
		spec, _ := r.Get(LogWater)
		_, err := spec.ParseArgs([]string{"-5"})
		assert.Error(t, err)
	})

	t.Run("log_workout parses type and minutes", func(t *testing.T) {
		spec, _ := r.Get(LogWorkout)
		got, err := spec.ParseArgs([]string{"run", "45"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"type": "run", "minutes": 45.0}, got)
	})

	t.Run("log_workout missing minutes returns usage", func(t *testing.T) {
		spec, _ := r.Get(LogWorkout)
		_, err := spec.ParseArgs([]string{"run"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "usage: /log_workout")
	})

	t.Run("log_food joins trailing words", func(t *testing.T) {
		spec, _ := r.Get(LogFood)
		got, err := spec.ParseArgs([]string{"greek", "yogurt", "2%"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"query": "greek yogurt 2%"}, got)
	})

	t.Run("log_food query is optional", func(t *testing.T) {
		spec, _ := r.Get(LogFood)
		got, err := spec.ParseArgs(nil)
		require.NoError(t, err)
		assert.NotContains(t, got, "query")
	})

	t.Run("surplus tokens are ignored", func(t *testing.T) {
		spec, _ := r.Get(LogWater)
		got, err := spec.ParseArgs([]string{"250", "please"})
		require.NoError(t, err)
		assert.Equal(t, 250.0, got["amount_ml"])
	})
}
