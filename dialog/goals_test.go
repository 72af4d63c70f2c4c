package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaterGoalMl(t *testing.T) {
	tests := []struct {
		name            string
		weightKg        float64
		activityMinutes int
		tempC           float64
		want            float64
	}{
		{"base only", 70, 0, 20, 2100},
		{"activity blocks", 70, 60, 20, 3100},
		{"partial block ignored", 70, 59, 20, 2600},
		{"hot weather bonus", 70, 60, 30, 3600},
		{"exactly 25C gets no bonus", 70, 0, 25, 2100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, waterGoalMl(tt.weightKg, tt.activityMinutes, tt.tempC), 1e-9)
		})
	}
}

func TestAutoCalorieGoalKcal(t *testing.T) {
	tests := []struct {
		name            string
		weightKg        float64
		heightCm        float64
		age             int
		activityMinutes int
		want            float64
	}{
		{"sedentary", 70, 175, 25, 0, 1668.75},
		{"active", 70, 175, 25, 60, 2068.75},
		{"partial block ignored", 70, 175, 25, 29, 1668.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, autoCalorieGoalKcal(tt.weightKg, tt.heightCm, tt.age, tt.activityMinutes), 1e-9)
		})
	}
}
