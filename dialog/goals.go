package dialog

import "math"

// waterGoalMl computes the daily water goal: 30 mL per kg of body weight,
// 500 mL per complete 30-minute activity block, and 500 mL extra in hot
// weather (above 25°C).
func waterGoalMl(weightKg float64, activityMinutes int, tempC float64) float64 {
	goal := weightKg * 30
	goal += math.Floor(float64(activityMinutes)/30) * 500
	if tempC > 25 {
		goal += 500
	}
	return goal
}

// autoCalorieGoalKcal computes the daily calorie goal when the user asks for
// it instead of setting one manually.
func autoCalorieGoalKcal(weightKg, heightCm float64, age, activityMinutes int) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	return base + math.Floor(float64(activityMinutes)/30)*200
}
