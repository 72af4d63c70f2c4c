package dialog

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"nutricoach/catalog"
)

// ErrInvalidSelection signals a food-candidate choice referencing an unknown
// id. The session state stays unchanged.
var ErrInvalidSelection = errors.New("invalid selection")

// ValidationError is a recoverable input error during a collection step: the
// session state is retained and Prompt is shown to the user.
type ValidationError struct {
	Prompt string
}

func (e *ValidationError) Error() string { return e.Prompt }

// State tags the step an in-progress flow is waiting on. Idle is modeled as
// the absence of a session, not a stored state.
type State string

const (
	StateCollectingWeight      State = "collecting_weight"
	StateCollectingHeight      State = "collecting_height"
	StateCollectingAge         State = "collecting_age"
	StateCollectingActivity    State = "collecting_activity"
	StateCollectingCity        State = "collecting_city"
	StateCollectingCalorieGoal State = "collecting_calorie_goal"

	StateAwaitingFoodQuery      State = "awaiting_food_query"
	StateAwaitingFoodChoice     State = "awaiting_food_choice"
	StateAwaitingManualCalories State = "awaiting_manual_calories"
	StateAwaitingGrams          State = "awaiting_grams"
)

// calorieGoalAutoKeyword asks for the calorie goal to be computed from the
// profile instead of set manually.
const calorieGoalAutoKeyword = "auto"

// Session is the transient per-user state of one multi-step flow. It is
// destroyed on completion, cancellation, or abandonment; fields collected so
// far live only here until the flow commits into the ledger.
type Session struct {
	State State

	// Profile flow fields, filled one step at a time.
	WeightKg            float64
	HeightCm            float64
	Age                 int
	ActivityMinutes     int
	City                string
	CalorieGoalKcal     float64
	CalorieGoalIsManual bool

	// Food flow fields.
	FoodName        string
	CaloriesPer100g float64

	// Candidates maps opaque short ids to catalog hits; populated only
	// while the user is picking, discarded when the sub-flow ends.
	Candidates map[string]catalog.FoodCandidate

	StartedAt time.Time
	UpdatedAt time.Time
}

// applyProfileInput consumes one text input for the current Collecting*
// state, advancing the session on success. It returns the next prompt and
// whether the flow reached its commit point (calorie goal accepted). A
// *ValidationError means the input didn't parse: no field is written and the
// state does not advance.
func (s *Session) applyProfileInput(input string) (prompt string, done bool, err error) {
	input = strings.TrimSpace(input)

	switch s.State {
	case StateCollectingWeight:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || v <= 0 {
			return "", false, &ValidationError{Prompt: "Please enter a positive number for your weight."}
		}
		s.WeightKg = v
		s.State = StateCollectingHeight
		return "Enter your height (cm):", false, nil

	case StateCollectingHeight:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || v <= 0 {
			return "", false, &ValidationError{Prompt: "Please enter a positive number for your height."}
		}
		s.HeightCm = v
		s.State = StateCollectingAge
		return "Enter your age:", false, nil

	case StateCollectingAge:
		v, err := strconv.Atoi(input)
		if err != nil || v <= 0 {
			return "", false, &ValidationError{Prompt: "Please enter a positive whole number for your age."}
		}
		s.Age = v
		s.State = StateCollectingActivity
		return "How many minutes of activity do you get per day?", false, nil

	case StateCollectingActivity:
		v, err := strconv.Atoi(input)
		if err != nil || v < 0 {
			return "", false, &ValidationError{Prompt: "Please enter a whole number of activity minutes."}
		}
		s.ActivityMinutes = v
		s.State = StateCollectingCity
		return "Which city are you in?", false, nil

	case StateCollectingCity:
		if input == "" {
			return "", false, &ValidationError{Prompt: "Please enter your city."}
		}
		s.City = input
		s.State = StateCollectingCalorieGoal
		return "Enter your calorie goal, or \"auto\" to compute it:", false, nil

	case StateCollectingCalorieGoal:
		if strings.EqualFold(input, calorieGoalAutoKeyword) {
			s.CalorieGoalIsManual = false
			return "", true, nil
		}
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || v <= 0 {
			return "", false, &ValidationError{Prompt: "Please enter a number for your calorie goal, or \"auto\"."}
		}
		s.CalorieGoalKcal = v
		s.CalorieGoalIsManual = true
		return "", true, nil
	}

	return "", false, &ValidationError{Prompt: "Unexpected input for the current step."}
}

// parsePositiveFloat parses inputs like manual calories and grams, which
// must be strictly positive.
func parsePositiveFloat(input string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
