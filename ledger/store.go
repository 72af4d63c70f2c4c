// Package ledger holds the per-user aggregate record of goals and
// consumption/expenditure events. All mutation funnels through Store
// operations; event sequences are append-only and ordered by insertion.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// ErrProfileRequired signals that a ledger operation was attempted for a
// user with no profile. Callers prompt for profile setup; this is never
// fatal.
var ErrProfileRequired = errors.New("profile required")

// WorkoutType enumerates the supported workout kinds.
type WorkoutType string

const (
	WorkoutRun      WorkoutType = "run"
	WorkoutWalk     WorkoutType = "walk"
	WorkoutStrength WorkoutType = "strength"
	WorkoutCycle    WorkoutType = "cycle"
	WorkoutOther    WorkoutType = "other"
)

// burn factors in kcal per minute.
var burnFactors = map[WorkoutType]float64{
	WorkoutRun:      10,
	WorkoutWalk:     4,
	WorkoutStrength: 8,
	WorkoutCycle:    7,
	WorkoutOther:    6,
}

// WorkoutTypes lists the valid workout types in a stable order.
func WorkoutTypes() []WorkoutType {
	return []WorkoutType{WorkoutRun, WorkoutWalk, WorkoutStrength, WorkoutCycle, WorkoutOther}
}

// ParseWorkoutType matches a user-supplied token to a workout type.
func ParseWorkoutType(s string) (WorkoutType, bool) {
	t := WorkoutType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := burnFactors[t]
	return t, ok
}

// BurnFactor returns the kcal-per-minute factor for the workout type.
func (t WorkoutType) BurnFactor() float64 { return burnFactors[t] }

// Profile is the per-user setup committed at the end of profile collection.
// Goals are always populated before a profile is stored.
type Profile struct {
	WeightKg             float64
	HeightCm             float64
	Age                  int
	DailyActivityMinutes int
	City                 string
	LastKnownTempC       float64

	WaterGoalMl         float64
	CalorieGoalKcal     float64
	CalorieGoalIsManual bool
}

// WaterEvent is one logged water intake.
type WaterEvent struct {
	At       time.Time
	AmountMl float64
}

// FoodEvent is one logged food consumption.
type FoodEvent struct {
	At   time.Time
	Kcal float64
}

// WorkoutEvent is one logged workout.
type WorkoutEvent struct {
	At         time.Time
	Type       WorkoutType
	KcalBurned float64
}

// account is the per-user record; cumulative fields always equal the sum of
// their event sequence.
type account struct {
	profile Profile

	loggedWaterMl  float64
	loggedCalories float64
	burnedCalories float64

	waterEvents   []WaterEvent
	foodEvents    []FoodEvent
	workoutEvents []WorkoutEvent
}

// Store owns the user-id-to-account mapping. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	now      func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates a store with an injectable clock for tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		accounts: make(map[string]*account),
		now:      now,
	}
}

// PutProfile stores (or overwrites) a user's profile and resets all logged
// events, matching a fresh profile setup.
func (s *Store) PutProfile(userID string, p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = &account{profile: p}
}

// Profile returns a copy of the user's profile.
func (s *Store) Profile(userID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return Profile{}, ErrProfileRequired
	}
	return acc.profile, nil
}

// HasProfile reports whether the user completed profile setup.
func (s *Store) HasProfile(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[userID]
	return ok
}

// RecordWater logs a water intake and returns the remaining amount toward
// the water goal.
func (s *Store) RecordWater(userID string, amountMl float64) (remaining float64, err error) {
	if amountMl <= 0 {
		return 0, fmt.Errorf("water amount must be positive, got %v", amountMl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return 0, ErrProfileRequired
	}

	acc.loggedWaterMl += amountMl
	acc.waterEvents = append(acc.waterEvents, WaterEvent{At: s.now(), AmountMl: amountMl})

	return math.Max(0, acc.profile.WaterGoalMl-acc.loggedWaterMl), nil
}

// RecordFood logs consumed calories.
func (s *Store) RecordFood(userID string, kcal float64) error {
	if kcal <= 0 {
		return fmt.Errorf("calories must be positive, got %v", kcal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return ErrProfileRequired
	}

	acc.loggedCalories += kcal
	acc.foodEvents = append(acc.foodEvents, FoodEvent{At: s.now(), Kcal: kcal})
	return nil
}

// WorkoutResult reports the effect of one logged workout.
type WorkoutResult struct {
	Burned         float64
	BonusWaterMl   float64
	NewWaterGoalMl float64
}

// RecordWorkout logs a workout: burned = factor * minutes, and every
// complete 30-minute block permanently adds 200 mL to the water goal. The
// bonus is additive on every call, not capped.
func (s *Store) RecordWorkout(userID string, t WorkoutType, minutes float64) (WorkoutResult, error) {
	if minutes <= 0 {
		return WorkoutResult{}, fmt.Errorf("workout minutes must be positive, got %v", minutes)
	}
	if _, ok := burnFactors[t]; !ok {
		return WorkoutResult{}, fmt.Errorf("unknown workout type %q", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return WorkoutResult{}, ErrProfileRequired
	}

	burned := t.BurnFactor() * minutes
	bonus := math.Floor(minutes/30) * 200

	acc.burnedCalories += burned
	acc.profile.WaterGoalMl += bonus
	acc.workoutEvents = append(acc.workoutEvents, WorkoutEvent{At: s.now(), Type: t, KcalBurned: burned})

	return WorkoutResult{
		Burned:         burned,
		BonusWaterMl:   bonus,
		NewWaterGoalMl: acc.profile.WaterGoalMl,
	}, nil
}

// Progress is a point-in-time snapshot with derived recommendations.
type Progress struct {
	WaterGoalMl      float64
	LoggedWaterMl    float64
	RemainingWaterMl float64

	CalorieGoalKcal float64
	LoggedCalories  float64
	BurnedCalories  float64
	NetCalories     float64

	IncreaseWater  bool
	AdjustCalories bool
}

// Progress returns the user's current snapshot.
func (s *Store) Progress(userID string) (Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return Progress{}, ErrProfileRequired
	}

	net := acc.loggedCalories - acc.burnedCalories
	return Progress{
		WaterGoalMl:      acc.profile.WaterGoalMl,
		LoggedWaterMl:    acc.loggedWaterMl,
		RemainingWaterMl: math.Max(0, acc.profile.WaterGoalMl-acc.loggedWaterMl),
		CalorieGoalKcal:  acc.profile.CalorieGoalKcal,
		LoggedCalories:   acc.loggedCalories,
		BurnedCalories:   acc.burnedCalories,
		NetCalories:      net,
		IncreaseWater:    acc.loggedWaterMl < 0.5*acc.profile.WaterGoalMl,
		AdjustCalories:   net > acc.profile.CalorieGoalKcal,
	}, nil
}

// History returns copies of the event sequences plus current goals, in
// insertion order, for chart rendering.
type History struct {
	WaterGoalMl     float64
	CalorieGoalKcal float64
	Water           []WaterEvent
	Food            []FoodEvent
	Workouts        []WorkoutEvent
}

// History returns a copy of the user's logged events and goals.
func (s *Store) History(userID string) (History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return History{}, ErrProfileRequired
	}

	h := History{
		WaterGoalMl:     acc.profile.WaterGoalMl,
		CalorieGoalKcal: acc.profile.CalorieGoalKcal,
		Water:           make([]WaterEvent, len(acc.waterEvents)),
		Food:            make([]FoodEvent, len(acc.foodEvents)),
		Workouts:        make([]WorkoutEvent, len(acc.workoutEvents)),
	}
	copy(h.Water, acc.waterEvents)
	copy(h.Food, acc.foodEvents)
	copy(h.Workouts, acc.workoutEvents)
	return h, nil
}
