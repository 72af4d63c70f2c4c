// Package dialog drives the per-user conversational flows: profile setup and
// food logging as an explicit state machine, with commits into the ledger
// store. The orchestrator is the only owner of sessions; events for the same
// user are serialized, different users run concurrently.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nutricoach"
	"nutricoach/artifact"
	"nutricoach/catalog"
	"nutricoach/commands"
	"nutricoach/ledger"
	"nutricoach/match"
)

const (
	foodChoicePrefix = "food:"
	foodChoiceManual = "food:manual"

	profileRequiredText = "Set up your profile first with /set_profile."
)

// catalogService is the nutrition-catalog boundary.
type catalogService interface {
	Search(ctx context.Context, query string) []catalog.FoodCandidate
}

// weatherService is the weather-lookup boundary; it never fails, it falls back.
type weatherService interface {
	CurrentTemperature(ctx context.Context, city string) float64
}

// chartRenderer draws history charts for show_graph.
type chartRenderer interface {
	WaterProgress(h ledger.History) ([]byte, error)
	CalorieBalance(h ledger.History) ([]byte, error)
}

// OrchestratorOpts configures a new orchestrator. Store, Catalog, Weather
// and Charts are required; the rest have defaults.
type OrchestratorOpts struct {
	Store    *ledger.Store
	Registry *commands.Registry
	Catalog  catalogService
	Weather  weatherService
	Charts   chartRenderer

	// Artifacts, when set, receives a copy of every rendered chart.
	Artifacts artifact.Store

	FlowLogger     nutricoach.FlowLogger
	CandidateLimit int
	Clock          func() time.Time
	NewID          func() string
}

// Orchestrator routes incoming events to the state machine, consults the
// catalog/weather clients, and commits completed flows into the ledger.
type Orchestrator struct {
	store          *ledger.Store
	registry       *commands.Registry
	catalog        catalogService
	weather        weatherService
	charts         chartRenderer
	artifacts      artifact.Store
	flowLogger     nutricoach.FlowLogger
	candidateLimit int
	now            func() time.Time
	newID          func() string

	// mu guards the session and per-user lock maps; the per-user lock
	// serializes all handling for one user, including upstream calls.
	mu        sync.Mutex
	sessions  map[string]*Session
	userLocks map[string]*sync.Mutex
}

// NewOrchestrator initializes a new orchestrator.
func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	if opts.Registry == nil {
		opts.Registry = commands.NewRegistry()
	}
	if opts.FlowLogger == nil {
		opts.FlowLogger = nutricoach.NewNoOpFlowLogger()
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 5
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString()[:8] }
	}

	return &Orchestrator{
		store:          opts.Store,
		registry:       opts.Registry,
		catalog:        opts.Catalog,
		weather:        opts.Weather,
		charts:         opts.Charts,
		artifacts:      opts.Artifacts,
		flowLogger:     opts.FlowLogger,
		candidateLimit: opts.CandidateLimit,
		now:            opts.Clock,
		newID:          opts.NewID,
		sessions:       make(map[string]*Session),
		userLocks:      make(map[string]*sync.Mutex),
	}
}

// HandleEvent processes one incoming event under the user's lock and returns
// the outgoing messages. It always produces at least one message.
func (o *Orchestrator) HandleEvent(ctx context.Context, event nutricoach.Event) []nutricoach.Message {
	lock := o.userLock(event.UserID)
	lock.Lock()
	defer lock.Unlock()

	entry := nutricoach.EventLog{
		Timestamp:   o.now(),
		UserID:      event.UserID,
		Kind:        string(event.Kind),
		Input:       event.Text,
		StateBefore: o.sessionState(event.UserID),
	}

	msgs := o.route(ctx, event, &entry)

	entry.StateAfter = o.sessionState(event.UserID)
	entry.Outgoing = len(msgs)
	o.logEvent(entry)

	return msgs
}

// route dispatches one event: button presses go to the food-choice step,
// recognized commands abandon any stale session and start fresh, and
// anything else is fed to the active session or answered with a usage hint.
func (o *Orchestrator) route(ctx context.Context, event nutricoach.Event, entry *nutricoach.EventLog) []nutricoach.Message {
	userID := event.UserID

	if event.Kind == nutricoach.EventButtonPress {
		return o.handleFoodChoice(userID, event.Text, entry)
	}

	if name, args, ok := commands.Split(event.Text); ok {
		if spec, known := o.registry.Get(name); known {
			if sess := o.getSession(userID); sess != nil && name != commands.Cancel {
				slog.Info("ORCHESTRATOR: Abandoning stale session on new command",
					"user_id", userID, "state", sess.State, "command", name)
				o.endSession(userID)
			}
			return o.dispatchCommand(ctx, userID, spec, args, entry)
		}
	}

	if sess := o.getSession(userID); sess != nil {
		return o.handleSessionInput(ctx, userID, sess, event.Text, entry)
	}

	return []nutricoach.Message{nutricoach.TextMessage(userID, o.registry.UsageHint())}
}

func (o *Orchestrator) dispatchCommand(ctx context.Context, userID string, spec commands.Spec, args []string, entry *nutricoach.EventLog) []nutricoach.Message {
	slog.Info("ORCHESTRATOR: Handling command", "user_id", userID, "command", spec.Name)

	switch spec.Name {
	case commands.Start:
		return []nutricoach.Message{nutricoach.TextMessage(userID,
			"Hi! I track your daily water and calorie goals.\nStart with /set_profile to set up your profile.")}

	case commands.Help:
		return []nutricoach.Message{nutricoach.TextMessage(userID, o.helpText())}

	case commands.SetProfile:
		o.startSession(userID, StateCollectingWeight)
		return []nutricoach.Message{nutricoach.TextMessage(userID, "Enter your weight (kg):")}

	case commands.Cancel:
		if o.getSession(userID) == nil {
			return []nutricoach.Message{nutricoach.TextMessage(userID, "Nothing to cancel.")}
		}
		o.endSession(userID)
		return []nutricoach.Message{nutricoach.TextMessage(userID, "Cancelled.")}

	case commands.LogWater:
		return o.requireProfile(userID, func() []nutricoach.Message {
			parsed, err := spec.ParseArgs(args)
			if err != nil {
				entry.Error = err.Error()
				return []nutricoach.Message{nutricoach.TextMessage(userID, err.Error())}
			}
			amount := parsed["amount_ml"].(float64)

			remaining, err := o.store.RecordWater(userID, amount)
			if err != nil {
				entry.Error = err.Error()
				return []nutricoach.Message{nutricoach.TextMessage(userID, "Please enter a positive number of milliliters.")}
			}
			return []nutricoach.Message{nutricoach.TextMessage(userID,
				fmt.Sprintf("Recorded: %.0f mL of water.\nRemaining: %.0f mL.", amount, remaining))}
		})

	case commands.LogFood:
		return o.requireProfile(userID, func() []nutricoach.Message {
			parsed, err := spec.ParseArgs(args)
			if err != nil {
				entry.Error = err.Error()
				return []nutricoach.Message{nutricoach.TextMessage(userID, err.Error())}
			}
			query, ok := parsed["query"].(string)
			if !ok || strings.TrimSpace(query) == "" {
				o.startSession(userID, StateAwaitingFoodQuery)
				return []nutricoach.Message{nutricoach.TextMessage(userID, "What did you eat?")}
			}
			return o.runFoodSearch(ctx, userID, query, entry)
		})

	case commands.LogWorkout:
		return o.requireProfile(userID, func() []nutricoach.Message {
			parsed, err := spec.ParseArgs(args)
			if err != nil {
				entry.Error = err.Error()
				return []nutricoach.Message{nutricoach.TextMessage(userID, err.Error())}
			}

			workout, ok := ledger.ParseWorkoutType(parsed["type"].(string))
			if !ok {
				entry.Error = fmt.Sprintf("unknown workout type %q", parsed["type"])
				return []nutricoach.Message{nutricoach.TextMessage(userID, workoutTypesHint())}
			}
			minutes := parsed["minutes"].(float64)

			res, err := o.store.RecordWorkout(userID, workout, minutes)
			if err != nil {
				entry.Error = err.Error()
				return []nutricoach.Message{nutricoach.TextMessage(userID, "Please enter a positive number of minutes.")}
			}

			text := fmt.Sprintf("Recorded: %s for %.0f minutes, %.0f kcal burned.", workout, minutes, res.Burned)
			if res.BonusWaterMl > 0 {
				text += fmt.Sprintf("\nDrink an extra %.0f mL of water.", res.BonusWaterMl)
			}
			return []nutricoach.Message{nutricoach.TextMessage(userID, text)}
		})

	case commands.CheckProgress:
		return o.requireProfile(userID, func() []nutricoach.Message {
			progress, err := o.store.Progress(userID)
			if err != nil {
				return []nutricoach.Message{nutricoach.TextMessage(userID, profileRequiredText)}
			}
			return []nutricoach.Message{nutricoach.TextMessage(userID, formatProgress(progress))}
		})

	case commands.ShowGraph:
		return o.requireProfile(userID, func() []nutricoach.Message {
			return o.renderCharts(ctx, userID, entry)
		})
	}

	return []nutricoach.Message{nutricoach.TextMessage(userID, o.registry.UsageHint())}
}

// requireProfile guards ledger-backed commands: without a completed profile
// the user is prompted to run setup instead.
func (o *Orchestrator) requireProfile(userID string, fn func() []nutricoach.Message) []nutricoach.Message {
	if !o.store.HasProfile(userID) {
		return []nutricoach.Message{nutricoach.TextMessage(userID, profileRequiredText)}
	}
	return fn()
}

// handleSessionInput feeds a text input into the active session.
func (o *Orchestrator) handleSessionInput(ctx context.Context, userID string, sess *Session, input string, entry *nutricoach.EventLog) []nutricoach.Message {
	o.touchSession(userID)

	switch sess.State {
	case StateCollectingWeight, StateCollectingHeight, StateCollectingAge,
		StateCollectingActivity, StateCollectingCity, StateCollectingCalorieGoal:
		prompt, done, err := sess.applyProfileInput(input)
		if err != nil {
			entry.Error = err.Error()
			var verr *ValidationError
			if errors.As(err, &verr) {
				return []nutricoach.Message{nutricoach.TextMessage(userID, verr.Prompt)}
			}
			return []nutricoach.Message{nutricoach.TextMessage(userID, "Something went wrong; please try again.")}
		}
		if done {
			return o.commitProfile(ctx, userID, sess, entry)
		}
		return []nutricoach.Message{nutricoach.TextMessage(userID, prompt)}

	case StateAwaitingFoodQuery:
		query := strings.TrimSpace(input)
		if query == "" {
			return []nutricoach.Message{nutricoach.TextMessage(userID, "Please enter a product name.")}
		}
		return o.runFoodSearch(ctx, userID, query, entry)

	case StateAwaitingFoodChoice:
		return []nutricoach.Message{nutricoach.TextMessage(userID,
			"Please pick one of the options above, or /cancel.")}

	case StateAwaitingManualCalories:
		kcal, ok := parsePositiveFloat(input)
		if !ok {
			return []nutricoach.Message{nutricoach.TextMessage(userID,
				"Please enter a positive number for calories per 100 g.")}
		}
		sess.CaloriesPer100g = kcal
		sess.State = StateAwaitingGrams
		return []nutricoach.Message{nutricoach.TextMessage(userID,
			"Calorie density recorded. How many grams did you eat?")}

	case StateAwaitingGrams:
		grams, ok := parsePositiveFloat(input)
		if !ok {
			return []nutricoach.Message{nutricoach.TextMessage(userID,
				"Please enter a positive number of grams.")}
		}

		consumed := sess.CaloriesPer100g * grams / 100
		foodName := sess.FoodName
		if foodName == "" {
			foodName = "product"
		}
		o.endSession(userID)

		if err := o.store.RecordFood(userID, consumed); err != nil {
			entry.Error = err.Error()
			return []nutricoach.Message{nutricoach.TextMessage(userID, profileRequiredText)}
		}
		return []nutricoach.Message{nutricoach.TextMessage(userID,
			fmt.Sprintf("Recorded: %.1f kcal (%s).", consumed, foodName))}
	}

	return []nutricoach.Message{nutricoach.TextMessage(userID, o.registry.UsageHint())}
}

// runFoodSearch consults the catalog, ranks the hits against the query, and
// either presents candidate buttons or branches to manual calorie entry.
func (o *Orchestrator) runFoodSearch(ctx context.Context, userID, query string, entry *nutricoach.EventLog) []nutricoach.Message {
	started := time.Now()
	hits := o.catalog.Search(ctx, query)
	entry.UpstreamCalls = append(entry.UpstreamCalls, nutricoach.UpstreamCallLog{
		Service:    "catalog",
		Query:      query,
		DurationMS: time.Since(started).Milliseconds(),
		Results:    len(hits),
	})

	if len(hits) == 0 {
		sess := o.startSession(userID, StateAwaitingManualCalories)
		sess.FoodName = query
		return []nutricoach.Message{nutricoach.TextMessage(userID,
			"No product information found. Enter calories per 100 g manually:")}
	}

	ranked := match.Rank(query, hits, func(c catalog.FoodCandidate) string { return c.Name }, o.candidateLimit)

	sess := o.startSession(userID, StateAwaitingFoodChoice)
	sess.FoodName = query
	sess.Candidates = make(map[string]catalog.FoodCandidate, len(ranked))

	buttons := make([]nutricoach.Button, 0, len(ranked)+1)
	for _, r := range ranked {
		id := o.newID()
		sess.Candidates[id] = r.Value
		buttons = append(buttons, nutricoach.Button{
			Label: fmt.Sprintf("%s (%.1f kcal/100g)", truncate(r.Value.Name, 20), r.Value.CaloriesPer100g),
			Data:  foodChoicePrefix + id,
		})
	}
	buttons = append(buttons, nutricoach.Button{Label: "Enter calories manually", Data: foodChoiceManual})

	msg := nutricoach.TextMessage(userID, "Found similar products:")
	msg.Buttons = buttons
	return []nutricoach.Message{msg}
}

// handleFoodChoice resolves a candidate button press. An unknown id is
// rejected without touching the session or the ledger.
func (o *Orchestrator) handleFoodChoice(userID, payload string, entry *nutricoach.EventLog) []nutricoach.Message {
	sess := o.getSession(userID)
	if sess == nil || sess.State != StateAwaitingFoodChoice {
		return []nutricoach.Message{nutricoach.TextMessage(userID, "That choice is no longer active.")}
	}
	o.touchSession(userID)

	if payload == foodChoiceManual {
		sess.Candidates = nil
		sess.State = StateAwaitingManualCalories
		return []nutricoach.Message{nutricoach.TextMessage(userID, "Enter calories per 100 g manually:")}
	}

	if !strings.HasPrefix(payload, foodChoicePrefix) {
		entry.Error = ErrInvalidSelection.Error()
		return []nutricoach.Message{nutricoach.TextMessage(userID, "Invalid selection.")}
	}

	chosen, ok := sess.Candidates[strings.TrimPrefix(payload, foodChoicePrefix)]
	if !ok {
		entry.Error = ErrInvalidSelection.Error()
		slog.Info("ORCHESTRATOR: Rejected candidate selection",
			"user_id", userID, "payload", payload, "error", ErrInvalidSelection)
		return []nutricoach.Message{nutricoach.TextMessage(userID, "Invalid selection.")}
	}

	sess.FoodName = chosen.Name
	sess.CaloriesPer100g = chosen.CaloriesPer100g
	sess.Candidates = nil
	sess.State = StateAwaitingGrams

	return []nutricoach.Message{nutricoach.TextMessage(userID,
		fmt.Sprintf("You picked: %s (%.1f kcal per 100 g).\nHow many grams did you eat?", chosen.Name, chosen.CaloriesPer100g))}
}

// commitProfile finishes the profile flow: it looks up the city temperature,
// computes the goals, stores the profile (resetting the ledger), and
// destroys the session.
func (o *Orchestrator) commitProfile(ctx context.Context, userID string, sess *Session, entry *nutricoach.EventLog) []nutricoach.Message {
	started := time.Now()
	temp := o.weather.CurrentTemperature(ctx, sess.City)
	entry.UpstreamCalls = append(entry.UpstreamCalls, nutricoach.UpstreamCallLog{
		Service:    "weather",
		Query:      sess.City,
		DurationMS: time.Since(started).Milliseconds(),
	})

	profile := ledger.Profile{
		WeightKg:             sess.WeightKg,
		HeightCm:             sess.HeightCm,
		Age:                  sess.Age,
		DailyActivityMinutes: sess.ActivityMinutes,
		City:                 sess.City,
		LastKnownTempC:       temp,
		WaterGoalMl:          waterGoalMl(sess.WeightKg, sess.ActivityMinutes, temp),
		CalorieGoalKcal:      sess.CalorieGoalKcal,
		CalorieGoalIsManual:  sess.CalorieGoalIsManual,
	}
	if !sess.CalorieGoalIsManual {
		profile.CalorieGoalKcal = autoCalorieGoalKcal(sess.WeightKg, sess.HeightCm, sess.Age, sess.ActivityMinutes)
	}

	o.store.PutProfile(userID, profile)
	o.endSession(userID)

	slog.Info("ORCHESTRATOR: Profile committed",
		"user_id", userID,
		"water_goal_ml", profile.WaterGoalMl,
		"calorie_goal_kcal", profile.CalorieGoalKcal,
		"manual_goal", profile.CalorieGoalIsManual,
	)

	return []nutricoach.Message{nutricoach.TextMessage(userID, fmt.Sprintf(
		"Profile saved!\nDaily water goal: %.0f mL\nDaily calorie goal: %.0f kcal\nCurrent temperature in %s: %.1f°C",
		profile.WaterGoalMl, profile.CalorieGoalKcal, profile.City, temp))}
}

// renderCharts produces the water and calorie history charts, falling back
// to text when a chart has no data, and archives rendered images when an
// artifact store is configured.
func (o *Orchestrator) renderCharts(ctx context.Context, userID string, entry *nutricoach.EventLog) []nutricoach.Message {
	history, err := o.store.History(userID)
	if err != nil {
		return []nutricoach.Message{nutricoach.TextMessage(userID, profileRequiredText)}
	}

	var out []nutricoach.Message

	if png, err := o.charts.WaterProgress(history); err == nil {
		name := fmt.Sprintf("%s_%d_water.png", userID, o.now().Unix())
		o.archiveChart(ctx, name, png, entry)
		out = append(out, nutricoach.ImageMessage(userID, name, png, "Water progress"))
	} else {
		out = append(out, nutricoach.TextMessage(userID, "No water logged yet, nothing to plot."))
	}

	if png, err := o.charts.CalorieBalance(history); err == nil {
		name := fmt.Sprintf("%s_%d_calories.png", userID, o.now().Unix())
		o.archiveChart(ctx, name, png, entry)
		out = append(out, nutricoach.ImageMessage(userID, name, png, "Calorie balance"))
	} else {
		out = append(out, nutricoach.TextMessage(userID, "No food or workouts logged yet, nothing to plot."))
	}

	return out
}

// archiveChart is best-effort: a failed save is logged and recorded on the
// event entry, the chart is still delivered.
func (o *Orchestrator) archiveChart(ctx context.Context, name string, png []byte, entry *nutricoach.EventLog) {
	if o.artifacts == nil {
		return
	}
	if err := o.artifacts.Save(ctx, name, png); err != nil {
		entry.Error = fmt.Sprintf("archive %s: %v", name, err)
		slog.Error("ORCHESTRATOR: Failed to archive chart", "name", name, "error", err)
	}
}

func workoutTypesHint() string {
	types := ledger.WorkoutTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return "Supported workout types: " + strings.Join(names, ", ") + "."
}

func (o *Orchestrator) helpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, s := range o.registry.All() {
		fmt.Fprintf(&b, "%s - %s\n", s.Usage, s.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatProgress(p ledger.Progress) string {
	text := fmt.Sprintf(
		"Progress:\n\nWater:\n- Logged: %.0f mL of %.0f mL.\n- Remaining: %.0f mL.\n\nCalories:\n- Consumed: %.0f kcal of %.0f kcal.\n- Burned: %.0f kcal.\n- Net: %.0f kcal.",
		p.LoggedWaterMl, p.WaterGoalMl, p.RemainingWaterMl,
		p.LoggedCalories, p.CalorieGoalKcal, p.BurnedCalories, p.NetCalories,
	)
	if p.IncreaseWater {
		text += "\nTip: drink more water!"
	}
	if p.AdjustCalories {
		text += "\nTip: add some activity or cut back on calories."
	}
	return text
}

// EvictStale destroys sessions idle longer than maxIdle and returns how many
// were removed.
func (o *Orchestrator) EvictStale(maxIdle time.Duration) int {
	cutoff := o.now().Add(-maxIdle)

	o.mu.Lock()
	defer o.mu.Unlock()

	evicted := 0
	for userID, sess := range o.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(o.sessions, userID)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("ORCHESTRATOR: Evicted stale sessions", "count", evicted)
	}
	return evicted
}

// ActiveSessions reports how many flows are currently in progress.
func (o *Orchestrator) ActiveSessions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		o.userLocks[userID] = lock
	}
	return lock
}

func (o *Orchestrator) getSession(userID string) *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions[userID]
}

func (o *Orchestrator) startSession(userID string, state State) *Session {
	now := o.now()
	sess := &Session{State: state, StartedAt: now, UpdatedAt: now}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions[userID] = sess
	return sess
}

// touchSession refreshes the idle timestamp EvictStale checks. UpdatedAt is
// only ever read or written under o.mu; the rest of the Session is guarded
// by the per-user lock.
func (o *Orchestrator) touchSession(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if sess := o.sessions[userID]; sess != nil {
		sess.UpdatedAt = o.now()
	}
}

func (o *Orchestrator) endSession(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.sessions, userID)
}

func (o *Orchestrator) sessionState(userID string) string {
	if sess := o.getSession(userID); sess != nil {
		return string(sess.State)
	}
	return ""
}

func (o *Orchestrator) logEvent(entry nutricoach.EventLog) {
	if o.flowLogger == nil {
		return
	}
	if err := o.flowLogger.LogEvent(entry); err != nil {
		slog.Error("Failed to log flow event", "error", err, "user_id", entry.UserID)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
