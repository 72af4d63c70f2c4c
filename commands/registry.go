package commands

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Command names recognized by the orchestrator.
const (
	Start         = "start"
	Help          = "help"
	SetProfile    = "set_profile"
	LogWater      = "log_water"
	LogFood       = "log_food"
	LogWorkout    = "log_workout"
	CheckProgress = "check_progress"
	ShowGraph     = "show_graph"
	Cancel        = "cancel"
)

// Registry maps command names to their specs, preserving declaration order.
type Registry struct {
	specs  []Spec
	byName map[string]Spec
}

// NewRegistry builds the fixed command set.
func NewRegistry() *Registry {
	zero := 0.0
	specs := []Spec{
		{
			Name:        Start,
			Description: "Greeting and quick start",
			Usage:       "/start",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
		{
			Name:        Help,
			Description: "Show available commands",
			Usage:       "/help",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
		{
			Name:        SetProfile,
			Description: "Set up your profile",
			Usage:       "/set_profile",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
		{
			Name:        LogWater,
			Description: "Log water intake (mL)",
			Usage:       "/log_water <amount_ml>",
			ArgNames:    []string{"amount_ml"},
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"amount_ml": {Type: "number", Minimum: &zero},
				},
				Required: []string{"amount_ml"},
			},
		},
		{
			Name:         LogFood,
			Description:  "Log food by name",
			Usage:        "/log_food <product name>",
			ArgNames:     []string{"query"},
			TrailingText: true,
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string"},
				},
			},
		},
		{
			Name:        LogWorkout,
			Description: "Log a workout",
			Usage:       "/log_workout <run|walk|strength|cycle|other> <minutes>",
			ArgNames:    []string{"type", "minutes"},
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"type":    {Type: "string"},
					"minutes": {Type: "number", Minimum: &zero},
				},
				Required: []string{"type", "minutes"},
			},
		},
		{
			Name:        CheckProgress,
			Description: "Check today's progress",
			Usage:       "/check_progress",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
		{
			Name:        ShowGraph,
			Description: "Show progress charts",
			Usage:       "/show_graph",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
		{
			Name:        Cancel,
			Description: "Cancel the current dialogue",
			Usage:       "/cancel",
			Schema:      &jsonschema.Schema{Type: "object"},
		},
	}

	byName := make(map[string]Spec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}
	return &Registry{specs: specs, byName: byName}
}

// Get retrieves a command spec by name.
func (r *Registry) Get(name string) (Spec, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// All returns the command specs in declaration order.
func (r *Registry) All() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// UsageHint lists every command with its usage line, shown when input isn't
// recognized.
func (r *Registry) UsageHint() string {
	var b strings.Builder
	b.WriteString("I didn't recognize that. Available commands:\n")
	for _, s := range r.specs {
		fmt.Fprintf(&b, "%s - %s\n", s.Usage, s.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
