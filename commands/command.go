// Package commands describes the bot's command surface: names, usage lines,
// and jsonschema argument specs. The registry drives argument parsing, the
// usage hint for unknown commands, and transport-side command registration.
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Spec describes one command and how its positional arguments map onto the
// properties of its input schema.
type Spec struct {
	Name        string
	Description string
	Usage       string

	// ArgNames lists schema property names in positional order.
	ArgNames []string

	// TrailingText makes the final argument consume the rest of the line,
	// so multi-word food queries survive tokenization.
	TrailingText bool

	Schema *jsonschema.Schema
}

// Split extracts a command invocation from raw message text. It accepts the
// "/name arg arg" form and tolerates a "@botname" suffix on the command.
func Split(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text)
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}

// ParseArgs coerces positional tokens against the spec's schema property
// types. Missing required arguments and unparsable numbers return an error
// whose message is suitable to show the user directly. Surplus tokens after
// the declared arguments are ignored.
func (s Spec) ParseArgs(args []string) (map[string]any, error) {
	out := make(map[string]any, len(s.ArgNames))

	required := make(map[string]bool, len(s.ArgNames))
	if s.Schema != nil {
		for _, name := range s.Schema.Required {
			required[name] = true
		}
	}

	for i, argName := range s.ArgNames {
		if i >= len(args) {
			if required[argName] {
				return nil, fmt.Errorf("usage: %s", s.Usage)
			}
			continue
		}

		token := args[i]
		if s.TrailingText && i == len(s.ArgNames)-1 {
			token = strings.Join(args[i:], " ")
		}

		prop, ok := s.Schema.Properties[argName]
		if !ok {
			return nil, fmt.Errorf("command %q has no argument %q", s.Name, argName)
		}

		switch prop.Type {
		case "number":
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, fmt.Errorf("please enter a number for %s", argName)
			}
			if prop.Minimum != nil && v < *prop.Minimum {
				return nil, fmt.Errorf("%s must be at least %v", argName, *prop.Minimum)
			}
			out[argName] = v
		case "integer":
			v, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("please enter a whole number for %s", argName)
			}
			if prop.Minimum != nil && float64(v) < *prop.Minimum {
				return nil, fmt.Errorf("%s must be at least %v", argName, *prop.Minimum)
			}
			out[argName] = v
		default:
			out[argName] = token
		}
	}

	return out, nil
}
