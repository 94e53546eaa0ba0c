// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"fmt"
	"strings"
)

// Execution modes.
const (
	// RunOnce commands run until the first success per registry.
	RunOnce Mode = iota
	// RunAlways commands run on every RunAll.
	RunAlways
)

type (
	// Mode controls how often a registered command runs.
	Mode int

	// Command is a unit of work run before composing.
	Command interface {
		Name() string
		Run(ctx context.Context) error
	}

	// Registry runs registered commands in registration order.
	Registry struct {
		entries []*entry
	}

	entry struct {
		cmd      Command
		mode     Mode
		executed bool
	}
)

func (m Mode) String() string {
	switch m {
	case RunOnce:
		return "once"
	case RunAlways:
		return "always"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers cmd with the given mode.
func (r *Registry) Add(cmd Command, mode Mode) {
	r.entries = append(r.entries, &entry{cmd: cmd, mode: mode})
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.entries)
}

// RunAll runs every due command and stops at the first failure. A failed
// RunOnce command stays due.
func (r *Registry) RunAll(ctx context.Context) error {
	for _, e := range r.entries {
		if e.mode == RunOnce && e.executed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.cmd.Run(ctx); err != nil {
			return fmt.Errorf("command %s: %w", e.cmd.Name(), err)
		}
		e.executed = true
	}
	return nil
}

// ParseSwitch parses a boolean switch value. An empty value (after
// removing surrounding quotes) means the switch is on.
func ParseSwitch(value string) (bool, error) {
	v := strings.TrimSpace(value)
	if len(v) >= 2 && (v[0] == '"' && v[len(v)-1] == '"' || v[0] == '\'' && v[len(v)-1] == '\'') {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	switch {
	case v == "", strings.EqualFold(v, "true"):
		return true, nil
	case strings.EqualFold(v, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a valid boolean value", value)
	}
}
