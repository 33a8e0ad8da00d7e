// Package task defines research tasks and runs them: a Preparer builds the
// prompt (or decides there is nothing to research), the agent answers, and
// the runner prints its output and detects the ALERT/SILENT verdict.
package task

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/moolen/sentinel/internal/agent"
)

// Kind selects how a task's prompt is prepared.
type Kind string

const (
	// KindPrompt sends a fixed prompt.
	KindPrompt Kind = "prompt"
	// KindBlueskyLabelers probes subscribed labelers and reports on them.
	KindBlueskyLabelers Kind = "bluesky-labelers"
)

// DefaultRuleWidth is the width of separator lines for tasks that do not set one.
const DefaultRuleWidth = 50

// DefaultMaxTurns is the turn limit for new tasks that do not set one.
const DefaultMaxTurns = 10

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Task is one scheduled research job.
type Task struct {
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description,omitempty"`
	Kind         Kind          `yaml:"kind"`
	Schedule     time.Duration `yaml:"schedule,omitempty"`
	MaxTurns     int           `yaml:"max_turns"`
	AllowedTools []string      `yaml:"allowed_tools"`
	RuleWidth    int           `yaml:"rule_width,omitempty"`
	SystemPrompt string        `yaml:"system_prompt,omitempty"`
	Prompt       string        `yaml:"prompt,omitempty"`
}

// Validate checks that the task can be run.
func (t Task) Validate() error {
	if err := t.ValidateOverlay(); err != nil {
		return err
	}
	switch t.Kind {
	case KindPrompt:
		if t.Prompt == "" {
			return fmt.Errorf("task %s: prompt is required for kind %s", t.Name, t.Kind)
		}
	case KindBlueskyLabelers:
	default:
		return fmt.Errorf("task %s: unknown kind %q", t.Name, t.Kind)
	}
	if t.MaxTurns < 1 {
		return fmt.Errorf("task %s: max_turns must be at least 1", t.Name)
	}
	return nil
}

// ValidateOverlay checks only the fields an entry sets itself. Kind, MaxTurns
// and the prompts may still be empty; Catalog.Merge fills them from the task
// the entry replaces before running Validate.
func (t Task) ValidateOverlay() error {
	if !namePattern.MatchString(t.Name) {
		return fmt.Errorf("task name %q must match %s", t.Name, namePattern)
	}
	switch t.Kind {
	case "", KindPrompt, KindBlueskyLabelers:
	default:
		return fmt.Errorf("task %s: unknown kind %q", t.Name, t.Kind)
	}
	if t.MaxTurns < 0 {
		return fmt.Errorf("task %s: max_turns must not be negative", t.Name)
	}
	if t.Schedule < 0 {
		return fmt.Errorf("task %s: schedule must not be negative", t.Name)
	}
	for _, tool := range t.AllowedTools {
		if !slices.Contains(agent.KnownTools, tool) {
			return fmt.Errorf("task %s: unknown tool %q (known: %v)", t.Name, tool, agent.KnownTools)
		}
	}
	return nil
}

// Width returns the separator width for this task.
func (t Task) Width() int {
	if t.RuleWidth > 0 {
		return t.RuleWidth
	}
	return DefaultRuleWidth
}

// Request builds the agent request for prompt.
func (t Task) Request(prompt string) agent.Request {
	return agent.Request{
		Prompt:       prompt,
		SystemPrompt: t.SystemPrompt,
		MaxTurns:     t.MaxTurns,
		AllowedTools: t.AllowedTools,
	}
}
