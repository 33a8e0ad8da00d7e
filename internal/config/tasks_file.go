package config

import (
	"fmt"
	"time"

	"github.com/moolen/sentinel/internal/task"
)

// TasksFile represents the top-level structure of the tasks file.
//
// Example YAML structure:
//
//	schema_version: v1
//	tasks:
//	  - name: react-19
//	    kind: prompt
//	    schedule: 24h
//	    max_turns: 10
//	    allowed_tools: [WebSearch]
//	    prompt: |
//	      Has React 19 stable been released? ...
type TasksFile struct {
	// SchemaVersion is the explicit config schema version (e.g., "v1")
	SchemaVersion string `yaml:"schema_version"`

	// Tasks is the list of task definitions
	Tasks []TaskConfig `yaml:"tasks"`
}

// TaskConfig is one task as written in the tasks file.
type TaskConfig struct {
	// Name must be unique within the file. A name matching a built-in task
	// replaces it.
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Kind is "prompt" or "bluesky-labelers". Empty keeps the kind of the
	// built-in task being replaced, or "prompt" for a new task.
	Kind string `yaml:"kind"`

	// Schedule is a Go duration ("24h", "336h"); empty means run on demand only
	Schedule string `yaml:"schedule"`

	MaxTurns     int      `yaml:"max_turns"`
	AllowedTools []string `yaml:"allowed_tools"`
	RuleWidth    int      `yaml:"rule_width"`
	SystemPrompt string   `yaml:"system_prompt"`
	Prompt       string   `yaml:"prompt"`
}

// Validate checks that the TasksFile is valid.
// Returns descriptive errors for validation failures.
func (f *TasksFile) Validate() error {
	if f.SchemaVersion != "v1" {
		return NewConfigError(fmt.Sprintf(
			"unsupported schema_version: %q (expected \"v1\")",
			f.SchemaVersion,
		))
	}

	seenNames := make(map[string]bool)
	for i, tc := range f.Tasks {
		if tc.Name == "" {
			return NewConfigError(fmt.Sprintf("tasks[%d]: name is required", i))
		}
		if seenNames[tc.Name] {
			return NewConfigError(fmt.Sprintf("tasks[%d]: duplicate task name %q", i, tc.Name))
		}
		seenNames[tc.Name] = true

		t, err := tc.Task()
		if err != nil {
			return NewConfigError(fmt.Sprintf("tasks[%d] (%s): %v", i, tc.Name, err))
		}
		if err := t.ValidateOverlay(); err != nil {
			return NewConfigError(fmt.Sprintf("tasks[%d]: %v", i, err))
		}
	}
	return nil
}

// Task converts the file entry into a task. Kind and MaxTurns stay zero when
// the entry omits them; task.Catalog.Merge fills them from the task it
// replaces or from the defaults.
func (tc TaskConfig) Task() (task.Task, error) {
	t := task.Task{
		Name:         tc.Name,
		Description:  tc.Description,
		Kind:         task.Kind(tc.Kind),
		MaxTurns:     tc.MaxTurns,
		AllowedTools: tc.AllowedTools,
		RuleWidth:    tc.RuleWidth,
		SystemPrompt: tc.SystemPrompt,
		Prompt:       tc.Prompt,
	}
	if tc.Schedule != "" {
		d, err := time.ParseDuration(tc.Schedule)
		if err != nil {
			return task.Task{}, fmt.Errorf("invalid schedule %q: %w", tc.Schedule, err)
		}
		t.Schedule = d
	}
	return t, nil
}

// ToTasks converts every entry. The file must have passed Validate.
func (f *TasksFile) ToTasks() ([]task.Task, error) {
	tasks := make([]task.Task, 0, len(f.Tasks))
	for _, tc := range f.Tasks {
		t, err := tc.Task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// FromTask is the inverse of TaskConfig.Task, used to print tasks in the
// tasks file format.
func FromTask(t task.Task) TaskConfig {
	return TaskConfig{
		Name:         t.Name,
		Description:  t.Description,
		Kind:         string(t.Kind),
		Schedule:     formatSchedule(t.Schedule),
		MaxTurns:     t.MaxTurns,
		AllowedTools: t.AllowedTools,
		RuleWidth:    t.RuleWidth,
		SystemPrompt: t.SystemPrompt,
		Prompt:       t.Prompt,
	}
}

func formatSchedule(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return d.String()
	}
}
