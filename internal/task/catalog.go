package task

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a named set of tasks. Safe for concurrent use; the daemon
// replaces file-defined tasks while runs read from it.
type Catalog struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewCatalog creates a catalog holding tasks. Later entries replace earlier
// ones with the same name.
func NewCatalog(tasks ...Task) *Catalog {
	c := &Catalog{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		c.tasks[t.Name] = t
	}
	return c
}

// Get returns the task called name.
func (c *Catalog) Get(name string) (Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[name]
	return t, ok
}

// Lookup is Get with a descriptive error.
func (c *Catalog) Lookup(name string) (Task, error) {
	if t, ok := c.Get(name); ok {
		return t, nil
	}
	return Task{}, fmt.Errorf("unknown task %q (available: %v)", name, c.Names())
}

// Merge validates tasks and adds them, replacing same-named entries. Fields
// left empty keep the replaced task's values, so a tasks file can reschedule
// a built-in task with nothing but its name and schedule. A new task without
// a kind or turn limit gets KindPrompt and DefaultMaxTurns. Nothing is added
// unless every task is valid.
func (c *Catalog) Merge(tasks []Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		prev, ok := c.tasks[t.Name]
		if ok {
			if t.Kind == "" {
				t.Kind = prev.Kind
			}
			if t.Kind == prev.Kind {
				t = inherit(t, prev)
			}
		}
		if t.Kind == "" {
			t.Kind = KindPrompt
		}
		if t.MaxTurns == 0 {
			t.MaxTurns = DefaultMaxTurns
		}
		if err := t.Validate(); err != nil {
			return err
		}
		merged = append(merged, t)
	}
	for _, t := range merged {
		c.tasks[t.Name] = t
	}
	return nil
}

func inherit(t, base Task) Task {
	if t.MaxTurns == 0 {
		t.MaxTurns = base.MaxTurns
	}
	if t.Description == "" {
		t.Description = base.Description
	}
	if t.SystemPrompt == "" {
		t.SystemPrompt = base.SystemPrompt
	}
	if t.Prompt == "" {
		t.Prompt = base.Prompt
	}
	if len(t.AllowedTools) == 0 {
		t.AllowedTools = base.AllowedTools
	}
	if t.RuleWidth == 0 {
		t.RuleWidth = base.RuleWidth
	}
	return t
}

// Clone returns an independent copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	return NewCatalog(c.List()...)
}

// Names returns task names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tasks))
	for name := range c.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all tasks sorted by name.
func (c *Catalog) List() []Task {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Task, 0, len(names))
	for _, n := range names {
		out = append(out, c.tasks[n])
	}
	return out
}

// Scheduled returns tasks with a positive schedule interval, sorted by name.
func (c *Catalog) Scheduled() []Task {
	var out []Task
	for _, t := range c.List() {
		if t.Schedule > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Template is the built-in example task. Copy it into a tasks file, replace
// the bracketed placeholders and give it a schedule; the built-in copy only
// runs on demand.
func Template() Task {
	return Task{
		Name:         "template",
		Description:  "Example research task with placeholder instructions",
		Kind:         KindPrompt,
		MaxTurns:     DefaultMaxTurns,
		AllowedTools: []string{"WebSearch", "WebFetch"},
		RuleWidth:    50,
		SystemPrompt: templateSystemPrompt,
		Prompt:       templatePrompt,
	}
}

const templateSystemPrompt = `You are a focused research agent.
Your job: search for specific information, analyze findings, report concisely.
Be thorough but efficient. Only report significant findings.`

const templatePrompt = `
Research Task: [DESCRIBE YOUR TASK]

Search for:
1. [Specific thing to monitor]
2. [Another thing to check]

Sources to check:
- [Official website/blog]
- [GitHub releases]
- [Documentation]

If [condition that matters]:
  - Print "ALERT: [Brief summary of what was found]"

If nothing significant found:
  - Print "SILENT"

Be thorough but efficient with searches.
`
