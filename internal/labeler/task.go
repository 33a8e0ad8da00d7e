package labeler

import (
	"time"

	"github.com/moolen/sentinel/internal/agent"
	"github.com/moolen/sentinel/internal/task"
)

// TaskName is the name of the built-in labeler monitoring task.
const TaskName = "bluesky-labelers"

// Task returns the built-in labeler monitoring task, scheduled biweekly.
func Task() task.Task {
	return task.Task{
		Name:         TaskName,
		Description:  "Check subscribed Bluesky labelers for connectivity problems and new controversies",
		Kind:         task.KindBlueskyLabelers,
		Schedule:     14 * 24 * time.Hour,
		MaxTurns:     15,
		AllowedTools: []string{agent.ToolWebSearch, agent.ToolWebFetch},
		RuleWidth:    70,
		SystemPrompt: SystemPrompt,
		Prompt:       ResearchPrompt,
	}
}
