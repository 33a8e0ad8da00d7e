// Package audit records task runs to a JSONL file: the prompt that was sent,
// tools the agent used, the text it produced and the verdict. Each line is
// one Event so the file can be tailed or loaded with jq.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event.
type EventType string

const (
	// EventTypeRunStart marks the start of a task run.
	EventTypeRunStart EventType = "run_start"
	// EventTypePrompt records the prompt sent to the agent.
	EventTypePrompt EventType = "prompt"
	// EventTypeSkipped marks a run that finished without invoking the agent.
	EventTypeSkipped EventType = "skipped"
	// EventTypeToolUse marks a server-side tool call by the agent.
	EventTypeToolUse EventType = "tool_use"
	// EventTypeAgentText records the agent's full answer.
	EventTypeAgentText EventType = "agent_text"
	// EventTypeVerdict records the detected sentinel.
	EventTypeVerdict EventType = "verdict"
	// EventTypeError marks an error during the run.
	EventTypeError EventType = "error"
	// EventTypeRunEnd marks the end of a task run.
	EventTypeRunEnd EventType = "run_end"
)

// Event represents a single audit log event.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	RunID     string                 `json:"run_id"`
	Task      string                 `json:"task"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Logger writes audit events to a JSONL file. It is safe for concurrent use.
type Logger struct {
	file   *os.File
	writer *bufio.Writer
	mutex  sync.Mutex
	now    func() time.Time
}

// NewLogger opens filePath for appending, creating it if needed.
func NewLogger(filePath string) (*Logger, error) {
	// #nosec G304 -- audit log path is operator configuration
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		file:   file,
		writer: bufio.NewWriter(file),
		now:    time.Now,
	}, nil
}

func (l *Logger) write(event Event) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	if err := l.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush per event so a crashed run still leaves its trail.
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	return nil
}

// StartRun allocates a run ID and writes the run_start event. On a nil
// Logger it returns a nil *Run whose methods do nothing.
func (l *Logger) StartRun(task, agent string) (*Run, error) {
	if l == nil {
		return nil, nil
	}
	r := &Run{logger: l, ID: uuid.NewString(), Task: task}
	return r, r.log(EventTypeRunStart, map[string]interface{}{
		"agent": agent,
	})
}

// Close flushes pending writes and closes the file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var errs []error
	if err := l.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush audit log: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close audit log file: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing audit log: %v", errs)
	}
	return nil
}

// Run writes the events of one task run.
type Run struct {
	logger *Logger
	ID     string
	Task   string
}

func (r *Run) log(t EventType, data map[string]interface{}) error {
	if r == nil {
		return nil
	}
	return r.logger.write(Event{
		Timestamp: r.logger.now(),
		Type:      t,
		RunID:     r.ID,
		Task:      r.Task,
		Data:      data,
	})
}

// LogPrompt records the prompt and system prompt.
func (r *Run) LogPrompt(prompt, systemPrompt string, maxTurns int) error {
	return r.log(EventTypePrompt, map[string]interface{}{
		"prompt":        prompt,
		"system_prompt": systemPrompt,
		"max_turns":     maxTurns,
	})
}

// LogSkipped records a run that ended during preparation.
func (r *Run) LogSkipped(notice string) error {
	return r.log(EventTypeSkipped, map[string]interface{}{
		"notice": notice,
	})
}

// LogToolUse records a tool call made by the agent.
func (r *Run) LogToolUse(tool string, input json.RawMessage) error {
	data := map[string]interface{}{"tool_name": tool}
	if len(input) > 0 {
		data["input"] = input
	}
	return r.log(EventTypeToolUse, data)
}

// LogAgentText records the agent's full answer.
func (r *Run) LogAgentText(content string) error {
	return r.log(EventTypeAgentText, map[string]interface{}{
		"content": truncateString(content, 16384),
	})
}

// LogVerdict records the detected verdict and its sentinel line.
func (r *Run) LogVerdict(verdict, line string) error {
	return r.log(EventTypeVerdict, map[string]interface{}{
		"verdict": verdict,
		"line":    line,
	})
}

// LogError records a run failure.
func (r *Run) LogError(err error) error {
	return r.log(EventTypeError, map[string]interface{}{
		"error": err.Error(),
	})
}

// LogEnd records run completion with token usage.
func (r *Run) LogEnd(duration time.Duration, inputTokens, outputTokens int64) error {
	return r.log(EventTypeRunEnd, map[string]interface{}{
		"duration_ms":   duration.Milliseconds(),
		"input_tokens":  inputTokens,
		"output_tokens": outputTokens,
		"total_tokens":  inputTokens + outputTokens,
	})
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...[truncated]"
}
