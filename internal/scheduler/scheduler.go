// Package scheduler runs tasks on their configured intervals inside the
// daemon. Due tasks run one at a time; a run that is still going when the
// next tick fires delays that tick.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/sentinel/internal/logging"
	"github.com/moolen/sentinel/internal/task"
)

// DefaultTick is how often the scheduler checks for due tasks.
const DefaultTick = time.Minute

// RunFunc executes one task.
type RunFunc func(ctx context.Context, t task.Task) error

// Config wires a Scheduler.
type Config struct {
	Run  RunFunc
	Tick time.Duration
	// RunOnStart makes newly added tasks due immediately instead of one
	// interval after they were added.
	RunOnStart bool
}

// Scheduler implements lifecycle.Component.
type Scheduler struct {
	run        RunFunc
	tick       time.Duration
	runOnStart bool
	now        func() time.Time
	logger     *logging.Logger

	mu      sync.Mutex
	tasks   []task.Task
	lastRun map[string]time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Run == nil {
		return nil, fmt.Errorf("scheduler requires a run function")
	}
	tick := cfg.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Scheduler{
		run:        cfg.Run,
		tick:       tick,
		runOnStart: cfg.RunOnStart,
		now:        time.Now,
		logger:     logging.GetLogger("scheduler"),
		lastRun:    make(map[string]time.Time),
	}, nil
}

// SetTasks replaces the scheduled set. Tasks without a positive schedule are
// ignored. Run history is kept for tasks that remain.
func (s *Scheduler) SetTasks(tasks []task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keep := make(map[string]time.Time, len(tasks))
	s.tasks = s.tasks[:0]
	for _, t := range tasks {
		if t.Schedule <= 0 {
			continue
		}
		s.tasks = append(s.tasks, t)
		if last, ok := s.lastRun[t.Name]; ok {
			keep[t.Name] = last
		} else if !s.runOnStart {
			keep[t.Name] = now
		}
	}
	s.lastRun = keep
	s.logger.Info("Scheduling %d task(s)", len(s.tasks))
}

// Due returns tasks whose interval has elapsed at now, in the order given to
// SetTasks.
func (s *Scheduler) Due(now time.Time) []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []task.Task
	for _, t := range s.tasks {
		last, ok := s.lastRun[t.Name]
		if !ok || !now.Before(last.Add(t.Schedule)) {
			due = append(due, t)
		}
	}
	return due
}

// NextRun returns when the named task is next due.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.Name != name {
			continue
		}
		last, ok := s.lastRun[name]
		if !ok {
			return s.now(), true
		}
		return last.Add(t.Schedule), true
	}
	return time.Time{}, false
}

// RunDue runs every due task sequentially and returns how many ran. A failed
// run still counts as a run so a broken task waits a full interval.
func (s *Scheduler) RunDue(ctx context.Context) int {
	ran := 0
	for _, t := range s.Due(s.now()) {
		if ctx.Err() != nil {
			break
		}
		s.logger.Info("Running task %s", t.Name)
		if err := s.run(ctx, t); err != nil {
			s.logger.Error("Task %s failed: %v", t.Name, err)
		}
		s.mu.Lock()
		s.lastRun[t.Name] = s.now()
		s.mu.Unlock()
		ran++
	}
	return ran
}

// Start begins the tick loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.RunDue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// Stop cancels any in-flight run and waits for the loop to exit.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name implements lifecycle.Component.
func (s *Scheduler) Name() string {
	return "Scheduler"
}
