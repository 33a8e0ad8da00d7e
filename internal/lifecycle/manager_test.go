package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
	block    bool
}

func (f *fakeComponent) Start(ctx context.Context) error {
	f.rec.events = append(f.rec.events, "start "+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	f.rec.events = append(f.rec.events, "stop "+f.name)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.stopErr
}

func (f *fakeComponent) Name() string { return f.name }

func TestManager_StartsInDependencyOrderAndStopsInReverse(t *testing.T) {
	rec := &recorder{}
	tracing := &fakeComponent{name: "tracing", rec: rec}
	metrics := &fakeComponent{name: "metrics", rec: rec}
	scheduler := &fakeComponent{name: "scheduler", rec: rec}

	m := NewManager()
	require.NoError(t, m.Register(tracing))
	require.NoError(t, m.Register(metrics))
	require.NoError(t, m.Register(scheduler, tracing, metrics))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning(scheduler))

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.IsRunning(scheduler))

	assert.Equal(t, []string{
		"start tracing", "start metrics", "start scheduler",
		"stop scheduler", "stop metrics", "stop tracing",
	}, rec.events)
}

func TestManager_RollsBackOnStartFailure(t *testing.T) {
	rec := &recorder{}
	a := &fakeComponent{name: "a", rec: rec}
	b := &fakeComponent{name: "b", rec: rec, startErr: errors.New("port in use")}

	m := NewManager()
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b, a))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialization failed for b")
	assert.Equal(t, []string{"start a", "start b", "stop a"}, rec.events)
	assert.False(t, m.IsRunning(a))
}

func TestManager_RegisterValidation(t *testing.T) {
	rec := &recorder{}
	a := &fakeComponent{name: "a", rec: rec}
	unregistered := &fakeComponent{name: "x", rec: rec}

	m := NewManager()
	require.Error(t, m.Register(nil))
	require.Error(t, m.Register(&fakeComponent{rec: rec}))
	require.NoError(t, m.Register(a))
	require.Error(t, m.Register(a))
	require.Error(t, m.Register(&fakeComponent{name: "b", rec: rec}, unregistered))
}

func TestManager_StopTimeoutDoesNotBlockOthers(t *testing.T) {
	rec := &recorder{}
	a := &fakeComponent{name: "a", rec: rec}
	stuck := &fakeComponent{name: "stuck", rec: rec, block: true}

	m := NewManager()
	m.SetShutdownTimeout(20 * time.Millisecond)
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(stuck, a))
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Stop(context.Background()))
	assert.Equal(t, []string{"start a", "start stuck", "stop stuck", "stop a"}, rec.events)
}
