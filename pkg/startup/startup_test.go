package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup_StartsDependenciesFirst(t *testing.T) {
	s := newTestStartup(1)
	var started, stopped []string
	record := func(name string) Func {
		return Func{
			Name:      name,
			StartFunc: func(context.Context) error { started = append(started, name); return nil },
			StopFunc:  func(context.Context) error { stopped = append(stopped, name); return nil },
		}
	}

	service := record("service")
	service.Requires = []string{"postgres", "redis"}
	s.AddDependency(service)
	s.AddDependency(record("postgres"))
	s.AddDependency(record("redis"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"postgres", "redis", "service"}, started)
	assert.Equal(t, StartupStatusStarted, s.Status("service"))

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"redis", "postgres", "service"}, stopped)
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	s := newTestStartup(3)
	calls := 0
	s.AddDependency(Func{Name: "postgres", StartFunc: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_GivesUp(t *testing.T) {
	s := newTestStartup(2)
	s.AddDependency(Func{Name: "kafka", StartFunc: func(context.Context) error {
		return errors.New("no brokers")
	}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
}

func TestStartup_UnregisteredRequirement(t *testing.T) {
	s := newTestStartup(1)
	s.AddDependency(Func{Name: "service", Requires: []string{"graph"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered dependency 'graph'")
}
