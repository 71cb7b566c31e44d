package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"bix/config"
)

func TestEnvRoundTrip(t *testing.T) {
	ctx := ContextWithEnv(context.Background())

	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("environment start time not set")
	}

	// the pointer is shared, command setup mutates it in place
	env.NoSort = true
	if !EnvFromContext(ctx).NoSort {
		t.Error("environment changes are not visible through the context")
	}
}

func TestEnvFromContextPanicsWithoutEnv(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for context without environment")
		}
	}()
	EnvFromContext(context.Background())
}

func TestEnvUptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	if up := env.Uptime(); up < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, want at least 10ms", up)
	}
}

func TestEnvStdLogRedirect(t *testing.T) {
	env := &LocalEnv{Cfg: &config.Config{Version: 1}}

	// without a logger both calls are no-ops
	env.RedirectStdLog()
	if env.restoreStdLog != nil {
		t.Error("redirect happened without a logger")
	}
	env.RestoreStdLog()

	env.Log = zap.NewNop()
	env.RedirectStdLog()
	if env.restoreStdLog == nil {
		t.Error("redirect did not happen with a logger set")
	}
	env.RestoreStdLog()

	// restoring twice must be harmless
	env.RestoreStdLog()
}
