package installer

import (
	"context"
	"time"

	"mbsetup/internal/runner"
	"mbsetup/internal/systemd"
	"mbsetup/internal/unit"
)

// fakeEnv records Ensure calls and optionally fails them.
type fakeEnv struct {
	calls int
	err   error
}

func (f *fakeEnv) Ensure(ctx context.Context) error {
	f.calls++
	return f.err
}

// fakeManager records unit writes and reloads.
type fakeManager struct {
	written  []unit.Unit
	reloads  int
	writeErr error

	actions []string
}

var _ systemd.Manager = (*fakeManager)(nil)

func (f *fakeManager) WriteUnit(u unit.Unit) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, u)
	return nil
}

func (f *fakeManager) DaemonReload(ctx context.Context) error {
	f.reloads++
	return nil
}

func (f *fakeManager) record(action, name string) error {
	f.actions = append(f.actions, action+" "+name)
	return nil
}

func (f *fakeManager) Start(ctx context.Context, name string) error {
	return f.record("start", name)
}

func (f *fakeManager) Stop(ctx context.Context, name string) error {
	return f.record("stop", name)
}

func (f *fakeManager) Restart(ctx context.Context, name string) error {
	return f.record("restart", name)
}

func (f *fakeManager) Enable(ctx context.Context, name string) error {
	return f.record("enable", name)
}

func (f *fakeManager) Disable(ctx context.Context, name string) error {
	return f.record("disable", name)
}

func (f *fakeManager) IsActive(ctx context.Context, name string) string { return "inactive" }

func (f *fakeManager) IsEnabled(ctx context.Context, name string) bool { return false }

func (f *fakeManager) StreamLogs(ctx context.Context, name string, follow bool) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

// fakeRunner records commands for the end-to-end test driving the real
// systemd manager and venv provisioner.
type fakeRunner struct {
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) (runner.Result, error) {
	cmd := name
	for _, arg := range args {
		cmd += " " + arg
	}
	f.calls = append(f.calls, cmd)
	return runner.Result{Command: cmd}, nil
}
