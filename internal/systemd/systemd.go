// Package systemd writes unit files and drives systemctl/journalctl for the
// two trading services.
package systemd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mbsetup/internal/logger"
	"mbsetup/internal/runner"
	"mbsetup/internal/unit"
)

// Manager is the service-manager surface the installer and the operator
// subcommands depend on.
type Manager interface {
	// WriteUnit renders the descriptor and overwrites its unit file.
	WriteUnit(u unit.Unit) error

	// DaemonReload makes systemd re-read unit definitions.
	DaemonReload(ctx context.Context) error

	// Start starts a service
	Start(ctx context.Context, name string) error

	// Stop stops a service
	Stop(ctx context.Context, name string) error

	// Restart restarts a service
	Restart(ctx context.Context, name string) error

	// Enable enables a service to start at boot
	Enable(ctx context.Context, name string) error

	// Disable disables a service from starting at boot
	Disable(ctx context.Context, name string) error

	// IsActive returns the service's activation state (e.g. "active",
	// "inactive", "failed").
	IsActive(ctx context.Context, name string) string

	// IsEnabled reports whether the service starts at boot.
	IsEnabled(ctx context.Context, name string) bool

	// StreamLogs returns a channel that streams journal lines for a service.
	StreamLogs(ctx context.Context, name string, follow bool) (<-chan string, error)
}

// Systemctl is the real Manager shelling out to systemctl and journalctl.
type Systemctl struct {
	run     runner.Runner
	unitDir string
	timeout time.Duration
}

// New creates a Systemctl writing unit files under unitDir and bounding each
// systemctl invocation by timeout.
func New(run runner.Runner, unitDir string, timeout time.Duration) *Systemctl {
	return &Systemctl{run: run, unitDir: unitDir, timeout: timeout}
}

// unitName ensures the .service suffix.
func unitName(name string) string {
	if !strings.HasSuffix(name, ".service") {
		name += ".service"
	}
	return name
}

func (s *Systemctl) WriteUnit(u unit.Unit) error {
	path := filepath.Join(s.unitDir, u.Filename())
	if err := os.WriteFile(path, []byte(u.Render()), 0o644); err != nil {
		return fmt.Errorf("write unit %s: %w", u.Filename(), err)
	}
	logger.Info("wrote unit file", "path", path)
	return nil
}

func (s *Systemctl) DaemonReload(ctx context.Context) error {
	if _, err := s.run.Run(ctx, s.timeout, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w", err)
	}
	return nil
}

func (s *Systemctl) runSystemctl(ctx context.Context, action, name string) error {
	if _, err := s.run.Run(ctx, s.timeout, "systemctl", action, unitName(name)); err != nil {
		return fmt.Errorf("systemctl %s %s: %w", action, name, err)
	}
	return nil
}

func (s *Systemctl) Start(ctx context.Context, name string) error {
	return s.runSystemctl(ctx, "start", name)
}

func (s *Systemctl) Stop(ctx context.Context, name string) error {
	return s.runSystemctl(ctx, "stop", name)
}

func (s *Systemctl) Restart(ctx context.Context, name string) error {
	return s.runSystemctl(ctx, "restart", name)
}

func (s *Systemctl) Enable(ctx context.Context, name string) error {
	return s.runSystemctl(ctx, "enable", name)
}

func (s *Systemctl) Disable(ctx context.Context, name string) error {
	return s.runSystemctl(ctx, "disable", name)
}

func (s *Systemctl) IsActive(ctx context.Context, name string) string {
	// is-active exits non-zero for anything but "active"; the state is still
	// on stdout either way.
	result, _ := s.run.Run(ctx, s.timeout, "systemctl", "is-active", unitName(name))
	state := strings.TrimSpace(result.Output)
	if state == "" {
		return "unknown"
	}
	return state
}

func (s *Systemctl) IsEnabled(ctx context.Context, name string) bool {
	result, _ := s.run.Run(ctx, s.timeout, "systemctl", "is-enabled", unitName(name))
	return strings.TrimSpace(result.Output) == "enabled"
}

func (s *Systemctl) StreamLogs(ctx context.Context, name string, follow bool) (<-chan string, error) {
	args := []string{"-u", unitName(name), "-n", "100", "--no-pager"}
	if follow {
		args = append(args, "-f")
	}

	cmd := exec.CommandContext(ctx, "journalctl", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start journalctl: %w", err)
	}

	ch := make(chan string, 100)
	go func() {
		defer close(ch)
		defer cmd.Wait()

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case ch <- scanner.Text():
			}
		}
	}()

	return ch, nil
}
