// Package venv provisions the isolated Python environment both services run
// from: a virtualenv under the project root with the manifest's dependencies
// installed into it.
package venv

import (
	"context"
	"fmt"
	"os"

	"mbsetup/internal/config"
	"mbsetup/internal/logger"
	"mbsetup/internal/runner"
)

// Provisioner creates the virtualenv and installs dependencies. Safe to run
// when the environment already exists: creation is skipped, the dependency
// install still runs so manifest changes are picked up.
type Provisioner struct {
	run runner.Runner
	cfg *config.Settings
}

// New creates a Provisioner for the resolved settings.
func New(run runner.Runner, cfg *config.Settings) *Provisioner {
	return &Provisioner{run: run, cfg: cfg}
}

// Ensure brings the environment to the declared state. Any failure aborts the
// install before descriptors are touched.
func (p *Provisioner) Ensure(ctx context.Context) error {
	path := p.cfg.VenvPath()

	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("venv path %s exists but is not a directory", path)
	case err == nil:
		logger.Info("virtualenv already exists", "path", path)
	default:
		logger.Info("creating virtualenv", "path", path)
		if _, err := p.run.Run(ctx, p.cfg.CommandTimeout, "python3", "-m", "venv", path); err != nil {
			return fmt.Errorf("create virtualenv: %w", err)
		}
	}

	logger.Info("installing dependencies", "manifest", p.cfg.RequirementsPath())
	if _, err := p.run.Run(ctx, p.cfg.PipTimeout, p.cfg.Pip(), "install", "-r", p.cfg.RequirementsPath()); err != nil {
		return fmt.Errorf("install dependencies: %w", err)
	}
	return nil
}
