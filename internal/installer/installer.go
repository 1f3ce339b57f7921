// Package installer runs the install pipeline: provision the Python
// environment, gate on credentials, regenerate both unit files, reload
// systemd, and print the operator follow-ups. Stages run strictly in order
// and the first failure aborts the run; re-running is the recovery path and
// every stage is idempotent.
package installer

import (
	"context"
	"fmt"
	"io"

	"mbsetup/internal/config"
	"mbsetup/internal/credentials"
	"mbsetup/internal/logger"
	"mbsetup/internal/systemd"
	"mbsetup/internal/unit"
)

// EnvProvisioner is the environment-provisioning stage.
type EnvProvisioner interface {
	Ensure(ctx context.Context) error
}

// Installer wires the stages together.
type Installer struct {
	cfg    *config.Settings
	env    EnvProvisioner
	mgr    systemd.Manager
	out    io.Writer
	dryRun bool
}

// New creates an Installer writing operator output to out.
func New(cfg *config.Settings, env EnvProvisioner, mgr systemd.Manager, out io.Writer, dryRun bool) *Installer {
	return &Installer{cfg: cfg, env: env, mgr: mgr, out: out, dryRun: dryRun}
}

// Units returns both descriptors resolved from the settings, bot first.
func (i *Installer) Units() []unit.Unit {
	return []unit.Unit{unit.Bot(i.cfg), unit.Dashboard(i.cfg)}
}

// Run executes the pipeline. A credentials.ErrMissing return means the
// precondition gate failed and nothing was written to the unit directory.
func (i *Installer) Run(ctx context.Context) error {
	logger.Info("installing", "root", i.cfg.ProjectRoot, "user", i.cfg.User)

	if i.dryRun {
		return i.plan()
	}

	if err := i.env.Ensure(ctx); err != nil {
		return fmt.Errorf("environment provisioning: %w", err)
	}

	if err := credentials.Check(i.cfg.EnvFilePath()); err != nil {
		fmt.Fprint(i.out, credentials.Remediation(i.cfg.EnvFilePath()))
		return err
	}

	for _, u := range i.Units() {
		if err := i.mgr.WriteUnit(u); err != nil {
			return err
		}
	}

	if err := i.mgr.DaemonReload(ctx); err != nil {
		return err
	}

	i.report()
	return nil
}

// plan prints what an install would do without mutating anything.
func (i *Installer) plan() error {
	fmt.Fprintf(i.out, "Would ensure virtualenv at %s\n", i.cfg.VenvPath())
	fmt.Fprintf(i.out, "Would install dependencies from %s\n", i.cfg.RequirementsPath())
	fmt.Fprintf(i.out, "Would check credentials file %s\n", i.cfg.EnvFilePath())
	for _, u := range i.Units() {
		fmt.Fprintf(i.out, "Would write %s/%s\n", i.cfg.UnitDir, u.Filename())
	}
	fmt.Fprintln(i.out, "Would run systemctl daemon-reload")
	return nil
}

// report prints the follow-up commands. Installing never starts the
// services; activation is the operator's explicit call.
func (i *Installer) report() {
	bot := i.cfg.BotService
	dash := i.cfg.DashboardService

	fmt.Fprintf(i.out, `
Install complete. Services are registered but not started.

Start now:
  sudo systemctl start %[1]s
  sudo systemctl start %[2]s

Enable on boot:
  sudo systemctl enable %[1]s
  sudo systemctl enable %[2]s

Tail logs:
  journalctl -u %[1]s -f
  journalctl -u %[2]s -f

Open the dashboard port:
  sudo ufw allow %[3]d

Dashboard will be at http://<server-ip>:%[3]d
`, bot, dash, i.cfg.DashboardPort)
}
