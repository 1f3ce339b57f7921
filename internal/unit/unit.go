// Package unit models systemd service units as typed records with a single
// deterministic renderer, so descriptors can be compared structurally in
// tests and regenerate byte-identically from the same inputs.
package unit

import (
	"fmt"
	"strings"

	"mbsetup/internal/config"
)

// baselinePath is the search path the venv bin directory is prepended to.
// Fixed rather than inherited from the installer's environment so rendering
// the same settings always produces the same bytes.
const baselinePath = "/usr/local/bin:/usr/bin:/bin"

// Unit describes one systemd service unit.
type Unit struct {
	Name             string // service name without the .service suffix
	Description      string
	After            string
	Type             string
	User             string
	WorkingDirectory string
	ExecStart        string
	Restart          string
	RestartSec       int
	Environment      []string
	WantedBy         string
}

// Filename is the unit file name consumed by systemd.
func (u Unit) Filename() string {
	return u.Name + ".service"
}

// Render serializes the unit to systemd INI text. Field order is fixed.
func (u Unit) Render() string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", u.Description)
	fmt.Fprintf(&b, "After=%s\n", u.After)

	b.WriteString("\n[Service]\n")
	fmt.Fprintf(&b, "Type=%s\n", u.Type)
	fmt.Fprintf(&b, "User=%s\n", u.User)
	fmt.Fprintf(&b, "WorkingDirectory=%s\n", u.WorkingDirectory)
	fmt.Fprintf(&b, "ExecStart=%s\n", u.ExecStart)
	fmt.Fprintf(&b, "Restart=%s\n", u.Restart)
	fmt.Fprintf(&b, "RestartSec=%d\n", u.RestartSec)
	for _, env := range u.Environment {
		fmt.Fprintf(&b, "Environment=%q\n", env)
	}

	b.WriteString("\n[Install]\n")
	fmt.Fprintf(&b, "WantedBy=%s\n", u.WantedBy)

	return b.String()
}

// base carries the fields shared by both services: run as the operator from
// the project root, restart always after the configured delay, resolve
// executables from the venv first.
func base(cfg *config.Settings) Unit {
	return Unit{
		After:            "network.target",
		Type:             "simple",
		User:             cfg.User,
		WorkingDirectory: cfg.ProjectRoot,
		Restart:          "always",
		RestartSec:       cfg.RestartSec,
		Environment:      []string{"PATH=" + cfg.VenvBin() + ":" + baselinePath},
		WantedBy:         "multi-user.target",
	}
}

// Bot builds the trading bot's descriptor: the venv interpreter running the
// bot entry point.
func Bot(cfg *config.Settings) Unit {
	u := base(cfg)
	u.Name = cfg.BotService
	u.Description = "Matchbook trading bot"
	u.ExecStart = fmt.Sprintf("%s %s/%s", cfg.Python(), cfg.ProjectRoot, cfg.BotEntry)
	return u
}

// Dashboard builds the dashboard's descriptor: streamlit serving the app on
// all interfaces at the configured port.
func Dashboard(cfg *config.Settings) Unit {
	u := base(cfg)
	u.Name = cfg.DashboardService
	u.Description = "Matchbook trading dashboard"
	u.ExecStart = fmt.Sprintf("%s run %s/%s --server.address 0.0.0.0 --server.port %d",
		cfg.Streamlit(), cfg.ProjectRoot, cfg.DashboardEntry, cfg.DashboardPort)
	return u
}
