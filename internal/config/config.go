// Package config exposes the strongly typed installer settings, with defaults
// matching the Matchbook trading system layout and an optional YAML override file.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings collects every value the installer needs, resolved once at startup
// and threaded through the components as parameters. Ambient process state
// (working directory, invoking user) is captured here by Resolve and never
// read ad hoc later.
type Settings struct {
	// ProjectRoot is the absolute path of the trading-system checkout.
	// Resolved by Resolve; not settable from YAML.
	ProjectRoot string `yaml:"-"`

	// User is the operator account both services run as. Resolved by Resolve.
	User string `yaml:"-"`

	VenvDir        string `yaml:"venv_dir"`
	Requirements   string `yaml:"requirements"`
	EnvFile        string `yaml:"env_file"`
	BotEntry       string `yaml:"bot_entry"`
	DashboardEntry string `yaml:"dashboard_entry"`
	DashboardPort  int    `yaml:"dashboard_port"`

	UnitDir          string `yaml:"unit_dir"`
	BotService       string `yaml:"bot_service"`
	DashboardService string `yaml:"dashboard_service"`
	RestartSec       int    `yaml:"restart_sec"`

	// Timeouts are fixed policy rather than YAML-tunable; a hung pip or
	// systemctl should fail the run, not be waited out longer.
	PipTimeout     time.Duration `yaml:"-"`
	CommandTimeout time.Duration `yaml:"-"`
}

// Default returns the settings for a stock checkout: venv under the project
// root, requirements.txt manifest, .env credentials, Streamlit dashboard on
// port 8501, units under /etc/systemd/system.
func Default() *Settings {
	return &Settings{
		VenvDir:          "venv",
		Requirements:     "requirements.txt",
		EnvFile:          ".env",
		BotEntry:         "bot.py",
		DashboardEntry:   "app.py",
		DashboardPort:    8501,
		UnitDir:          "/etc/systemd/system",
		BotService:       "matchbook-bot",
		DashboardService: "matchbook-dashboard",
		RestartSec:       10,
		PipTimeout:       10 * time.Minute,
		CommandTimeout:   time.Minute,
	}
}

// Load reads a YAML override file on top of the defaults.
func Load(path string) (*Settings, error) {
	settings := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(settings); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return settings, nil
}

// Resolve fixes the project root and invoking user. An empty root means the
// current working directory. The root is made absolute so every generated
// descriptor carries full paths.
func (s *Settings) Resolve(root string) error {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	s.ProjectRoot = abs

	if s.User == "" {
		u, err := user.Current()
		if err != nil {
			return fmt.Errorf("resolve invoking user: %w", err)
		}
		s.User = u.Username
	}
	return nil
}

// VenvPath is the virtualenv directory under the project root.
func (s *Settings) VenvPath() string {
	return filepath.Join(s.ProjectRoot, s.VenvDir)
}

// VenvBin is the virtualenv's executable directory.
func (s *Settings) VenvBin() string {
	return filepath.Join(s.VenvPath(), "bin")
}

// Python is the virtualenv's interpreter.
func (s *Settings) Python() string {
	return filepath.Join(s.VenvBin(), "python")
}

// Pip is the virtualenv's pip.
func (s *Settings) Pip() string {
	return filepath.Join(s.VenvBin(), "pip")
}

// Streamlit is the virtualenv's streamlit entry point.
func (s *Settings) Streamlit() string {
	return filepath.Join(s.VenvBin(), "streamlit")
}

// RequirementsPath is the dependency manifest inside the project root.
func (s *Settings) RequirementsPath() string {
	return filepath.Join(s.ProjectRoot, s.Requirements)
}

// EnvFilePath is the credentials file inside the project root.
func (s *Settings) EnvFilePath() string {
	return filepath.Join(s.ProjectRoot, s.EnvFile)
}

// Services lists both service names, bot first.
func (s *Settings) Services() []string {
	return []string{s.BotService, s.DashboardService}
}
