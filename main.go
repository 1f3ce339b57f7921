package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"mbsetup/internal/config"
	"mbsetup/internal/credentials"
	"mbsetup/internal/installer"
	"mbsetup/internal/logger"
	"mbsetup/internal/runner"
	"mbsetup/internal/systemd"
	"mbsetup/internal/venv"
)

const usage = `mbsetup - provision this host to run the Matchbook trading system

Usage:
  mbsetup [flags]              install (default command)
  mbsetup install [flags]      provision venv, write units, reload systemd
  mbsetup doctor               non-mutating preflight checks
  mbsetup status               show both services' state
  mbsetup start|stop|restart [service]
  mbsetup enable|disable [service]
  mbsetup logs [service] [-f]

Services: bot, dashboard (default: both; logs default: bot)

Flags:
      --root string     project root (default: current directory)
      --config string   optional mbsetup.yaml override file
      --dry-run         print what install would do without mutating
  -f, --follow          follow logs
  -v, --verbose         debug logging
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("mbsetup", pflag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	root := flags.String("root", "", "project root (default: current directory)")
	configPath := flags.String("config", "", "optional mbsetup.yaml override file")
	dryRun := flags.Bool("dry-run", false, "print what install would do without mutating")
	follow := flags.BoolP("follow", "f", false, "follow logs")
	verbose := flags.BoolP("verbose", "v", false, "debug logging")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger.Init(*verbose)

	cfg, err := loadSettings(*configPath, *root)
	if err != nil {
		logger.Error("configuration failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "install"
	rest := flags.Args()
	if len(rest) > 0 {
		command = rest[0]
		rest = rest[1:]
	}

	cmdRunner := runner.ExecRunner{}
	mgr := systemd.New(cmdRunner, cfg.UnitDir, cfg.CommandTimeout)

	if err := dispatch(ctx, command, rest, cfg, cmdRunner, mgr, *dryRun, *follow); err != nil {
		logger.Error(command+" failed", "error", err)
		return exitCode(err)
	}
	return 0
}

func loadSettings(configPath, root string) (*config.Settings, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Resolve(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

func dispatch(ctx context.Context, command string, args []string, cfg *config.Settings, cmdRunner runner.ExecRunner, mgr systemd.Manager, dryRun, follow bool) error {
	switch command {
	case "install":
		env := venv.New(cmdRunner, cfg)
		return installer.New(cfg, env, mgr, os.Stdout, dryRun).Run(ctx)

	case "doctor":
		return installer.Doctor(cfg, os.Stdout)

	case "status":
		return printStatus(ctx, cfg, mgr)

	case "start", "stop", "restart", "enable", "disable":
		services, err := selectServices(cfg, args)
		if err != nil {
			return err
		}
		for _, name := range services {
			if err := serviceAction(ctx, mgr, command, name); err != nil {
				return err
			}
			logger.Info(command+" ok", "service", name)
		}
		return nil

	case "logs":
		name := cfg.BotService
		if len(args) > 0 {
			resolved, err := resolveService(cfg, args[0])
			if err != nil {
				return err
			}
			name = resolved
		}
		lines, err := mgr.StreamLogs(ctx, name, follow)
		if err != nil {
			return err
		}
		for line := range lines {
			fmt.Println(line)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (see mbsetup --help)", command)
	}
}

func serviceAction(ctx context.Context, mgr systemd.Manager, action, name string) error {
	switch action {
	case "start":
		return mgr.Start(ctx, name)
	case "stop":
		return mgr.Stop(ctx, name)
	case "restart":
		return mgr.Restart(ctx, name)
	case "enable":
		return mgr.Enable(ctx, name)
	case "disable":
		return mgr.Disable(ctx, name)
	}
	return fmt.Errorf("unknown action %q", action)
}

func printStatus(ctx context.Context, cfg *config.Settings, mgr systemd.Manager) error {
	for _, name := range cfg.Services() {
		enabled := "disabled"
		if mgr.IsEnabled(ctx, name) {
			enabled = "enabled"
		}
		fmt.Printf("%-24s %-10s %s\n", name, mgr.IsActive(ctx, name), enabled)
	}
	return nil
}

// selectServices maps command arguments to service names; no arguments means
// both services.
func selectServices(cfg *config.Settings, args []string) ([]string, error) {
	if len(args) == 0 {
		return cfg.Services(), nil
	}
	var services []string
	for _, arg := range args {
		name, err := resolveService(cfg, arg)
		if err != nil {
			return nil, err
		}
		services = append(services, name)
	}
	return services, nil
}

func resolveService(cfg *config.Settings, arg string) (string, error) {
	switch arg {
	case "bot", cfg.BotService:
		return cfg.BotService, nil
	case "dashboard", cfg.DashboardService:
		return cfg.DashboardService, nil
	}
	return "", fmt.Errorf("unknown service %q (want bot or dashboard)", arg)
}

// exitCode maps a pipeline error to the process exit status: the credentials
// precondition has a dedicated status, subprocess failures propagate their
// exit code.
func exitCode(err error) int {
	if errors.Is(err, credentials.ErrMissing) {
		return 1
	}
	var cmdErr *runner.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Result.ExitCode > 0 {
		return cmdErr.Result.ExitCode
	}
	return 1
}
