package installer

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"mbsetup/internal/config"
	"mbsetup/internal/credentials"
)

// Doctor is a non-mutating preflight: it reports whether the host and the
// checkout look installable, without changing anything.
func Doctor(cfg *config.Settings, out io.Writer) error {
	failed := false

	check := func(ok bool, label, detail string) {
		status := "ok"
		if !ok {
			status = "FAIL"
			failed = true
		}
		fmt.Fprintf(out, "%-4s %s", status, label)
		if detail != "" {
			fmt.Fprintf(out, " (%s)", detail)
		}
		fmt.Fprintln(out)
	}

	_, err := exec.LookPath("python3")
	check(err == nil, "python3 on PATH", "")

	_, err = exec.LookPath("systemctl")
	check(err == nil, "systemctl on PATH", "")

	for _, rel := range []string{cfg.BotEntry, cfg.DashboardEntry, cfg.Requirements} {
		path := filepath.Join(cfg.ProjectRoot, rel)
		_, err := os.Stat(path)
		check(err == nil, rel, path)
	}

	envPath := cfg.EnvFilePath()
	credErr := credentials.Check(envPath)
	check(credErr == nil, cfg.EnvFile, envPath)

	if credErr == nil {
		warnings, err := credentials.Inspect(envPath)
		if err != nil {
			check(false, "credentials readable", err.Error())
		}
		for _, w := range warnings {
			check(false, w, "")
		}
	}

	if failed {
		return fmt.Errorf("preflight found problems")
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}
