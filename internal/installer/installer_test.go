package installer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbsetup/internal/config"
	"mbsetup/internal/credentials"
	"mbsetup/internal/systemd"
	"mbsetup/internal/venv"
)

func settingsFor(t *testing.T) *config.Settings {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectRoot = t.TempDir()
	cfg.User = "trader"
	cfg.UnitDir = t.TempDir()
	return cfg
}

func writeCredentials(t *testing.T, cfg *config.Settings) {
	t.Helper()
	content := "MATCHBOOK_USERNAME=alice\nMATCHBOOK_PASSWORD=hunter2\n"
	require.NoError(t, os.WriteFile(cfg.EnvFilePath(), []byte(content), 0o600))
}

func TestRun_HappyPath(t *testing.T) {
	cfg := settingsFor(t)
	writeCredentials(t, cfg)
	env := &fakeEnv{}
	mgr := &fakeManager{}
	var out bytes.Buffer

	require.NoError(t, New(cfg, env, mgr, &out, false).Run(context.Background()))

	assert.Equal(t, 1, env.calls)
	require.Len(t, mgr.written, 2)
	assert.Equal(t, "matchbook-bot", mgr.written[0].Name)
	assert.Equal(t, "matchbook-dashboard", mgr.written[1].Name)
	assert.Equal(t, 1, mgr.reloads)

	report := out.String()
	assert.Contains(t, report, "systemctl start matchbook-bot")
	assert.Contains(t, report, "systemctl start matchbook-dashboard")
	assert.Contains(t, report, "systemctl enable matchbook-bot")
	assert.Contains(t, report, "journalctl -u matchbook-bot -f")
	assert.Contains(t, report, "ufw allow 8501")
	assert.Contains(t, report, "http://<server-ip>:8501")
	// Install never starts anything itself.
	assert.Empty(t, mgr.actions)
}

func TestRun_MissingCredentialsAbortsBeforeDescriptors(t *testing.T) {
	cfg := settingsFor(t)
	env := &fakeEnv{}
	mgr := &fakeManager{}
	var out bytes.Buffer

	err := New(cfg, env, mgr, &out, false).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, credentials.ErrMissing))

	// Environment provisioning ran (it precedes the gate) but nothing was
	// registered.
	assert.Equal(t, 1, env.calls)
	assert.Empty(t, mgr.written)
	assert.Zero(t, mgr.reloads)
	assert.Contains(t, out.String(), "MATCHBOOK_USERNAME")
}

func TestRun_ProvisioningFailureAbortsBeforeMutation(t *testing.T) {
	cfg := settingsFor(t)
	writeCredentials(t, cfg)
	env := &fakeEnv{err: errors.New("pip exploded")}
	mgr := &fakeManager{}
	var out bytes.Buffer

	err := New(cfg, env, mgr, &out, false).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment provisioning")
	assert.Empty(t, mgr.written)
	assert.Zero(t, mgr.reloads)
}

func TestRun_Idempotent(t *testing.T) {
	cfg := settingsFor(t)
	writeCredentials(t, cfg)
	env := &fakeEnv{}
	mgr := &fakeManager{}
	var out bytes.Buffer

	inst := New(cfg, env, mgr, &out, false)
	require.NoError(t, inst.Run(context.Background()))
	require.NoError(t, inst.Run(context.Background()))

	// Second run regenerates the same descriptors byte for byte.
	require.Len(t, mgr.written, 4)
	assert.Equal(t, mgr.written[0].Render(), mgr.written[2].Render())
	assert.Equal(t, mgr.written[1].Render(), mgr.written[3].Render())
	assert.Equal(t, 2, mgr.reloads)
}

func TestRun_DryRunMutatesNothing(t *testing.T) {
	cfg := settingsFor(t)
	env := &fakeEnv{}
	mgr := &fakeManager{}
	var out bytes.Buffer

	require.NoError(t, New(cfg, env, mgr, &out, true).Run(context.Background()))

	assert.Zero(t, env.calls)
	assert.Empty(t, mgr.written)
	assert.Zero(t, mgr.reloads)
	assert.Contains(t, out.String(), "Would write")
	assert.Contains(t, out.String(), "daemon-reload")
}

// TestRun_EndToEnd drives the real venv provisioner and systemd manager with
// a recording runner: venv commands issued, both unit files on disk under the
// unit directory, exactly one daemon-reload.
func TestRun_EndToEnd(t *testing.T) {
	cfg := settingsFor(t)
	writeCredentials(t, cfg)
	run := &fakeRunner{}
	env := venv.New(run, cfg)
	mgr := systemd.New(run, cfg.UnitDir, cfg.CommandTimeout)
	var out bytes.Buffer

	require.NoError(t, New(cfg, env, mgr, &out, false).Run(context.Background()))

	require.Len(t, run.calls, 3)
	assert.Equal(t, "python3 -m venv "+cfg.VenvPath(), run.calls[0])
	assert.Equal(t, cfg.Pip()+" install -r "+cfg.RequirementsPath(), run.calls[1])
	assert.Equal(t, "systemctl daemon-reload", run.calls[2])

	for _, name := range []string{"matchbook-bot.service", "matchbook-dashboard.service"} {
		data, err := os.ReadFile(filepath.Join(cfg.UnitDir, name))
		require.NoError(t, err, name)
		content := string(data)
		assert.Contains(t, content, cfg.ProjectRoot+"/venv/")
		assert.Contains(t, content, "Restart=always")
		assert.Contains(t, content, "WorkingDirectory="+cfg.ProjectRoot)
	}

	dash, err := os.ReadFile(filepath.Join(cfg.UnitDir, "matchbook-dashboard.service"))
	require.NoError(t, err)
	assert.Contains(t, string(dash), "--server.address 0.0.0.0 --server.port 8501")
}

func TestDoctor_ReportsMissingProjectFiles(t *testing.T) {
	cfg := settingsFor(t)
	var out bytes.Buffer

	err := Doctor(cfg, &out)
	require.Error(t, err)

	report := out.String()
	for _, rel := range []string{"bot.py", "app.py", "requirements.txt", ".env"} {
		assert.Contains(t, report, rel)
	}
	assert.True(t, strings.Contains(report, "FAIL"))
}

func TestDoctor_WarnsOnEmptyCredentialKeys(t *testing.T) {
	cfg := settingsFor(t)
	for _, rel := range []string{cfg.BotEntry, cfg.DashboardEntry, cfg.Requirements} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.ProjectRoot, rel), []byte("x\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(cfg.EnvFilePath(), []byte("MATCHBOOK_USERNAME=alice\n"), 0o600))
	var out bytes.Buffer

	// Overall result depends on the host's tooling; the credential warning
	// must be present regardless.
	_ = Doctor(cfg, &out)
	assert.Contains(t, out.String(), "MATCHBOOK_PASSWORD is not set")
}
