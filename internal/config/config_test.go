package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Check defaults
	if cfg.ConfigPath != "config.yaml" {
		t.Errorf("expected ConfigPath config.yaml, got %s", cfg.ConfigPath)
	}
	if cfg.WorkDir != "." {
		t.Errorf("expected WorkDir ., got %s", cfg.WorkDir)
	}
	if cfg.Launcher != LauncherExec {
		t.Errorf("expected Launcher exec, got %s", cfg.Launcher)
	}
	if cfg.StopGraceTimeout != 5*time.Second {
		t.Errorf("expected StopGraceTimeout 5s, got %v", cfg.StopGraceTimeout)
	}
	if cfg.LogPollInterval != 100*time.Millisecond {
		t.Errorf("expected LogPollInterval 100ms, got %v", cfg.LogPollInterval)
	}
	if cfg.LogBufferLines != 10000 {
		t.Errorf("expected LogBufferLines 10000, got %d", cfg.LogBufferLines)
	}
	if cfg.MinerPath != "" {
		t.Errorf("expected empty MinerPath (platform default), got %s", cfg.MinerPath)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("MINERPANEL_MINER_PATH", "/opt/miner/signum-miner")
	t.Setenv("MINERPANEL_CONFIG_PATH", "/etc/miner/config.yaml")
	t.Setenv("MINERPANEL_WORKDIR", "/opt/miner")
	t.Setenv("MINERPANEL_LAUNCHER", "docker")
	t.Setenv("MINERPANEL_DOCKER_IMAGE", "custom/miner:dev")
	t.Setenv("MINERPANEL_STOP_GRACE_TIMEOUT", "10s")
	t.Setenv("MINERPANEL_LOG_POLL_INTERVAL", "250ms")
	t.Setenv("MINERPANEL_LOG_BUFFER_LINES", "500")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MinerPath != "/opt/miner/signum-miner" {
		t.Errorf("expected MinerPath from env, got %s", cfg.MinerPath)
	}
	if cfg.ConfigPath != "/etc/miner/config.yaml" {
		t.Errorf("expected ConfigPath from env, got %s", cfg.ConfigPath)
	}
	if cfg.WorkDir != "/opt/miner" {
		t.Errorf("expected WorkDir /opt/miner, got %s", cfg.WorkDir)
	}
	if cfg.Launcher != LauncherDocker {
		t.Errorf("expected Launcher docker, got %s", cfg.Launcher)
	}
	if cfg.DockerImage != "custom/miner:dev" {
		t.Errorf("expected DockerImage custom/miner:dev, got %s", cfg.DockerImage)
	}
	if cfg.StopGraceTimeout != 10*time.Second {
		t.Errorf("expected StopGraceTimeout 10s, got %v", cfg.StopGraceTimeout)
	}
	if cfg.LogPollInterval != 250*time.Millisecond {
		t.Errorf("expected LogPollInterval 250ms, got %v", cfg.LogPollInterval)
	}
	if cfg.LogBufferLines != 500 {
		t.Errorf("expected LogBufferLines 500, got %d", cfg.LogBufferLines)
	}
}

func TestLoad_InvalidLauncher(t *testing.T) {
	t.Setenv("MINERPANEL_LAUNCHER", "kubernetes")

	_, err := Load("")
	if err == nil {
		t.Error("expected error for invalid launcher")
	}
}

func TestLoad_SettingsFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "minerpanel-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	settingsContent := `
miner_path: "./bin/signum-miner"
config_path: "miner.yaml"
launcher: docker
stop_grace_timeout: 3s
log_buffer_lines: 2000
`
	if _, err := tmpFile.WriteString(settingsContent); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MinerPath != "./bin/signum-miner" {
		t.Errorf("expected MinerPath from file, got %s", cfg.MinerPath)
	}
	if cfg.ConfigPath != "miner.yaml" {
		t.Errorf("expected ConfigPath miner.yaml, got %s", cfg.ConfigPath)
	}
	if cfg.Launcher != LauncherDocker {
		t.Errorf("expected Launcher docker, got %s", cfg.Launcher)
	}
	if cfg.StopGraceTimeout != 3*time.Second {
		t.Errorf("expected StopGraceTimeout 3s, got %v", cfg.StopGraceTimeout)
	}
	if cfg.LogBufferLines != 2000 {
		t.Errorf("expected LogBufferLines 2000, got %d", cfg.LogBufferLines)
	}
	// Untouched keys keep their defaults
	if cfg.LogPollInterval != 100*time.Millisecond {
		t.Errorf("expected default LogPollInterval, got %v", cfg.LogPollInterval)
	}
}

func TestLoad_EnvOverridesSettingsFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "minerpanel-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	settingsContent := `
config_path: "from-file.yaml"
stop_grace_timeout: 3s
`
	if _, err := tmpFile.WriteString(settingsContent); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	tmpFile.Close()

	t.Setenv("MINERPANEL_CONFIG_PATH", "from-env.yaml")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env should override config file
	if cfg.ConfigPath != "from-env.yaml" {
		t.Errorf("expected ConfigPath from env, got %s", cfg.ConfigPath)
	}
	if cfg.StopGraceTimeout != 3*time.Second {
		t.Errorf("expected StopGraceTimeout from file, got %v", cfg.StopGraceTimeout)
	}
}

func TestLoad_InvalidSettingsFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/minerpanel.yaml")
	if err == nil {
		t.Error("expected error for nonexistent settings file")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("MINERPANEL_STOP_GRACE_TIMEOUT", "not-a-duration")

	_, err := Load("")
	if err == nil {
		t.Error("expected error for invalid duration")
	}
}
