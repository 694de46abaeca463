// Package config handles the panel's own settings: file, env vars, defaults.
// This is distinct from the miner's config document, which internal/configdoc owns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Launcher backends for the miner process.
const (
	LauncherExec   = "exec"
	LauncherDocker = "docker"
)

// Config holds all settings for the panel application.
type Config struct {
	// Path to the miner executable. Empty means the platform default
	// (./signum-miner) resolved by the exec launcher.
	MinerPath string

	// Path to the miner's YAML config document.
	ConfigPath string

	// Working directory the miner is started in.
	WorkDir string

	// Launcher backend: "exec" or "docker".
	Launcher string

	// Container image used by the docker launcher.
	DockerImage string

	// How long Stop waits after the graceful signal before force-killing.
	StopGraceTimeout time.Duration

	// Cadence at which the UI drains the log relay.
	LogPollInterval time.Duration

	// Soft bound on queued log lines before the relay drops the oldest.
	LogBufferLines int
}

// fileConfig mirrors Config for the optional minerpanel.yaml settings file.
// Durations are strings ("5s") so operators can write them naturally.
type fileConfig struct {
	MinerPath        string `yaml:"miner_path"`
	ConfigPath       string `yaml:"config_path"`
	WorkDir          string `yaml:"work_dir"`
	Launcher         string `yaml:"launcher"`
	DockerImage      string `yaml:"docker_image"`
	StopGraceTimeout string `yaml:"stop_grace_timeout"`
	LogPollInterval  string `yaml:"log_poll_interval"`
	LogBufferLines   int    `yaml:"log_buffer_lines"`
}

// Load reads configuration from an optional settings file and environment
// variables. Env vars override file values, which override defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ConfigPath:       "config.yaml",
		WorkDir:          ".",
		Launcher:         LauncherExec,
		DockerImage:      "ghcr.io/signum-network/signum-miner:latest",
		StopGraceTimeout: 5 * time.Second,
		LogPollInterval:  100 * time.Millisecond,
		LogBufferLines:   10000,
	}

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid settings file %s: %w", path, err)
	}

	if fc.MinerPath != "" {
		cfg.MinerPath = fc.MinerPath
	}
	if fc.ConfigPath != "" {
		cfg.ConfigPath = fc.ConfigPath
	}
	if fc.WorkDir != "" {
		cfg.WorkDir = fc.WorkDir
	}
	if fc.Launcher != "" {
		cfg.Launcher = fc.Launcher
	}
	if fc.DockerImage != "" {
		cfg.DockerImage = fc.DockerImage
	}
	if fc.StopGraceTimeout != "" {
		d, err := time.ParseDuration(fc.StopGraceTimeout)
		if err != nil {
			return fmt.Errorf("invalid stop_grace_timeout: %w", err)
		}
		cfg.StopGraceTimeout = d
	}
	if fc.LogPollInterval != "" {
		d, err := time.ParseDuration(fc.LogPollInterval)
		if err != nil {
			return fmt.Errorf("invalid log_poll_interval: %w", err)
		}
		cfg.LogPollInterval = d
	}
	if fc.LogBufferLines != 0 {
		cfg.LogBufferLines = fc.LogBufferLines
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MINERPANEL_MINER_PATH"); v != "" {
		cfg.MinerPath = v
	}
	if v := os.Getenv("MINERPANEL_CONFIG_PATH"); v != "" {
		cfg.ConfigPath = v
	}
	if v := os.Getenv("MINERPANEL_WORKDIR"); v != "" {
		cfg.WorkDir = v
	}
	if v := os.Getenv("MINERPANEL_LAUNCHER"); v != "" {
		cfg.Launcher = v
	}
	if v := os.Getenv("MINERPANEL_DOCKER_IMAGE"); v != "" {
		cfg.DockerImage = v
	}
	if v := os.Getenv("MINERPANEL_STOP_GRACE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MINERPANEL_STOP_GRACE_TIMEOUT: %w", err)
		}
		cfg.StopGraceTimeout = d
	}
	if v := os.Getenv("MINERPANEL_LOG_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MINERPANEL_LOG_POLL_INTERVAL: %w", err)
		}
		cfg.LogPollInterval = d
	}
	if v := os.Getenv("MINERPANEL_LOG_BUFFER_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MINERPANEL_LOG_BUFFER_LINES: %w", err)
		}
		cfg.LogBufferLines = n
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Launcher {
	case LauncherExec, LauncherDocker:
	default:
		return fmt.Errorf("invalid launcher %q: must be %q or %q", c.Launcher, LauncherExec, LauncherDocker)
	}
	if c.ConfigPath == "" {
		return fmt.Errorf("config_path is required (env: MINERPANEL_CONFIG_PATH)")
	}
	if c.StopGraceTimeout <= 0 {
		return fmt.Errorf("stop_grace_timeout must be positive")
	}
	if c.LogPollInterval <= 0 {
		return fmt.Errorf("log_poll_interval must be positive")
	}
	if c.LogBufferLines <= 0 {
		return fmt.Errorf("log_buffer_lines must be positive")
	}
	return nil
}
