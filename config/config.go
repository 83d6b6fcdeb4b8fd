package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvAPIURL  = "ASSISTUI_API_URL"
	EnvDataDir = "ASSISTUI_DATA_DIR"
	EnvDebug   = "ASSISTUI_DEBUG"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type BackendConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SessionConfig struct {
	Resume bool `toml:"resume"`
}

type UserConfig struct {
	Backend     BackendConfig     `toml:"backend"`
	Session     SessionConfig     `toml:"session"`
	KeyBindings KeyBindingsConfig `toml:"keybindings"`
}

type Config struct {
	DataDirectory  string
	BackendURL     string
	RequestTimeout time.Duration
	ResumeSession  bool
	KeyBindings    *KeyBindingsConfig
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv(EnvAPIURL); url != "" {
		c.BackendURL = url
	}
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

// CheckDebug reports whether debug logging was requested via the environment
func CheckDebug() bool {
	debug := os.Getenv(EnvDebug)
	return debug == "true" || debug == "1"
}

func (u *UserConfig) apply(cfg *Config) {
	if u.Backend.URL != "" {
		cfg.BackendURL = u.Backend.URL
	}
	if u.Backend.TimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(u.Backend.TimeoutSeconds) * time.Second
	}
	cfg.ResumeSession = u.Session.Resume

	kb := u.KeyBindings
	cfg.KeyBindings = &kb
}

// Load reads settings.toml and <data_dir>/config.toml, creating commented
// templates when they are missing, then applies environment overrides.
func Load() (*Config, error) {
	defaults := DefaultUserConfig()
	cfg := &Config{
		DataDirectory: DefaultSystemConfig().DataDirectory,
		BackendURL:    defaults.Backend.URL,
	}
	defaults.apply(cfg)

	// The data directory decides where the user config lives, so its override
	// has to be known before reading it.
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		if systemCfg.DataDirectory != "" {
			cfg.DataDirectory = systemCfg.DataDirectory
		}
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	userCfg.apply(cfg)
	cfg.applyEnvOverrides()

	return cfg, nil
}
