package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/skillpkg/skillpkg/pkg/source"
)

// LocalConfigFile is the project-local config filename.
const LocalConfigFile = "spkg.local.toml"

// Config holds per-user installer settings that are NOT committed to
// version control. It is resolved with Viper precedence:
// CLI flags > environment > spkg.local.toml (project-local) >
// ~/.spkg/config.toml (global).
type Config struct {
	Token    string `toml:"token" mapstructure:"token"`
	MaxDepth int    `toml:"max_depth" mapstructure:"max_depth"`
}

// Load resolves configuration using Viper's merge semantics. flagToken
// and flagMaxDepth take highest precedence; pass "" and 0 for flags the
// user did not set.
func Load(flagToken string, flagMaxDepth int) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".spkg", "config.toml")
	return load(flagToken, flagMaxDepth, globalPath, LocalConfigFile)
}

// load is the internal implementation that accepts explicit paths,
// making it testable without touching the real home directory.
func load(flagToken string, flagMaxDepth int, globalPath, localPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// Lowest priority: global config
	v.SetConfigFile(globalPath)
	// Read global config; ignore if missing.
	_ = v.ReadInConfig()

	// Higher priority: project-local config
	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	// Higher still: environment
	if tok := os.Getenv("SPKG_TOKEN"); tok != "" {
		v.Set("token", tok)
	} else if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		v.Set("token", tok)
	}

	// Highest priority: CLI flags
	if flagToken != "" {
		v.Set("token", flagToken)
	}
	if flagMaxDepth > 0 {
		v.Set("max_depth", flagMaxDepth)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = source.DefaultMaxDepth
	}
	return cfg, nil
}

// GlobalConfigDir returns the path to ~/.spkg, creating it if necessary.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	dir := filepath.Join(home, ".spkg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// WriteGlobal persists cfg to ~/.spkg/config.toml and returns the
// written path. An existing file is left untouched.
func WriteGlobal(cfg *Config) (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// WriteLocal persists cfg to spkg.local.toml in the given directory and
// returns the written path.
func WriteLocal(dir string, cfg *Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(dir, LocalConfigFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
