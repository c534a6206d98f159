// Package cli provides shared configuration and utilities for the pansqlc CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Config represents the pansqlc configuration from pansqlc.yaml.
type Config struct {
	// Top-level convenience fields
	ScriptsDir      string `mapstructure:"scripts_dir"`
	DictionariesDir string `mapstructure:"dictionaries_dir"`
	OutputDir       string `mapstructure:"output_dir"`

	// Per-command configuration
	Compile  CompileConfig  `mapstructure:"compile"`
	Validate ValidateConfig `mapstructure:"validate"`
}

// CompileConfig holds compile command settings.
type CompileConfig struct {
	ScriptsDir string `mapstructure:"scripts_dir"`
	OutputDir  string `mapstructure:"output_dir"`
}

// ValidateConfig holds validate command settings.
type ValidateConfig struct {
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("PANSQLC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Top-level defaults
	v.SetDefault("scripts_dir", "scripts")
	v.SetDefault("dictionaries_dir", "dictionaries")
	v.SetDefault("output_dir", "")

	// Compile defaults
	v.SetDefault("compile.scripts_dir", "")
	v.SetDefault("compile.output_dir", "")

	// Validate defaults
	v.SetDefault("validate.scripts_dir", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for pansqlc.yaml or pansqlc.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Auto-discovery: walk up to .git or maxWalkDepth
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		// Try pansqlc.yaml then pansqlc.yml
		for _, name := range []string{"pansqlc.yaml", "pansqlc.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break // Stop at repo root
		}

		// Move up
		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// ResolvedScriptsDir returns the effective scripts_dir for a command,
// with a command-specific override taking precedence over the top-level
// default.
func (c *Config) ResolvedScriptsDir(commandDir string) string {
	if commandDir != "" {
		return commandDir
	}
	return c.ScriptsDir
}

// ResolvedOutputDir returns the effective output_dir for compile, with
// compile.output_dir taking precedence over top-level output_dir. An
// empty result means "beside the script", the compile command's default.
func (c *Config) ResolvedOutputDir() string {
	if c.Compile.OutputDir != "" {
		return c.Compile.OutputDir
	}
	return c.OutputDir
}
