package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/memberorder"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// DefaultProjectConfigFile is written by EnsureProjectConfig
	DefaultProjectConfigFile = ".memberorder.yaml"
)

// ProjectConfigFiles are searched, in order, in each directory from the
// project root upward.
var ProjectConfigFiles = []string{".memberorder.yaml", "memberorder.yaml", ".memberorder.toml"}

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger   *slog.Logger
	userPath string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, userPath: userConfigPath()}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/memberorder/config.yaml)
// 3. Project config found in root or its parent directories
// 4. The explicit file, when given
//
// Each layer only overrides the keys it sets. Member order warnings are
// logged; they never fail the load.
func (l *Loader) Load(root, explicit string) (*Config, error) {
	config := DefaultConfig()

	// A broken user config should not block every project
	if l.userPath != "" {
		if err := config.OverlayFile(l.userPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", l.userPath))
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", l.userPath), slog.String("error", err.Error()))
		}
	}

	if projectPath := l.FindProjectConfig(root); projectPath != "" {
		if err := config.OverlayFile(projectPath); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectPath))
	} else {
		l.logger.Debug("No project config found", slog.String("root", root))
	}

	if explicit != "" {
		if err := config.OverlayFile(explicit); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicit))
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	_, warnings := config.Order()
	for _, w := range warnings {
		l.logger.Warn("Member order configuration", slog.String("warning", w))
	}

	return config, nil
}

// FindProjectConfig searches root and its parents for a project config file.
func (l *Loader) FindProjectConfig(root string) string {
	dir, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		for _, name := range ProjectConfigFiles {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// EnsureProjectConfig writes a default .memberorder.yaml into dir unless a
// project config already exists there. Returns the path of the config file.
func (l *Loader) EnsureProjectConfig(dir string) (string, bool, error) {
	for _, name := range ProjectConfigFiles {
		existing := filepath.Join(dir, name)
		if _, err := os.Stat(existing); err == nil {
			return existing, false, nil
		}
	}

	path := filepath.Join(dir, DefaultProjectConfigFile)
	if err := DefaultConfig().SaveToFile(path); err != nil {
		return "", false, err
	}

	l.logger.Info("Created default project config", slog.String("path", path))
	return path, true, nil
}

// userConfigPath returns the path to the user config file
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
