package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete crew configuration
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Backend BackendConfig `mapstructure:"backend"`
	Spawn   SpawnConfig   `mapstructure:"spawn"`
}

// StoreConfig controls where coordination state lives and how long
// writers wait for the per-document lock
type StoreConfig struct {
	// Root is the coordination root directory holding every team's state.
	// Empty means the default: ~/.crew. A leading ~ expands to the user's
	// home directory; relative paths are taken relative to the working
	// directory of the invoking process.
	Root string `mapstructure:"root"`
	// LockTimeoutMs is how long a writer waits for a document lock before
	// giving up, in milliseconds (default: 5000)
	LockTimeoutMs int `mapstructure:"lock_timeout_ms"`
}

// LoggingConfig controls the structured log file
type LoggingConfig struct {
	// Enabled turns file logging on or off (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum level written: "debug", "info", "warn", "error"
	// (default: "info"). Matching is case-insensitive.
	Level string `mapstructure:"level"`
	// Dir is the directory the log file is written to. Empty means the
	// default: <root>/logs. Relative paths resolve against the root.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the size a log file may reach before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// BackendConfig controls which agent backend spawns use
type BackendConfig struct {
	// Default is the backend used when a spawn names none. Empty means
	// the registry picks: claude-code when tmux and the claude binary are
	// present, otherwise the first registered backend.
	Default string `mapstructure:"default"`
	// CustomFile is the path to the custom backend declaration file.
	// Empty means the default: <root>/backends.yaml.
	CustomFile string `mapstructure:"custom_file"`
}

// SpawnConfig controls defaults applied to newly spawned agents
type SpawnConfig struct {
	// Cwd is the working directory new agents start in. Empty means
	// agents inherit the team lead's working directory.
	Cwd string `mapstructure:"cwd"`
}

// ResolveRoot returns the resolved coordination root path.
// If Root is empty, it returns ~/.crew.
// If Root starts with ~, it expands to the user's home directory.
func (s *StoreConfig) ResolveRoot() string {
	path := s.Root

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".crew"
		}
		return filepath.Join(home, ".crew")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return path
}

// LockTimeout returns the document lock timeout as a time.Duration
func (s *StoreConfig) LockTimeout() time.Duration {
	return time.Duration(s.LockTimeoutMs) * time.Millisecond
}

// ResolveDir returns the resolved log directory path.
// If Dir is empty, it returns the default path under root.
// If Dir starts with ~, it expands to the user's home directory.
// If Dir is a relative path, it's resolved relative to root.
func (l *LoggingConfig) ResolveDir(root string) string {
	if l.Dir == "" {
		return filepath.Join(root, "logs")
	}

	path := l.Dir

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// If relative path, resolve relative to root
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	return path
}

// ResolveCustomFile returns the resolved custom backend declaration path.
// If CustomFile is empty, it returns the default path under root.
// If CustomFile starts with ~, it expands to the user's home directory.
func (b *BackendConfig) ResolveCustomFile(root string) string {
	if b.CustomFile == "" {
		return filepath.Join(root, "backends.yaml")
	}

	path := b.CustomFile

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Root:          "", // Empty means use default: ~/.crew
			LockTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "", // Empty means use default: <root>/logs
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Backend: BackendConfig{
			Default:    "", // Empty means let the registry pick
			CustomFile: "", // Empty means use default: <root>/backends.yaml
		},
		Spawn: SpawnConfig{
			Cwd: "", // Empty means inherit the team lead's working directory
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Store defaults
	viper.SetDefault("store.root", defaults.Store.Root)
	viper.SetDefault("store.lock_timeout_ms", defaults.Store.LockTimeoutMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Backend defaults
	viper.SetDefault("backend.default", defaults.Backend.Default)
	viper.SetDefault("backend.custom_file", defaults.Backend.CustomFile)

	// Spawn defaults
	viper.SetDefault("spawn.cwd", defaults.Spawn.Cwd)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crew")
	}
	// Fall back to ~/.config/crew
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crew"
	}
	return filepath.Join(home, ".config", "crew")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
