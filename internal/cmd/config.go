package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crewhq/crew/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify crew configuration",
	Long: `View or modify crew configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  crew config set store.root ~/coordination
  crew config set logging.level debug
  crew config set backend.default codex

Valid keys:
  store.root            - Coordination root directory
  store.lock_timeout_ms - How long lock acquisition retries, in milliseconds
  logging.enabled       - Write engine logs to a file (true/false)
  logging.level         - Minimum level logged
                          Options: debug, info, warn, error
  logging.dir           - Log directory (default: <root>/logs)
  logging.max_size_mb   - Log size that triggers rotation
  logging.max_backups   - Rotated files kept
  logging.compress      - Gzip rotated files (true/false)
  backend.default       - Backend used when spawn has no --backend
  backend.custom_file   - Custom backend definitions file
  spawn.cwd             - Working directory for spawned agents`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/crew/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("store:")
	fmt.Printf("  root: %s\n", cfg.Store.ResolveRoot())
	fmt.Printf("  lock_timeout_ms: %d\n", cfg.Store.LockTimeoutMs)

	fmt.Println("logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	fmt.Printf("  dir: %s\n", cfg.Logging.ResolveDir(cfg.Store.ResolveRoot()))
	fmt.Printf("  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Printf("  max_backups: %d\n", cfg.Logging.MaxBackups)
	fmt.Printf("  compress: %v\n", cfg.Logging.Compress)

	fmt.Println("backend:")
	if cfg.Backend.Default != "" {
		fmt.Printf("  default: %s\n", cfg.Backend.Default)
	} else {
		fmt.Printf("  default: (first available)\n")
	}
	fmt.Printf("  custom_file: %s\n", cfg.Backend.ResolveCustomFile(cfg.Store.ResolveRoot()))

	fmt.Println("spawn:")
	if cfg.Spawn.Cwd != "" {
		fmt.Printf("  cwd: %s\n", cfg.Spawn.Cwd)
	} else {
		fmt.Printf("  cwd: (inherited from the caller)\n")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"store.root":            "string",
		"store.lock_timeout_ms": "int",
		"logging.enabled":       "bool",
		"logging.level":         "string",
		"logging.dir":           "string",
		"logging.max_size_mb":   "int",
		"logging.max_backups":   "int",
		"logging.compress":      "bool",
		"backend.default":       "string",
		"backend.custom_file":   "string",
		"spawn.cwd":             "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'crew config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue interface{}
	switch keyType {
	case "string":
		if key == "logging.level" && !isValidLogLevel(value) {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidLogLevels(), ", "))
		}
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper
	viper.Set(key, typedValue)

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Set %s = %v\n", key, typedValue)
	fmt.Printf("Config saved to %s\n", configFile)

	return nil
}

func isValidLogLevel(value string) bool {
	for _, level := range config.ValidLogLevels() {
		if strings.EqualFold(value, level) {
			return true
		}
	}
	return false
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'crew config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# crew configuration

# Coordination store settings
store:
  # Root directory holding team state (default: ~/.crew)
  root: ""
  # How long lock acquisition retries before giving up, in milliseconds
  lock_timeout_ms: 5000

# Engine log file settings
logging:
  enabled: true
  # Minimum level written: debug, info, warn, error
  level: info
  # Log directory (default: <root>/logs)
  dir: ""
  # Rotation: size that triggers it, rotated files kept, gzip them
  max_size_mb: 10
  max_backups: 3
  compress: false

# Agent backend settings
backend:
  # Backend used when spawn has no --backend (default: first available)
  default: ""
  # Custom backend definitions (default: <root>/backends.yaml)
  custom_file: ""

# Spawn settings
spawn:
  # Working directory for spawned agents (default: inherited from the caller)
  cwd: ""
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println("Edit this file to customize crew's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Println("\nSearch paths:")
	fmt.Printf("  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Printf("  2. $HOME/.config/crew/config.yaml\n")
	fmt.Printf("  3. ./config.yaml (current directory)\n")
	fmt.Println("\nEnvironment variables: CREW_* (e.g., CREW_STORE_ROOT)")

	return nil
}
