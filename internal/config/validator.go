package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "store.lock_timeout_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// backendNameRegex validates backend name characters.
// Names start with a letter and can contain alphanumeric, hyphen,
// underscore, and dot, matching what the registry registers.
var backendNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Store config
	errors = append(errors, c.validateStore()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	// Validate Backend config
	errors = append(errors, c.validateBackend()...)

	// Validate Spawn config
	errors = append(errors, c.validateSpawn()...)

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	errors = append(errors, validatePathValue(c.Store.Root, "store.root")...)

	// Lock timeout bounds
	const minLockTimeoutMs = 100
	const maxLockTimeoutMs = 600_000 // 10 minutes

	if c.Store.LockTimeoutMs < minLockTimeoutMs {
		errors = append(errors, ValidationError{
			Field:   "store.lock_timeout_ms",
			Value:   c.Store.LockTimeoutMs,
			Message: fmt.Sprintf("must be at least %dms", minLockTimeoutMs),
		})
	}
	if c.Store.LockTimeoutMs > maxLockTimeoutMs {
		errors = append(errors, ValidationError{
			Field:   "store.lock_timeout_ms",
			Value:   c.Store.LockTimeoutMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxLockTimeoutMs),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	errors = append(errors, validatePathValue(c.Logging.Dir, "logging.dir")...)

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateBackend validates the BackendConfig
func (c *Config) validateBackend() []ValidationError {
	var errors []ValidationError

	if c.Backend.Default != "" && !backendNameRegex.MatchString(c.Backend.Default) {
		errors = append(errors, ValidationError{
			Field:   "backend.default",
			Value:   c.Backend.Default,
			Message: "must start with a letter and contain only alphanumeric characters, hyphens, underscores, or dots",
		})
	}

	errors = append(errors, validatePathValue(c.Backend.CustomFile, "backend.custom_file")...)

	return errors
}

// validateSpawn validates the SpawnConfig
func (c *Config) validateSpawn() []ValidationError {
	var errors []ValidationError

	errors = append(errors, validatePathValue(c.Spawn.Cwd, "spawn.cwd")...)

	return errors
}

// validatePathValue checks a path-valued field for invalid characters.
// Empty is always valid; empty means "use the default".
func validatePathValue(path, field string) []ValidationError {
	var errors []ValidationError

	if path == "" {
		return nil
	}

	// Check for null bytes which are invalid in paths
	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}

	// Reasonable path length limit (most filesystems have limits around 4096)
	const maxPathLength = 4096
	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}
