// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete opsforge configuration.
type Config struct {
	// General settings
	Version     string `toml:"version" json:"version"`
	Environment string `toml:"environment" json:"environment"`

	// Engine configuration
	Engine EngineConfig `toml:"engine" json:"engine"`

	// Event store configuration
	Events EventsConfig `toml:"events" json:"events"`

	// Artifact store configuration
	Artifacts ArtifactsConfig `toml:"artifacts" json:"artifacts"`

	// Job simulation configuration
	Jobs JobsConfig `toml:"jobs" json:"jobs"`

	// HTTP server configuration
	Server ServerConfig `toml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// EngineConfig contains planner and step execution configuration.
type EngineConfig struct {
	// StepTimeoutSecs bounds each step's execution in seconds.
	StepTimeoutSecs int `toml:"step_timeout_secs" json:"step_timeout_secs"`
	// RetryCount is the advisory retry budget stamped on planned steps.
	RetryCount int `toml:"retry_count" json:"retry_count"`
}

// EventsConfig contains event store configuration.
type EventsConfig struct {
	// DBPath is the SQLite database file (empty = ~/.opsforge/events.db).
	DBPath string `toml:"db_path" json:"db_path"`
}

// ArtifactsConfig contains artifact store configuration.
type ArtifactsConfig struct {
	// RootDir is the directory artifacts are written under
	// (empty = ~/.opsforge/artifacts).
	RootDir string `toml:"root_dir" json:"root_dir"`
}

// JobsConfig contains simulated job runner configuration.
type JobsConfig struct {
	// SimulatedDelayMs is how long simulated jobs take, in milliseconds.
	SimulatedDelayMs int `toml:"simulated_delay_ms" json:"simulated_delay_ms"`
}

// ServerConfig contains HTTP API server configuration.
type ServerConfig struct {
	// Addr is the listen address in host:port form.
	Addr string `toml:"addr" json:"addr"`
	// RatePerSecond is the per-client request rate limit.
	RatePerSecond float64 `toml:"rate_per_second" json:"rate_per_second"`
	// RateBurst is the per-client burst allowance.
	RateBurst int `toml:"rate_burst" json:"rate_burst"`
	// ReadTimeoutSecs bounds request reading in seconds.
	ReadTimeoutSecs int `toml:"read_timeout_secs" json:"read_timeout_secs"`
	// WriteTimeoutSecs bounds response writing in seconds. Synchronous
	// execute requests run whole plans, so this stays generous.
	WriteTimeoutSecs int `toml:"write_timeout_secs" json:"write_timeout_secs"`
	// ShutdownTimeoutSecs bounds graceful shutdown in seconds.
	ShutdownTimeoutSecs int `toml:"shutdown_timeout_secs" json:"shutdown_timeout_secs"`
	// MaxConcurrentTasks caps async tasks running at once.
	MaxConcurrentTasks int `toml:"max_concurrent_tasks" json:"max_concurrent_tasks"`
	// TaskTimeoutMins bounds each async task's total runtime in minutes.
	TaskTimeoutMins int `toml:"task_timeout_mins" json:"task_timeout_mins"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum level to emit: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level"`
	// Format is the output encoding: "json" or "text".
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",

		Engine: EngineConfig{
			StepTimeoutSecs: 300,
			RetryCount:      3,
		},

		Events: EventsConfig{
			DBPath: "",
		},

		Artifacts: ArtifactsConfig{
			RootDir: "",
		},

		Jobs: JobsConfig{
			SimulatedDelayMs: 1000,
		},

		Server: ServerConfig{
			Addr:                "127.0.0.1:8000",
			RatePerSecond:       10,
			RateBurst:           20,
			ReadTimeoutSecs:     30,
			WriteTimeoutSecs:    900,
			ShutdownTimeoutSecs: 10,
			MaxConcurrentTasks:  5,
			TaskTimeoutMins:     30,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the opsforge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".opsforge"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// EventsDBPath resolves the event store database path, falling back to
// the default location under the config directory.
func (c *Config) EventsDBPath() (string, error) {
	if c.Events.DBPath != "" {
		return c.Events.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "events.db"), nil
}

// ArtifactsRoot resolves the artifact store root directory, falling back
// to the default location under the config directory.
func (c *Config) ArtifactsRoot() (string, error) {
	if c.Artifacts.RootDir != "" {
		return c.Artifacts.RootDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "artifacts"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// No file found or file unreadable: validate the defaults and
	// return them alongside any load error for informational purposes.
	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies overrides, migration, and validation to a loaded config.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.Migrate()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
// Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file type is inferred from the extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	// General
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Environment == "" {
		cfg.Environment = defaults.Environment
	}

	// Engine
	if cfg.Engine.StepTimeoutSecs == 0 {
		cfg.Engine.StepTimeoutSecs = defaults.Engine.StepTimeoutSecs
	}
	if cfg.Engine.RetryCount == 0 {
		cfg.Engine.RetryCount = defaults.Engine.RetryCount
	}

	// Jobs
	if cfg.Jobs.SimulatedDelayMs == 0 {
		cfg.Jobs.SimulatedDelayMs = defaults.Jobs.SimulatedDelayMs
	}

	// Server
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.RatePerSecond == 0 {
		cfg.Server.RatePerSecond = defaults.Server.RatePerSecond
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = defaults.Server.RateBurst
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = defaults.Server.ReadTimeoutSecs
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = defaults.Server.WriteTimeoutSecs
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = defaults.Server.ShutdownTimeoutSecs
	}
	if cfg.Server.MaxConcurrentTasks == 0 {
		cfg.Server.MaxConcurrentTasks = defaults.Server.MaxConcurrentTasks
	}
	if cfg.Server.TaskTimeoutMins == 0 {
		cfg.Server.TaskTimeoutMins = defaults.Server.TaskTimeoutMins
	}

	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	// Write header comment
	fmt.Fprintln(file, "# opsforge configuration file")
	fmt.Fprintln(file, "# Generated by opsforge - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// Creates config files with 0600 permissions (owner read/write only).
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Engine settings
	if c.Engine.StepTimeoutSecs < 1 || c.Engine.StepTimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "engine.step_timeout_secs",
			Message: fmt.Sprintf("must be 1-3600 seconds, got %d", c.Engine.StepTimeoutSecs),
		})
	}
	if c.Engine.RetryCount < 0 || c.Engine.RetryCount > 10 {
		errs = append(errs, ValidationError{
			Field:   "engine.retry_count",
			Message: fmt.Sprintf("must be 0-10, got %d", c.Engine.RetryCount),
		})
	}

	// Job settings
	if c.Jobs.SimulatedDelayMs < 0 || c.Jobs.SimulatedDelayMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "jobs.simulated_delay_ms",
			Message: fmt.Sprintf("must be 0-60000 milliseconds, got %d", c.Jobs.SimulatedDelayMs),
		})
	}

	// Server settings
	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.addr",
				Message: fmt.Sprintf("must be host:port form: %v", err),
			})
		}
	}
	if c.Server.RatePerSecond <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_per_second",
			Message: "must be positive",
		})
	}
	if c.Server.RateBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_burst",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Server.RateBurst),
		})
	}
	if c.Server.MaxConcurrentTasks < 1 || c.Server.MaxConcurrentTasks > 64 {
		errs = append(errs, ValidationError{
			Field:   "server.max_concurrent_tasks",
			Message: fmt.Sprintf("must be 1-64, got %d", c.Server.MaxConcurrentTasks),
		})
	}
	if c.Server.TaskTimeoutMins < 1 || c.Server.TaskTimeoutMins > 1440 {
		errs = append(errs, ValidationError{
			Field:   "server.task_timeout_mins",
			Message: fmt.Sprintf("must be 1-1440 minutes, got %d", c.Server.TaskTimeoutMins),
		})
	}

	// Logging settings
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, text", c.Logging.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Migrate normalizes values accepted from older or foreign configurations.
func (c *Config) Migrate() {
	// The previous service named this level "warning"
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - OPSFORGE_ENV: overrides environment
//   - OPSFORGE_ADDR: overrides server.addr
//   - OPSFORGE_LOG_LEVEL: overrides logging.level
//   - OPSFORGE_LOG_FORMAT: overrides logging.format
//   - OPSFORGE_EVENTS_DB: overrides events.db_path
//   - OPSFORGE_ARTIFACTS_DIR: overrides artifacts.root_dir
//   - OPSFORGE_STEP_TIMEOUT: overrides engine.step_timeout_secs
//   - OPSFORGE_JOB_DELAY_MS: overrides jobs.simulated_delay_ms
//   - OPSFORGE_RATE_LIMIT: overrides server.rate_per_second
func (c *Config) ApplyEnvOverrides() {
	if env := os.Getenv("OPSFORGE_ENV"); env != "" {
		c.Environment = env
	}

	if addr := os.Getenv("OPSFORGE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	if level := os.Getenv("OPSFORGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if format := os.Getenv("OPSFORGE_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	if db := os.Getenv("OPSFORGE_EVENTS_DB"); db != "" {
		c.Events.DBPath = db
	}

	if dir := os.Getenv("OPSFORGE_ARTIFACTS_DIR"); dir != "" {
		c.Artifacts.RootDir = dir
	}

	if timeout := os.Getenv("OPSFORGE_STEP_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil {
			c.Engine.StepTimeoutSecs = n
		}
	}

	if delay := os.Getenv("OPSFORGE_JOB_DELAY_MS"); delay != "" {
		if n, err := strconv.Atoi(delay); err == nil {
			c.Jobs.SimulatedDelayMs = n
		}
	}

	if rate := os.Getenv("OPSFORGE_RATE_LIMIT"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			c.Server.RatePerSecond = f
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "logging.level").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, return the value
		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "logging.level").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, set the value
		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"environment",
		"engine.step_timeout_secs",
		"engine.retry_count",
		"events.db_path",
		"artifacts.root_dir",
		"jobs.simulated_delay_ms",
		"server.addr",
		"server.rate_per_second",
		"server.rate_burst",
		"server.read_timeout_secs",
		"server.write_timeout_secs",
		"server.shutdown_timeout_secs",
		"server.max_concurrent_tasks",
		"server.task_timeout_mins",
		"logging.level",
		"logging.format",
	}
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
