// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Rules           *Rules
	AuthDir         string
	PayloadDir      string
	DatabasePath    string
	RulesPath       string
	LogLevel        string
	LogFile         string
	RefreshInterval time.Duration
	Notifications   bool
}

// Default values
const (
	defaultRefreshInterval = 30 * time.Second
	defaultLogLevel        = "info"
	appDirName             = "authquota"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	base := getDefaultBaseDir()
	cfg := &Config{
		AuthDir:         getEnvString("AUTH_DIR", filepath.Join(base, "auths")),
		PayloadDir:      getEnvString("PAYLOAD_DIR", filepath.Join(base, "payloads")),
		DatabasePath:    getEnvString("DATABASE_PATH", filepath.Join(base, "history.db")),
		RulesPath:       getEnvString("RULES_PATH", filepath.Join(base, "rules.toml")),
		LogLevel:        getEnvString("LOG_LEVEL", defaultLogLevel),
		LogFile:         getEnvString("LOG_FILE", filepath.Join(base, "authquota.log")),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		Notifications:   getEnvBool("NOTIFICATIONS", true),
	}

	for _, dir := range []string{
		cfg.AuthDir,
		cfg.PayloadDir,
		filepath.Dir(cfg.DatabasePath),
		filepath.Dir(cfg.LogFile),
	} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	rules, err := LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appDirName, ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultBaseDir returns the directory holding all default paths.
func getDefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, ".config", appDirName)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts strconv.ParseBool values plus "yes"/"no" and "on"/"off".
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
