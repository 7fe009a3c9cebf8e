package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvAPIURL   = "TFT_API_URL"
	EnvLogLevel = "TFT_LOG_LEVEL"
	EnvTimeout  = "TFT_REQUEST_TIMEOUT_SECONDS"
)

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the root of the remote diet-tracking REST API.
	APIBaseURL string `json:"api_base_url"`

	// RequestTimeoutSeconds bounds every call to the remote API.
	// A request that times out is reported like any other remote failure.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// TimeZone is the IANA zone used to display meal dates and fill the
	// default draft date. Empty means the process local zone.
	TimeZone string `json:"time_zone,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:            "http://localhost:5000",
		RequestTimeoutSeconds: 10,
		LogLevel:              "info",
	}
}

// RequestTimeout returns the remote request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Location resolves TimeZone, falling back to time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration from baseDir/config.json and applies
// environment overrides (process env first, then baseDir/.env).
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return ApplyEnv(cfg, filepath.Join(baseDir, ".env"))
}

// LoadWithRepo loads configuration from both global (~/.tft) and repo (.tft) directories.
// Repo config is found by walking upward from startDir to find the nearest .tft/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return ApplyEnv(Merge(Merge(DefaultConfig(), global), repo), filepath.Join(globalDir, ".env"))
}

// FindRepoConfig walks upward from startDir to find the nearest .tft/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".tft", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overlays TFT_* variables onto cfg. Variables set in the process
// environment win over those in envFile; empty values count as unset.
// A missing envFile is not an error.
func ApplyEnv(cfg *Config, envFile string) (*Config, error) {
	fileEnv := map[string]string{}
	if envFile != "" {
		env, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = env
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(fileEnv[key])
	}

	overlay := &Config{
		APIBaseURL: lookup(EnvAPIURL),
		LogLevel:   lookup(EnvLogLevel),
	}
	if raw := lookup(EnvTimeout); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", EnvTimeout, raw)
		}
		overlay.RequestTimeoutSeconds = secs
	}

	return Merge(cfg, overlay), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIBaseURL = firstString(overlay.APIBaseURL, base.APIBaseURL)
	result.TimeZone = firstString(overlay.TimeZone, base.TimeZone)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)

	result.RequestTimeoutSeconds = overlay.RequestTimeoutSeconds
	if result.RequestTimeoutSeconds == 0 {
		result.RequestTimeoutSeconds = base.RequestTimeoutSeconds
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
