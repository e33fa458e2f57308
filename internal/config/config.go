package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
)

// Config represents the full tandem configuration
type Config struct {
	API     APIConfig     `json:"api"`
	Session SessionConfig `json:"session"`
	Search  SearchConfig  `json:"search"`
	Network NetworkConfig `json:"network"`
	Log     LogConfig     `json:"log"`
	Board   BoardConfig   `json:"board"`
}

// APIConfig contains task API settings
type APIConfig struct {
	BaseURL   string `json:"baseUrl"`
	TimeoutMs int    `json:"timeoutMs"`
}

// SessionConfig identifies the caller
type SessionConfig struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	Token        string `json:"token"`
	TokenFile    string `json:"tokenFile"`
}

// SearchConfig contains user search settings
type SearchConfig struct {
	DebounceMs      int `json:"debounceMs"`
	CacheTTLSeconds int `json:"cacheTtlSeconds"`
	CacheSize       int `json:"cacheSize"`
}

// NetworkConfig contains connectivity probe settings
type NetworkConfig struct {
	CheckInterval int `json:"checkInterval"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Dir   string `json:"dir"`
	Level string `json:"level"`
}

// BoardConfig contains board presentation settings
type BoardConfig struct {
	DefaultView     string `json:"defaultView"`
	DefaultProject  string `json:"defaultProject"`
	RefreshInterval int    `json:"refreshInterval"`
}

// Timeout returns the API timeout as a duration
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Debounce returns the search debounce as a duration
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// CacheTTL returns the search cache lifetime as a duration
func (c SearchConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ToSession builds the engine session
func (c SessionConfig) ToSession() auth.Session {
	return auth.Session{
		UserID:       c.UserID,
		Name:         c.Name,
		Role:         domain.ParseRole(c.Role),
		DepartmentID: c.DepartmentID,
		Token:        c.Token,
	}
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	dir := configDir()

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8080/api",
			TimeoutMs: 15000,
		},
		Session: SessionConfig{
			Role:      "Developer",
			TokenFile: filepath.Join(dir, "token.json"),
		},
		Search: SearchConfig{
			DebounceMs:      300,
			CacheTTLSeconds: 300, // 5 minutes
			CacheSize:       10,
		},
		Network: NetworkConfig{
			CheckInterval: 30,
		},
		Log: LogConfig{
			Dir:   filepath.Join(dir, "logs"),
			Level: "info",
		},
		Board: BoardConfig{
			DefaultView:     string(domain.ViewAll),
			RefreshInterval: 0, // manual refresh only
		},
	}
}

// configDir is ~/.config/tandem
func configDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "tandem")
}

// LoadConfig loads configuration from project path with priority:
// 1. Environment (TANDEM_*), after loading an optional .env file
// 2. .tandem.json in project root (with version migration support)
// 3. ~/.config/tandem/config.json
// 4. Defaults
func LoadConfig(projectPath string) (*Config, error) {
	cfg, err := loadFile(projectPath)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(filepath.Join(projectPath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(projectPath string) (*Config, error) {
	candidates := []string{
		filepath.Join(projectPath, ".tandem.json"),
		filepath.Join(configDir(), "config.json"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg, err := ParseVersionedConfig(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return MergeWithDefaults(cfg), nil
	}
	return DefaultConfig(), nil
}

// ApplyEnv overrides cfg with TANDEM_* variables read through getenv
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"TANDEM_API_URL":       &cfg.API.BaseURL,
		"TANDEM_USER_ID":       &cfg.Session.UserID,
		"TANDEM_USER_NAME":     &cfg.Session.Name,
		"TANDEM_ROLE":          &cfg.Session.Role,
		"TANDEM_DEPARTMENT_ID": &cfg.Session.DepartmentID,
		"TANDEM_TOKEN":         &cfg.Session.Token,
		"TANDEM_TOKEN_FILE":    &cfg.Session.TokenFile,
		"TANDEM_LOG_DIR":       &cfg.Log.Dir,
		"TANDEM_LOG_LEVEL":     &cfg.Log.Level,
		"TANDEM_VIEW":          &cfg.Board.DefaultView,
		"TANDEM_PROJECT":       &cfg.Board.DefaultProject,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TANDEM_API_TIMEOUT_MS": &cfg.API.TimeoutMs,
		"TANDEM_DEBOUNCE_MS":    &cfg.Search.DebounceMs,
	}
	for key, dst := range ints {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s %q: want a non-negative integer", key, v)
		}
		*dst = n
	}
	return nil
}

// SaveConfig saves configuration to the specified path with version information
func SaveConfig(cfg *Config, path string) error {
	data, err := MarshalVersionedConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold a bearer token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeWithDefaults fills in missing values with defaults
func MergeWithDefaults(cfg *Config) *Config {
	defaults := DefaultConfig()

	// Merge API config
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.TimeoutMs == 0 {
		cfg.API.TimeoutMs = defaults.API.TimeoutMs
	}

	// Merge Session config
	if cfg.Session.Role == "" {
		cfg.Session.Role = defaults.Session.Role
	}
	if cfg.Session.TokenFile == "" {
		cfg.Session.TokenFile = defaults.Session.TokenFile
	}

	// Merge Search config
	if cfg.Search.DebounceMs == 0 {
		cfg.Search.DebounceMs = defaults.Search.DebounceMs
	}
	if cfg.Search.CacheTTLSeconds == 0 {
		cfg.Search.CacheTTLSeconds = defaults.Search.CacheTTLSeconds
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = defaults.Search.CacheSize
	}

	// Merge Network config
	if cfg.Network.CheckInterval == 0 {
		cfg.Network.CheckInterval = defaults.Network.CheckInterval
	}

	// Merge Log config
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = defaults.Log.Dir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// Merge Board config
	if cfg.Board.DefaultView == "" {
		cfg.Board.DefaultView = defaults.Board.DefaultView
	}

	return cfg
}

// Load is a convenience function that loads config from current directory
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadConfig(cwd)
}
