package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	// Backend selects the key/value store: "sqlite" (default), "redis", or "memory".
	Backend string `json:"backend"`

	// RedisAddr is host:port of the Redis server when Backend is "redis".
	RedisAddr string `json:"redis_addr,omitempty"`

	// RedisDB is the logical Redis database number.
	RedisDB int `json:"redis_db,omitempty"`

	// RedisPrefix namespaces every key written to Redis.
	RedisPrefix string `json:"redis_prefix,omitempty"`

	// LookupURL is the base URL of the food search proxy.
	// Empty disables food search and barcode lookups.
	LookupURL string `json:"lookup_url,omitempty"`

	// LookupAPIKey is sent as X-Api-Key when set.
	LookupAPIKey string `json:"lookup_api_key,omitempty"`

	// LookupTimeoutSeconds bounds each lookup request.
	LookupTimeoutSeconds int `json:"lookup_timeout_seconds,omitempty"`

	// Timezone decides where midnight falls (IANA name). Empty means the local zone.
	Timezone string `json:"timezone,omitempty"`

	// LogLevel is a logrus level name. LogFormat is "json" or "text".
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// AllowedPaths is an allowlist of directories for history import/export.
	// Paths outside ~/.macrolog/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// WebBind and WebPort are where "macrolog serve" listens.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend:              BackendSQLite,
		RedisAddr:            "localhost:6379",
		RedisPrefix:          "macrolog:",
		LookupTimeoutSeconds: 10,
		LogLevel:             "info",
		LogFormat:            "json",
		WebBind:              "127.0.0.1",
		WebPort:              8420,
	}
}

// Load loads configuration from baseDir/config.json, then applies MACROLOG_*
// environment variables. Variables may also come from baseDir/.env; the
// process environment wins over the file.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.macrolog.
func Load(baseDir string) (*Config, error) {
	fileCfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), fileCfg)

	env, err := readEnv(filepath.Join(baseDir, ".env"))
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readEnv merges the dotenv file at path (optional) with the process
// environment. Only MACROLOG_* keys are returned.
func readEnv(path string) (map[string]string, error) {
	env := map[string]string{}
	fileEnv, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for k, v := range fileEnv {
		if strings.HasPrefix(k, envPrefix) {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && v != "" && strings.HasPrefix(k, envPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

const envPrefix = "MACROLOG_"

// ApplyEnv overlays MACROLOG_* values onto cfg. Empty values are ignored.
func ApplyEnv(cfg *Config, env map[string]string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(env[envPrefix+name]); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := strings.TrimSpace(env[envPrefix+name])
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("BACKEND", &cfg.Backend)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PREFIX", &cfg.RedisPrefix)
	str("LOOKUP_URL", &cfg.LookupURL)
	str("LOOKUP_API_KEY", &cfg.LookupAPIKey)
	str("TIMEZONE", &cfg.Timezone)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("WEB_BIND", &cfg.WebBind)

	for name, dst := range map[string]*int{
		"REDIS_DB":               &cfg.RedisDB,
		"LOOKUP_TIMEOUT_SECONDS": &cfg.LookupTimeoutSeconds,
		"WEB_PORT":               &cfg.WebPort,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings that would fail later in a less obvious place.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, redis, or memory)", c.Backend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LookupTimeout returns LookupTimeoutSeconds as a duration.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds) * time.Second
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Backend = firstString(overlay.Backend, base.Backend)
	result.RedisAddr = firstString(overlay.RedisAddr, base.RedisAddr)
	result.RedisPrefix = firstString(overlay.RedisPrefix, base.RedisPrefix)
	result.LookupURL = firstString(overlay.LookupURL, base.LookupURL)
	result.LookupAPIKey = firstString(overlay.LookupAPIKey, base.LookupAPIKey)
	result.Timezone = firstString(overlay.Timezone, base.Timezone)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = firstString(overlay.LogFormat, base.LogFormat)
	result.WebBind = firstString(overlay.WebBind, base.WebBind)

	result.RedisDB = firstInt(overlay.RedisDB, base.RedisDB)
	result.LookupTimeoutSeconds = firstInt(overlay.LookupTimeoutSeconds, base.LookupTimeoutSeconds)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.WebPort = firstInt(overlay.WebPort, base.WebPort)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
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
