package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Search drivers.
const (
	DriverAzure = "azure"
	DriverRedis = "redis"

	StorageDriverAzure = "azure"
	StorageDriverS3    = "s3"
)

// Config holds the menusearch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Search     SearchConfig     `yaml:"search"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Upload     UploadConfig     `yaml:"upload"`
	LLM        LLMConfig        `yaml:"llm"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Auth       AuthConfig       `yaml:"auth"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig selects and configures the search backend.
type SearchConfig struct {
	Driver     string      `yaml:"driver"` // azure, redis (default: azure)
	Endpoint   string      `yaml:"endpoint"`
	APIKey     string      `yaml:"api_key"`
	Index      string      `yaml:"index"`
	APIVersion string      `yaml:"api_version"`
	Top        int         `yaml:"top"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Retry      RetryConfig `yaml:"retry"`
}

// RetryConfig holds the search retry policy. One attempt means no retry.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BackoffMs   int `yaml:"backoff_ms"`
}

// RedisConfig holds Redis connection settings (search driver, entity cache, budget counters).
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether Redis addresses are configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// StorageConfig holds blob store settings.
type StorageConfig struct {
	Driver           string `yaml:"driver"` // azure, s3 (default: azure)
	ConnectionString string `yaml:"connection_string"`
	Endpoint         string `yaml:"endpoint"`
	Region           string `yaml:"region"`
	Bucket           string `yaml:"bucket"`
	Prefix           string `yaml:"prefix"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	UsePathStyle     bool   `yaml:"use_path_style"`
	PublicURL        string `yaml:"public_url"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 { return int64(u.MaxSizeMB) << 20 }

// LLMConfig holds the OpenAI-compatible provider settings.
type LLMConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Provider string `yaml:"provider"`
}

// ExtractionConfig holds entity skill settings.
type ExtractionConfig struct {
	Concurrency int          `yaml:"concurrency"`
	CacheTTLSec int          `yaml:"cache_ttl_sec"` // 0 disables the entity cache
	Budget      BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// AuthConfig holds skill authentication settings.
type AuthConfig struct {
	FunctionKeys []string `yaml:"function_keys"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in raw YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding the process
// environment. A missing default file is not an error; a missing explicit file is.
func LoadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if !fileExists(path) {
		if explicit {
			return fmt.Errorf("env file %s not found", path)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Driver == "" {
		c.Search.Driver = DriverAzure
	}
	if c.Search.APIVersion == "" {
		c.Search.APIVersion = "2023-11-01"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 10
	}
	if c.Search.Retry.MaxAttempts <= 0 {
		c.Search.Retry.MaxAttempts = 1
	}
	c.Redis.Addrs = compact(c.Redis.Addrs)
	c.Auth.FunctionKeys = compact(c.Auth.FunctionKeys)
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverAzure
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "meals"
	}
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = 16
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Extraction.Concurrency <= 0 {
		c.Extraction.Concurrency = 4
	}
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Search.Driver {
	case DriverAzure, DriverRedis:
	default:
		return fmt.Errorf("search.driver must be %q or %q, got %q", DriverAzure, DriverRedis, c.Search.Driver)
	}
	switch c.Storage.Driver {
	case "", StorageDriverAzure, StorageDriverS3:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", StorageDriverAzure, StorageDriverS3, c.Storage.Driver)
	}
	if c.Search.Retry.BackoffMs < 0 {
		return fmt.Errorf("search.retry.backoff_ms must not be negative, got %d", c.Search.Retry.BackoffMs)
	}
	if c.Extraction.CacheTTLSec < 0 {
		return fmt.Errorf("extraction.cache_ttl_sec must not be negative, got %d", c.Extraction.CacheTTLSec)
	}
	switch c.Extraction.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(
			"extraction.budget.action must be \"warn\" or \"reject\", got %q",
			c.Extraction.Budget.Action,
		)
	}
	return nil
}

// RequireServe checks what the search and upload API needs to start.
func (c *Config) RequireServe() error {
	var errs []error
	switch c.Search.Driver {
	case DriverAzure:
		if c.Search.Endpoint == "" {
			errs = append(errs, errors.New("search.endpoint is required (SEARCH_SERVICE_ENDPOINT)"))
		}
		if c.Search.APIKey == "" {
			errs = append(errs, errors.New("search.api_key is required (SEARCH_SERVICE_QUERY_KEY)"))
		}
	case DriverRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("redis.addrs is required for the redis search driver"))
		}
	}
	if c.Search.Index == "" {
		errs = append(errs, errors.New("search.index is required (SEARCH_INDEX_NAME)"))
	}
	if c.Storage.Driver != StorageDriverS3 && c.Storage.ConnectionString == "" {
		errs = append(errs, errors.New("storage.connection_string is required (STORAGE_CONNECTION_STRING)"))
	}
	return errors.Join(errs...)
}

// RequireSkill checks what the entity extraction skill needs to start.
func (c *Config) RequireSkill() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required (OPENAI_API_KEY)"))
	}
	if c.Extraction.CacheTTLSec > 0 && !c.Redis.Enabled() {
		errs = append(errs, errors.New("redis.addrs is required when extraction.cache_ttl_sec is set"))
	}
	return errors.Join(errs...)
}

// RequireIndex checks what the index command needs.
func (c *Config) RequireIndex() error {
	var errs []error
	if !c.Redis.Enabled() {
		errs = append(errs, errors.New("redis.addrs is required"))
	}
	if c.Search.Index == "" {
		errs = append(errs, errors.New("search.index is required (SEARCH_INDEX_NAME)"))
	}
	return errors.Join(errs...)
}

// compact drops blank entries left by unset ${VAR} references.
func compact(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
