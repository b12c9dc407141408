// ABOUTME: Console configuration from YAML file, .env and environment
// ABOUTME: Precedence is flag > env > file > default; flags are applied by cmd

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServer   = "http://localhost:8080"
	DefaultBasePath = "/core/api"
	DefaultTimeout  = 30 * time.Second
	DefaultProfile  = "default"
	DefaultMockAddr = "127.0.0.1:8080"

	// FileName is the config file read from the config directory
	FileName = "config.yaml"
)

// Session backends
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the console configuration
type Config struct {
	Server   string        `yaml:"server"`
	BasePath string        `yaml:"base_path"`
	Timeout  time.Duration `yaml:"timeout"`
	Profile  string        `yaml:"profile"`
	Session  SessionConfig `yaml:"session"`
	Log      LogConfig     `yaml:"log"`
	Mock     MockConfig    `yaml:"mock"`
}

// SessionConfig selects where the session is persisted
type SessionConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// LogConfig controls the file logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// MockConfig controls the development backend
type MockConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the built-in configuration
func Default(configDir string) *Config {
	return &Config{
		Server:   DefaultServer,
		BasePath: DefaultBasePath,
		Timeout:  DefaultTimeout,
		Profile:  DefaultProfile,
		Session: SessionConfig{
			Backend:   BackendFile,
			RedisAddr: "127.0.0.1:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Dir:    configDir,
		},
		Mock: MockConfig{
			Addr:     DefaultMockAddr,
			Username: "admin",
			Password: "admin",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// configDir/config.yaml is used when present.
func Load(configDir, path string) (*Config, error) {
	cfg := Default(configDir)

	explicit := path != ""
	if !explicit && configDir != "" {
		path = filepath.Join(configDir, FileName)
	}
	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server = getEnv("QUEBEC_SERVER", c.Server)
	c.BasePath = getEnv("QUEBEC_BASE_PATH", c.BasePath)
	c.Timeout = getEnvDuration("QUEBEC_TIMEOUT", c.Timeout)
	c.Profile = getEnv("QUEBEC_PROFILE", c.Profile)

	c.Session.Backend = getEnv("QUEBEC_SESSION_BACKEND", c.Session.Backend)
	c.Session.RedisAddr = getEnv("QUEBEC_REDIS_ADDR", c.Session.RedisAddr)
	c.Session.RedisPassword = getEnv("QUEBEC_REDIS_PASSWORD", c.Session.RedisPassword)
	c.Session.RedisDB = getEnvInt("QUEBEC_REDIS_DB", c.Session.RedisDB)
	c.Session.TTL = getEnvDuration("QUEBEC_SESSION_TTL", c.Session.TTL)

	c.Log.Level = getEnv("QUEBEC_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("QUEBEC_LOG_FORMAT", c.Log.Format)
	c.Log.Dir = getEnv("QUEBEC_LOG_DIR", c.Log.Dir)

	c.Mock.Addr = getEnv("QUEBEC_MOCK_ADDR", c.Mock.Addr)
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if !strings.HasPrefix(c.Server, "http://") && !strings.HasPrefix(c.Server, "https://") {
		return fmt.Errorf("server must start with http:// or https://, got %q", c.Server)
	}
	switch c.Session.Backend {
	case BackendFile, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("session backend must be one of file, memory, redis, got %q", c.Session.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
