package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Areas struct {
		ProvincesURL string `yaml:"provinces_url"`
		WardsURL     string `yaml:"wards_url"`
		TTL          string `yaml:"ttl"`
		Timeout      string `yaml:"timeout"`
	} `yaml:"areas"`
	Quiz struct {
		Timezone      string `yaml:"timezone"`
		PartialPolicy string `yaml:"partial_policy"`
	} `yaml:"quiz"`
	Rollover struct {
		Enabled  *bool  `yaml:"enabled"`
		Schedule string `yaml:"schedule"`
		Timezone string `yaml:"timezone"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"rollover"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Seed struct {
		File string `yaml:"file"`
	} `yaml:"seed"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

const (
	DefaultPort             = "8080"
	DefaultTimezone         = "Asia/Ho_Chi_Minh"
	DefaultRolloverSchedule = "0 0 * * 1"
)

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"PORT":           &c.Server.Port,
		"POSTGRES_URL":   &c.Postgres.URL,
		"REDIS_ADDR":     &c.Redis.Addr,
		"REDIS_PASSWORD": &c.Redis.Password,
		"JWT_SECRET":     &c.Auth.JWTSecret,
		"LOG_LEVEL":      &c.Log.Level,
		"SEED_FILE":      &c.Seed.File,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("ROLLOVER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ROLLOVER_ENABLED: %w", err)
		}
		c.Rollover.Enabled = &enabled
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Quiz.Timezone == "" {
		c.Quiz.Timezone = DefaultTimezone
	}
	if c.Rollover.Schedule == "" {
		c.Rollover.Schedule = DefaultRolloverSchedule
	}
	if c.Rollover.Timezone == "" {
		c.Rollover.Timezone = c.Quiz.Timezone
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// RolloverEnabled defaults to true when unset.
func (c Config) RolloverEnabled() bool {
	return c.Rollover.Enabled == nil || *c.Rollover.Enabled
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
