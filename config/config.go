package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string
	DBPath      string
	PostgresURL string
	LogLevel    string
	Scheduler   SchedulerConfig
	Cache       CacheConfig
	Ingest      IngestConfig
	S3          S3Config
	Agencies    map[string]*AgencyConfig
	AgencyOrder []string // config file order; result sets follow it
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type CacheConfig struct {
	TTL time.Duration
}

type IngestConfig struct {
	MinListings int // backfill threshold for the whole result set
	DelayMS     int // politeness delay between page fetches
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// AgencyConfig describes one agency listing source. Loaded from
// config/agencies/*.yaml.
type AgencyConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Handler     string `yaml:"handler"` // links, cards, wordpress, browser
	BaseURL     string `yaml:"base_url"`
	ListPath    string `yaml:"list_path"`
	RateLimitMS int    `yaml:"rate_limit_ms"`
	PriceMin    int    `yaml:"price_min"`
	PriceMax    int    `yaml:"price_max"`

	Synthetic SyntheticConfig `yaml:"synthetic"`
}

// SyntheticConfig bounds the backfill generator for an agency. The pipeline
// never emits a synthetic record outside these ranges.
type SyntheticConfig struct {
	Count    int      `yaml:"count"` // records generated when backfill engages
	PriceMin int      `yaml:"price_min"`
	PriceMax int      `yaml:"price_max"`
	SizeMin  int      `yaml:"size_min"` // m²
	SizeMax  int      `yaml:"size_max"`
	RoomsMin int      `yaml:"rooms_min"`
	RoomsMax int      `yaml:"rooms_max"`
	Types    []string `yaml:"types"`
}

func (a *AgencyConfig) ListURL() string {
	return a.BaseURL + a.ListPath
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DBPath:      getEnv("DB_PATH", "grorent.db"),
		PostgresURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("INGEST_CRON"),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("CACHE_TTL", 30*time.Minute),
		},
		Ingest: IngestConfig{
			MinListings: getEnvInt("MIN_LISTINGS", 40),
			DelayMS:     getEnvInt("INGEST_DELAY_MS", 500),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "eu-central-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Agencies: make(map[string]*AgencyConfig),
	}

	if interval := os.Getenv("INGEST_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.LoadAgencyConfigs("config/agencies"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAgencyConfigs reads every *.yaml in configDir in lexical order.
func (c *Config) LoadAgencyConfigs(configDir string) error {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var agency AgencyConfig
		if err := yaml.Unmarshal(data, &agency); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if agency.ID == "" {
			return fmt.Errorf("%s: missing agency id", path)
		}

		c.Agencies[agency.ID] = &agency
		c.AgencyOrder = append(c.AgencyOrder, agency.ID)
	}

	return nil
}

// AgencyNames returns display names in configured order.
func (c *Config) AgencyNames() []string {
	names := make([]string, 0, len(c.AgencyOrder))
	for _, id := range c.AgencyOrder {
		names = append(names, c.Agencies[id].Name)
	}
	return names
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
