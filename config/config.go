package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIHost is the Bloomberg production API host.
	DefaultAPIHost = "https://api.bloomberg.com"
	// DefaultOAuthEndpoint is the Bloomberg token endpoint for the
	// client-credentials grant.
	DefaultOAuthEndpoint = "https://bsso.blpprofessional.com/ext/api/as/token.oauth2"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	Bloomberg BloombergConfig `yaml:"bloomberg"`
	Paths     PathsConfig     `yaml:"paths"`
	Poll      PollConfig      `yaml:"poll"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Store     StoreConfig     `yaml:"store"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type BloombergConfig struct {
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	APIHost       string `yaml:"api_host"`
	OAuthEndpoint string `yaml:"oauth_endpoint"`
}

type PathsConfig struct {
	DownloadsDir    string `yaml:"downloads_dir"`
	IdentifiersFile string `yaml:"identifiers_file"`
}

type PollConfig struct {
	Interval       time.Duration `yaml:"interval"`
	TimeoutMinutes int           `yaml:"timeout_minutes"`
}

// UnmarshalYAML parses the interval from a duration string such as "30s".
// Absent keys keep the values already present, so defaults survive a
// partial config file.
func (p *PollConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval       string `yaml:"interval"`
		TimeoutMinutes int    `yaml:"timeout_minutes"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("invalid poll.interval %q: %w", raw.Interval, err)
		}
		p.Interval = d
	}
	if raw.TimeoutMinutes != 0 {
		p.TimeoutMinutes = raw.TimeoutMinutes
	}
	return nil
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type StoreConfig struct {
	Address  string `yaml:"address"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	Table    string `yaml:"table"`
}

type ArchiveConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Default returns the configuration used when no config file is present.
// Every value can still be overridden through the environment.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "bbgflow",
			Version: "dev",
		},
		Bloomberg: BloombergConfig{
			APIHost:       DefaultAPIHost,
			OAuthEndpoint: DefaultOAuthEndpoint,
		},
		Paths: PathsConfig{
			DownloadsDir:    "downloads",
			IdentifiersFile: "data/identifiers.json",
		},
		Poll: PollConfig{
			Interval:       30 * time.Second,
			TimeoutMinutes: 45,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         1,
		},
		Store: StoreConfig{
			Database: "postgres",
			Schema:   "bloomberg_data",
			Table:    "financial_ratios",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads the optional YAML configuration file and applies environment
// overrides on top. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Bloomberg.ClientID, "BLOOMBERG_CLIENT_ID")
	overrideString(&cfg.Bloomberg.ClientSecret, "BLOOMBERG_CLIENT_SECRET")
	overrideString(&cfg.Bloomberg.APIHost, "BLOOMBERG_API_HOST")
	overrideString(&cfg.Bloomberg.OAuthEndpoint, "BLOOMBERG_OAUTH_ENDPOINT")

	overrideString(&cfg.Paths.DownloadsDir, "DOWNLOADS_DIR")
	overrideString(&cfg.Paths.IdentifiersFile, "IDENTIFIERS_FILE")

	overrideString(&cfg.Store.Address, "DB_ADDRESS")
	overrideString(&cfg.Store.Port, "DB_PORT")
	overrideString(&cfg.Store.User, "DB_USER")
	overrideString(&cfg.Store.Password, "DB_PASSWORD")
	overrideString(&cfg.Store.Database, "DB_NAME")
	overrideString(&cfg.Store.Schema, "DB_SCHEMA")
	overrideString(&cfg.Store.Table, "DB_TABLE")

	overrideString(&cfg.Archive.S3.AccessKeyID, "AWS_ACCESS_KEY_ID")
	overrideString(&cfg.Archive.S3.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	overrideString(&cfg.Archive.S3.Region, "AWS_REGION")
	overrideString(&cfg.Archive.S3.Bucket, "S3_BUCKET")

	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	var missing []string
	if cfg.Bloomberg.ClientID == "" {
		missing = append(missing, "BLOOMBERG_CLIENT_ID")
	}
	if cfg.Bloomberg.ClientSecret == "" {
		missing = append(missing, "BLOOMBERG_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required Bloomberg API credentials: %s", strings.Join(missing, ", "))
	}

	if cfg.Bloomberg.APIHost == "" {
		return fmt.Errorf("bloomberg.api_host is required")
	}
	if cfg.Bloomberg.OAuthEndpoint == "" {
		return fmt.Errorf("bloomberg.oauth_endpoint is required")
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be greater than 0")
	}
	if cfg.Poll.TimeoutMinutes <= 0 {
		return fmt.Errorf("poll.timeout_minutes must be greater than 0")
	}

	if cfg.Store.Port != "" {
		if _, err := strconv.Atoi(cfg.Store.Port); err != nil {
			return fmt.Errorf("store.port '%s' is not numeric", cfg.Store.Port)
		}
	}

	if cfg.Archive.S3.Enabled {
		if cfg.Archive.S3.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is required when S3 archiving is enabled")
		}
		if cfg.Archive.S3.Region == "" {
			return fmt.Errorf("archive.s3.region is required when S3 archiving is enabled")
		}
	}

	return nil
}

// StoreConfigured reports whether every connection parameter for the
// relational store is present. The load step is skipped, with a warning,
// when it is not.
func (c *Config) StoreConfigured() bool {
	s := c.Store
	return s.Address != "" && s.Port != "" && s.User != "" && s.Password != ""
}

// MissingStoreKeys lists the store connection keys that are not set, for
// startup diagnostics.
func (c *Config) MissingStoreKeys() []string {
	var missing []string
	if c.Store.Address == "" {
		missing = append(missing, "DB_ADDRESS")
	}
	if c.Store.Port == "" {
		missing = append(missing, "DB_PORT")
	}
	if c.Store.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Store.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	return missing
}
