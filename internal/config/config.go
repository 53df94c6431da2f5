package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tablesync/internal/domain"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Source   SourceConfig   `yaml:"source"`
	Sync     SyncConfig     `yaml:"sync"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures checkpoint event publishing. An empty URL
// disables the publisher.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// SourceConfig describes the remote tabular API instance and the one
// table this invocation syncs.
type SourceConfig struct {
	BaseURL           string        `yaml:"base_url"`
	WorkspaceID       string        `yaml:"workspace_id"`
	TableID           string        `yaml:"table_id"`
	APIKey            string        `yaml:"api_key"`
	APISecret         string        `yaml:"api_secret"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Retry             RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

type SyncConfig struct {
	Interval           time.Duration `yaml:"interval"`
	RunTimeout         time.Duration `yaml:"run_timeout"`
	PageSize           int           `yaml:"page_size"`
	CheckpointInterval int           `yaml:"checkpoint_interval"`
	CursorOverlap      time.Duration `yaml:"cursor_overlap"`
	SyncFromDate       string        `yaml:"sync_from_date"`
	CustomFilterJSON   string        `yaml:"custom_filter_json"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the fields without which no sync can start.
func (c *Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"source.base_url", c.Source.BaseURL},
		{"source.table_id", c.Source.TableID},
		{"source.api_key", c.Source.APIKey},
		{"source.api_secret", c.Source.APISecret},
	}
	for _, f := range required {
		if f.value == "" {
			return domain.Errorf(domain.KindConfig, "missing required configuration field %q", f.name)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "tablesync"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "checkpoints"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "tablesync_checkpoints"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.RequestsPerSecond == 0 {
		c.Source.RequestsPerSecond = 50
	}
	if c.Source.Retry.MaxAttempts == 0 {
		c.Source.Retry.MaxAttempts = 3
	}
	if c.Source.Retry.BackoffBase == 0 {
		c.Source.Retry.BackoffBase = 5 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.RunTimeout == 0 {
		c.Sync.RunTimeout = 30 * time.Minute
	}
	if c.Sync.PageSize == 0 {
		c.Sync.PageSize = 100
	}
	if c.Sync.CheckpointInterval == 0 {
		c.Sync.CheckpointInterval = 500
	}
	if c.Sync.CursorOverlap == 0 {
		c.Sync.CursorOverlap = 60 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
