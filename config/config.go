package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	S3         S3Config         `yaml:"s3"`
	Identity   IdentityConfig   `yaml:"identity"`
	Sources    SourcesConfig    `yaml:"sources"`
	Logging    LoggingConfig    `yaml:"logging"`
	FlightBox  FlightBoxConfig  `yaml:"flightbox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"` // "postgres" | "sqlite"
	SQLitePath string `yaml:"sqlite_path"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	FlightLoggedTopicName  string `yaml:"flight_logged_topic_name"`
	StatusUpdatedTopicName string `yaml:"status_updated_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
}

type IdentityConfig struct {
	UserInfoURL     string            `yaml:"userinfo_url"`
	CacheTTLSeconds int               `yaml:"cache_ttl_seconds"`
	StaticTokens    map[string]string `yaml:"static_tokens"`
}

type SourcesConfig struct {
	AviationStackBaseURL   string `yaml:"aviationstack_base_url"`
	AviationStackKey       string `yaml:"aviationstack_key"`
	AviationStackPerMinute int    `yaml:"aviationstack_per_minute"`

	LiveScrapeBaseURL   string `yaml:"livescrape_base_url"`
	LiveScrapeUserAgent string `yaml:"livescrape_user_agent"`

	OpenSkyBaseURL  string `yaml:"opensky_base_url"`
	OpenSkyUsername string `yaml:"opensky_username"`
	OpenSkyPassword string `yaml:"opensky_password"`

	PerSourceTimeoutMs int `yaml:"per_source_timeout_ms"`
	LiveBudgetMs       int `yaml:"live_budget_ms"`
	CacheTTLSeconds    int `yaml:"cache_ttl_seconds"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File enables rotation; empty means stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type FlightBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	StatsTTLSeconds       int `yaml:"stats_ttl_seconds"`
	LeaderboardTTLSeconds int `yaml:"leaderboard_ttl_seconds"`
	MaxTxAttempts         int `yaml:"max_tx_attempts"`

	WorkerHTTPAddr            string `yaml:"worker_http_addr"`
	WorkerConsumerGroup       string `yaml:"worker_consumer_group"`
	WorkerPollIntervalSeconds int    `yaml:"worker_poll_interval_seconds"`
	WorkerBatchSize           int    `yaml:"worker_batch_size"`
	WorkerConcurrency         int    `yaml:"worker_concurrency"`
	WorkerLeaseSeconds        int    `yaml:"worker_lease_seconds"`
	WorkerRateLimitPerMinute  int    `yaml:"worker_rate_limit_per_minute"`

	// Планировщик проверок статуса (опционально), по умолчанию 2m / 5..15m / 60m.
	WorkerAirborneDelaySeconds int `yaml:"worker_airborne_delay_seconds"`
	WorkerNearMinDelaySeconds  int `yaml:"worker_near_min_delay_seconds"`
	WorkerNearMaxDelaySeconds  int `yaml:"worker_near_max_delay_seconds"`
	WorkerFarDelaySeconds      int `yaml:"worker_far_delay_seconds"`
	WorkerBackoff1Seconds      int `yaml:"worker_backoff_1_seconds"`
	WorkerBackoff2Seconds      int `yaml:"worker_backoff_2_seconds"`
	WorkerBackoff3Seconds      int `yaml:"worker_backoff_3_seconds"`
	WorkerBackoff4Seconds      int `yaml:"worker_backoff_4_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal YAML")
	}

	config.applyEnv()
	return &config, nil
}

// LoadDotEnv reads .env files into the process environment if they exist.
// Variables that are already set win.
func LoadDotEnv(files ...string) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		_ = godotenv.Load(existing...)
	}
}

// Секреты можно не держать в yaml: переменные окружения перекрывают файл.
func (c *Config) applyEnv() {
	setStr(&c.Database.Password, "FLIGHTBOX_DB_PASSWORD")
	setStr(&c.Sources.AviationStackKey, "AVIATIONSTACK_ACCESS_KEY")
	setStr(&c.Sources.OpenSkyUsername, "OPENSKY_USERNAME")
	setStr(&c.Sources.OpenSkyPassword, "OPENSKY_PASSWORD")
	setStr(&c.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setStr(&c.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setStr(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")
	setStr(&c.Logging.Level, "LOG_LEVEL")
	if v := os.Getenv("FLIGHTBOX_HTTP_PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.FlightBox.HTTPAddr = ":" + v
		}
	}
}

func setStr(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}
