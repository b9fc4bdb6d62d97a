package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"minerva/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	Lexicon       LexiconConfig
	Analytics     AnalyticsConfig
	Predictor     PredictorConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"minerva"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`
}

// PostgresConfig configures the article store and lexicon source connection
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ClickHouseConfig configures the price and index store connection
type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"advisory"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"minerva"`
}

type AIConfig struct {
	OpenAIKey      string        `envconfig:"OPENAI_API_KEY"`
	ChatModel      string        `envconfig:"AI_CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel string        `envconfig:"AI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	RequestTimeout time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"30s"`
	RequestsPerMin int           `envconfig:"AI_REQUESTS_PER_MIN" default:"60"`
}

// LexiconConfig configures the Loughran-McDonald lexicon cache
type LexiconConfig struct {
	CacheDir string        `envconfig:"LEXICON_CACHE_DIR" default:"./cache"`
	TTL      time.Duration `envconfig:"LEXICON_CACHE_TTL" default:"168h"`
}

// AnalyticsConfig bounds the weekly news pipeline
type AnalyticsConfig struct {
	MaxArticlesPerWeek int           `envconfig:"ANALYTICS_MAX_ARTICLES_PER_WEEK" default:"2000"`
	TopKeywords        int           `envconfig:"ANALYTICS_TOP_KEYWORDS" default:"10"`
	ResponseCacheTTL   time.Duration `envconfig:"ANALYTICS_RESPONSE_CACHE_TTL" default:"24h"`
}

// PredictorConfig configures the weekly direction predictor
type PredictorConfig struct {
	Trees     int    `envconfig:"PREDICTOR_TREES" default:"100"`
	Seed      int64  `envconfig:"PREDICTOR_SEED" default:"42"`
	ModelPath string `envconfig:"PREDICTOR_ONNX_MODEL_PATH"` // optional pretrained backend
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	LexiconRefreshInterval time.Duration `envconfig:"WORKER_LEXICON_REFRESH_INTERVAL" default:"168h"`
	WeeklyWarmupInterval   time.Duration `envconfig:"WORKER_WEEKLY_WARMUP_INTERVAL" default:"1h"`
	WeeklyWarmupEnabled    bool          `envconfig:"WORKER_WEEKLY_WARMUP_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
