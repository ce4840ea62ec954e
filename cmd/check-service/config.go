package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"structcheck/internal/check/oracle"
	"structcheck/internal/common/cache"
	"structcheck/internal/common/db"
	"structcheck/internal/common/http/middleware"
	"structcheck/internal/common/mq"
	"structcheck/internal/common/storage"
	"structcheck/pkg/utils/logger"

	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8090"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultCheckTimeout   = 10 * time.Second
	defaultSlotWait       = 2 * time.Second
	defaultMaxSourceBytes = 256 << 10
	defaultWarmTimeout    = 2 * time.Minute
	defaultPollInterval   = 500 * time.Millisecond
	defaultRateWindow     = time.Minute

	defaultStatusTTL     = 24 * time.Hour
	defaultStatusTimeout = 2 * time.Second
	defaultRequestTopic  = "structcheck.requests"
	defaultFinalTopic    = "structcheck.status.final"
	defaultSourceBucket  = "structcheck-sources"
	defaultSourceTimeout = 5 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	// StreamPoll is how often a websocket status stream polls for changes.
	StreamPoll time.Duration `yaml:"streamPoll"`

	// RateLimit applies to the routes that start a check.
	RateLimit middleware.RateLimitPolicy `yaml:"rateLimit"`
	CORS      middleware.CORSConfig      `yaml:"cors"`
}

// KafkaConfig holds Kafka settings. With no brokers the service uses an
// in-process queue.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	ClientID      string        `yaml:"clientID"`
	MinBytes      int           `yaml:"minBytes"`
	MaxBytes      int           `yaml:"maxBytes"`
	MaxWait       time.Duration `yaml:"maxWait"`
	BatchSize     int           `yaml:"batchSize"`
	BatchTimeout  time.Duration `yaml:"batchTimeout"`
	DialTimeout   time.Duration `yaml:"dialTimeout"`
	RequiredAcks  int           `yaml:"requiredAcks"`
	Compression   string        `yaml:"compression"`
	RequestTopic  string        `yaml:"requestTopic"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Concurrency   int           `yaml:"concurrency"`
	MaxRetries    int           `yaml:"maxRetries"`
	RetryDelay    time.Duration `yaml:"retryDelay"`
	DeadLetter    string        `yaml:"deadLetterTopic"`
	MessageTTL    time.Duration `yaml:"messageTTL"`

	// AutoCreateTopics creates the request, dead letter and final status
	// topics on startup.
	AutoCreateTopics  bool `yaml:"autoCreateTopics"`
	Partitions        int  `yaml:"partitions"`
	ReplicationFactor int  `yaml:"replicationFactor"`
}

// CheckConfig holds check pipeline settings.
type CheckConfig struct {
	PoolSize       int             `yaml:"poolSize"`
	Timeout        time.Duration   `yaml:"timeout"`
	SlotWait       time.Duration   `yaml:"slotWait"`
	BenchSize      int             `yaml:"benchSize"`
	MaxSourceBytes int             `yaml:"maxSourceBytes"`
	AllowedImports []string        `yaml:"allowedImports"`
	// RulesDir replaces the embedded hint rules when set.
	RulesDir string          `yaml:"rulesDir"`
	Literals oracle.Literals `yaml:"literals"`
	// GoBinary, WorkDir and GoCache configure submission builds.
	GoBinary    string        `yaml:"goBinary"`
	WorkDir     string        `yaml:"workDir"`
	GoCache     string        `yaml:"goCache"`
	WarmTimeout time.Duration `yaml:"warmTimeout"`
}

// SourceConfig holds source snapshot settings.
type SourceConfig struct {
	Bucket  string        `yaml:"bucket"`
	Timeout time.Duration `yaml:"timeout"`
}

// StatusConfig holds status persistence settings.
type StatusConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	Timeout    time.Duration `yaml:"timeout"`
	FinalTopic string        `yaml:"finalTopic"`
}

// CodeConfig holds saved code settings.
type CodeConfig struct {
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	EmptyCacheTTL time.Duration `yaml:"emptyCacheTTL"`
	Timeout       time.Duration `yaml:"timeout"`
}

// AppConfig holds check-service config.
type AppConfig struct {
	Server   ServerConfig        `yaml:"server"`
	Logger   logger.Config       `yaml:"logger"`
	Kafka    KafkaConfig         `yaml:"kafka"`
	Database db.MySQLConfig      `yaml:"database"`
	Redis    cache.RedisConfig   `yaml:"redis"`
	MinIO    storage.MinIOConfig `yaml:"minio"`
	Check    CheckConfig         `yaml:"check"`
	Source   SourceConfig        `yaml:"source"`
	Status   StatusConfig        `yaml:"status"`
	Code     CodeConfig          `yaml:"code"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() error {
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	cfg.Redis.ApplyDefaults()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.StreamPoll == 0 {
		cfg.Server.StreamPoll = defaultPollInterval
	}
	if cfg.Server.RateLimit.IPMax > 0 && cfg.Server.RateLimit.Window <= 0 {
		cfg.Server.RateLimit.Window = defaultRateWindow
	}

	if cfg.Check.PoolSize <= 0 {
		cfg.Check.PoolSize = 1
	}
	if cfg.Check.Timeout == 0 {
		cfg.Check.Timeout = defaultCheckTimeout
	}
	if cfg.Check.SlotWait == 0 {
		cfg.Check.SlotWait = defaultSlotWait
	}
	if cfg.Check.BenchSize <= 0 {
		cfg.Check.BenchSize = oracle.DefaultBenchSize
	}
	if cfg.Check.WarmTimeout <= 0 {
		cfg.Check.WarmTimeout = defaultWarmTimeout
	}
	if cfg.Check.MaxSourceBytes <= 0 {
		cfg.Check.MaxSourceBytes = defaultMaxSourceBytes
	}
	cfg.Check.Literals = cfg.Check.Literals.WithDefaults()

	if cfg.Source.Bucket == "" {
		cfg.Source.Bucket = cfg.MinIO.Bucket
	}
	if cfg.Source.Bucket == "" {
		cfg.Source.Bucket = defaultSourceBucket
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = defaultSourceTimeout
	}

	if cfg.Status.TTL == 0 {
		cfg.Status.TTL = defaultStatusTTL
	}
	if cfg.Status.Timeout == 0 {
		cfg.Status.Timeout = defaultStatusTimeout
	}
	if cfg.Status.FinalTopic == "" {
		cfg.Status.FinalTopic = defaultFinalTopic
	}

	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = defaultRequestTopic
	}
	if cfg.Kafka.Concurrency <= 0 {
		cfg.Kafka.Concurrency = cfg.Check.PoolSize
	}
	if cfg.Kafka.DeadLetter == "" {
		cfg.Kafka.DeadLetter = cfg.Kafka.RequestTopic + ".dlq"
	}
	return nil
}

func (k KafkaConfig) toMQConfig() mq.KafkaConfig {
	return mq.KafkaConfig{
		Brokers:      k.Brokers,
		ClientID:     k.ClientID,
		MinBytes:     k.MinBytes,
		MaxBytes:     k.MaxBytes,
		MaxWait:      k.MaxWait,
		BatchSize:    k.BatchSize,
		BatchTimeout: k.BatchTimeout,
		DialTimeout:  k.DialTimeout,
		RequiredAcks: kafka.RequiredAcks(k.RequiredAcks),
		Compression:  parseCompression(k.Compression),

		Partitions:        k.Partitions,
		ReplicationFactor: k.ReplicationFactor,
	}
}

func (k KafkaConfig) subscribeOptions(limiter mq.FetchLimiter) *mq.SubscribeOptions {
	return &mq.SubscribeOptions{
		ConsumerGroup:   k.ConsumerGroup,
		Concurrency:     k.Concurrency,
		MaxRetries:      k.MaxRetries,
		RetryDelay:      k.RetryDelay,
		DeadLetterTopic: k.DeadLetter,
		MessageTTL:      k.MessageTTL,
		Limiter:         limiter,
	}
}

func parseCompression(raw string) kafka.Compression {
	switch strings.ToLower(raw) {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}
