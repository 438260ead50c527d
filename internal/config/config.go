package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v7"
)

type Config struct {
	Env    string `env:"ENV" envDefault:"development"`
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Upload UploadConfig
	S3     S3Config
	Events EventsConfig
	Kafka  KafkaConfig
	SQS    SQSConfig
}

type ServerConfig struct {
	Host                    string        `env:"HOST" envDefault:"0.0.0.0"`
	Port                    int           `env:"PORT" envDefault:"8000"`
	ReadTimeout             time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"60s"`
	WriteTimeout            time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"120s"`
	IdleTimeout             time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"70s"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins             []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
}

type MongoConfig struct {
	URI                    string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database               string        `env:"MONGO_DB_NAME" envDefault:"torre_de_controle"`
	ServerSelectionTimeout time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT" envDefault:"5s"`
	MaxPoolSize            uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"10"`
	EnsureIndexes          bool          `env:"MONGO_ENSURE_INDEXES" envDefault:"true"`
}

type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthConfig struct {
	SecretKey                string `env:"SECRET_KEY" envDefault:"troque-esta-chave-em-producao"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"600"`
}

type UploadConfig struct {
	MaxUploadMB int    `env:"MAX_UPLOAD_MB" envDefault:"50"`
	RejectsDir  string `env:"REJECTS_DIR" envDefault:""`
}

type S3Config struct {
	ArchiveEnabled bool   `env:"S3_ARCHIVE_ENABLED" envDefault:"false"`
	Bucket         string `env:"S3_BUCKET" envDefault:"torre-de-controle-imports"`
	Prefix         string `env:"S3_PREFIX" envDefault:"imports"`
}

// EventsConfig selects where import-completed events go: "kafka", "sqs" or
// "none" (log only).
type EventsConfig struct {
	Backend string `env:"EVENTS_BACKEND" envDefault:"none"`
}

type KafkaConfig struct {
	Brokers         []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic           string   `env:"KAFKA_TOPIC" envDefault:"import-events"`
	GroupID         string   `env:"KAFKA_GROUP_ID" envDefault:"torre-de-controle"`
	ClientID        string   `env:"KAFKA_CLIENT_ID" envDefault:"torre-de-controle"`
	Version         string   `env:"KAFKA_VERSION" envDefault:"2.8.1"`
	ConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" envDefault:"false"`
}

type SQSConfig struct {
	Endpoint  string `env:"SQS_ENDPOINT" envDefault:""`
	Region    string `env:"SQS_REGION" envDefault:"us-east-1"`
	QueueName string `env:"SQS_QUEUE_NAME" envDefault:"import-events"`
	AccessKey string `env:"SQS_ACCESS_KEY" envDefault:""`
	SecretKey string `env:"SQS_SECRET_KEY" envDefault:""`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Parse nested structs
	nested := []interface{}{
		&cfg.Server, &cfg.Mongo, &cfg.Redis, &cfg.Auth,
		&cfg.Upload, &cfg.S3, &cfg.Events, &cfg.Kafka, &cfg.SQS,
	}
	for _, section := range nested {
		if err := env.Parse(section); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Events.Backend {
	case "none", "kafka", "sqs":
	default:
		return fmt.Errorf("EVENTS_BACKEND must be none, kafka or sqs, got %q", c.Events.Backend)
	}
	if c.Upload.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// Address returns the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes is the upload ceiling in bytes.
func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) * 1024 * 1024
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}
