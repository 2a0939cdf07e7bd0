package config

import (
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"11000"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type DatabaseConfig struct {
	Host            string `env:"LEADSTACK_POSTGRES_HOST,required"`
	Port            string `env:"LEADSTACK_POSTGRES_PORT,required"`
	User            string `env:"LEADSTACK_POSTGRES_USER,required"`
	DBName          string `env:"LEADSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"LEADSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"LEADSTACK_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"LEADSTACK_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"LEADSTACK_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"LEADSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"LEADSTACK_POSTGRES_SSL_MODE" envDefault:"disable"`
}

type DigestStorageConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"AWS_SECRET_ACCESS_KEY"`
	DigestBucket    string `env:"BUCKET_NAME_LEAD_DIGESTS" envDefault:"lead-digests"`
}

type Config struct {
	AppConfig           *AppConfig
	Logger              *logger.Config
	Tracing             *tracing.JaegerConfig
	DatabaseConfig      *DatabaseConfig
	DigestStorageConfig *DigestStorageConfig
}
