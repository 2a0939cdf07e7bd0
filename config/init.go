package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:           &AppConfig{},
		Logger:              &logger.Config{},
		Tracing:             &tracing.JaegerConfig{},
		DatabaseConfig:      &DatabaseConfig{},
		DigestStorageConfig: &DigestStorageConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading leadstack config: %v", err)
	}

	return config, nil
}
