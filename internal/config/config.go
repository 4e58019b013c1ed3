package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN         string `env:"DATABASE_DSN,required=true"`
	RedisURL            string `env:"REDIS_URL,required=true"`
	RabbitMQURL         string `env:"RABBITMQ_URL,required=true"`
	CRMWebhookURL       string `env:"CRM_WEBHOOK_URL"`
	APIPort             int    `env:"API_PORT,default=8080"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
	RateLimitPerSec     int    `env:"RATE_LIMIT_PER_SEC,default=20"`
	ReaperIntervalSec   int    `env:"REAPER_INTERVAL_SEC,default=60"`
	ReaperMaxCallAgeMin int    `env:"REAPER_MAX_CALL_AGE_MIN,default=30"`
	WorkerConcurrency   int    `env:"WORKER_CONCURRENCY,default=4"`
	WorkerPrefetch      int    `env:"WORKER_PREFETCH,default=8"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
