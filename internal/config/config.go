package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	PostgresURL       string        `mapstructure:"POSTGRES_URL"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	HeartbeatInterval time.Duration `mapstructure:"HEARTBEAT_INTERVAL"`
	SampleBuffer      int           `mapstructure:"SAMPLE_BUFFER"`
	AdvisorURL        string        `mapstructure:"ADVISOR_URL"`
	AdvisorAPIKey     string        `mapstructure:"ADVISOR_API_KEY"`
	AdvisorTimeout    time.Duration `mapstructure:"ADVISOR_TIMEOUT"`
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("HEARTBEAT_INTERVAL", time.Second)
	v.SetDefault("SAMPLE_BUFFER", 64)
	v.SetDefault("ADVISOR_URL", "")
	v.SetDefault("ADVISOR_API_KEY", "")
	v.SetDefault("ADVISOR_TIMEOUT", 20*time.Second)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
