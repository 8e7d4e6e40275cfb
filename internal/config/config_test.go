package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort != ":8080" {
		t.Fatalf("expected default server port")
	}
	if cfg.HeartbeatInterval != time.Second {
		t.Fatalf("expected 1s heartbeat, got %v", cfg.HeartbeatInterval)
	}
	if cfg.SampleBuffer != 64 {
		t.Fatalf("expected default sample buffer")
	}
	if cfg.AdvisorURL != "" || cfg.PostgresURL != "" || cfg.RedisAddr != "" {
		t.Fatalf("expected optional collaborators disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("HEARTBEAT_INTERVAL", "250ms")
	t.Setenv("SAMPLE_BUFFER", "8")
	t.Setenv("ADVISOR_URL", "http://advisor/insights")
	t.Setenv("ADVISOR_TIMEOUT", "3s")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.HeartbeatInterval != 250*time.Millisecond {
		t.Fatalf("expected override heartbeat, got %v", cfg.HeartbeatInterval)
	}
	if cfg.SampleBuffer != 8 {
		t.Fatalf("expected override buffer")
	}
	if cfg.AdvisorURL != "http://advisor/insights" || cfg.AdvisorTimeout != 3*time.Second {
		t.Fatalf("expected override advisor")
	}
}
