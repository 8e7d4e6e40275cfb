package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend-ridecoach/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{ServerPort: ":0"}, nil, nil)
	defer s.Close()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["postgres"] != false || body["advisor"] != false {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestRideRoutesMounted(t *testing.T) {
	s := NewServer(config.Config{ServerPort: ":0", HeartbeatInterval: time.Hour}, nil, nil)
	defer s.Close()

	req := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(`{"rider_id":"rider-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("start ride through server: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream/ws/some-ride", nil)
	resp, err = s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected stream routes mounted")
	}
}

func TestAdvisorConfigured(t *testing.T) {
	s := NewServer(config.Config{ServerPort: ":0", AdvisorURL: "http://127.0.0.1:1/insights"}, nil, nil)
	defer s.Close()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, _ := s.App.Test(req)
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["advisor"] != true {
		t.Fatalf("expected advisor enabled")
	}
}

func TestServerWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewServer(config.Config{ServerPort: ":0"}, nil, client)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
