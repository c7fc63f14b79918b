package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-AutoParts-Env"); got != "dev" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, logger.Nop(),
		ReadinessCheck{Name: "postgres", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis", Pinger: stubPinger{}},
	)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body map[string]string
	decodeData(t, resp, &body)
	if body["status"] != "ready" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHealthReadyDependencyDown(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, logger.Nop(),
		ReadinessCheck{Name: "postgres", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis", Pinger: stubPinger{err: errBoom}},
	)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %q", env.Error.Code)
	}
}
