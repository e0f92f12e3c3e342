package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/persistence"
)

func TestReadinessWithoutBackends(t *testing.T) {
	h := NewHealthHandler("promoter-service", "test", &persistence.Postgres{}, &persistence.Redis{})
	app := fiber.New()
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	if err != nil {
		t.Fatalf("live request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("live status = %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503 with postgres down", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var payload struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error.Code != "DEPENDENCY_UNAVAILABLE" {
		t.Fatalf("code = %s, want DEPENDENCY_UNAVAILABLE", payload.Error.Code)
	}
	if payload.Error.Details["postgres"] == "" {
		t.Fatal("postgres failure must be reported")
	}
	// Redis trouble degrades caching but never flips readiness.
	if !strings.HasPrefix(payload.Error.Details["redis"], "degraded:") {
		t.Fatalf("redis detail = %q, want a degraded marker", payload.Error.Details["redis"])
	}
}
