package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
)

func TestStartupWithNothingConfigured(t *testing.T) {
	t.Parallel()

	a := New(&config.Config{}, zap.NewNop())
	report := a.Startup(context.Background())

	if len(report) != 0 {
		t.Errorf("Expected empty report with no resources configured, got %v", report)
	}
	if report.Degraded() {
		t.Error("Empty report must not be degraded")
	}
}

func TestStartupDegradedWithUnreachableStore(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// TEST-NET-1 address; nothing listens there.
	a := New(&config.Config{RedisURL: "redis://192.0.2.1:6379"}, zap.NewNop())
	report := a.Startup(ctx)

	if len(report) != 1 {
		t.Fatalf("Expected 1 resource in report, got %d", len(report))
	}
	if report[0].Name != "redis" {
		t.Errorf("Expected redis entry, got %q", report[0].Name)
	}
	if report[0].Connected {
		t.Error("Unreachable redis must report not connected")
	}
	if report[0].Err == nil {
		t.Error("Expected connection error in report")
	}
	if !report.Degraded() {
		t.Error("Report with a failed resource must be degraded")
	}

	// The server still serves; the limiter runs disabled (fail-open).
	if a.Redis != nil {
		t.Error("Failed connection must leave the store nil")
	}
}

func TestDegraded(t *testing.T) {
	t.Parallel()

	healthy := StartupReport{{Name: "redis", Connected: true}}
	if healthy.Degraded() {
		t.Error("All-connected report must not be degraded")
	}

	mixed := StartupReport{
		{Name: "redis", Connected: true},
		{Name: "postgres", Err: errors.New("refused")},
	}
	if !mixed.Degraded() {
		t.Error("Report with failures must be degraded")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	a := New(&config.Config{}, zap.NewNop())
	a.Shutdown(context.Background())
	a.Shutdown(context.Background())
}
