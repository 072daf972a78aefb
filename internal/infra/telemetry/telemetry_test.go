package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics returned error: %v", err)
	}

	m.ObserveOperation("confirm_verification", nil)
	m.ObserveOperation("confirm_verification", domain.NewError(domain.ErrCapability, "Invalid OTP"))
	m.ObserveOperation("confirm_verification", domain.NewError(domain.ErrCapability, "Token expired"))
	m.ObserveTokensPurged("verification", 3)
	m.ObserveTokensPurged("verification", 0)
	m.ObserveNotification(domain.NotificationWelcome, "sent")

	if got := testutil.ToFloat64(m.operations.WithLabelValues("confirm_verification", "capability")); got != 2 {
		t.Fatalf("expected 2 capability outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("confirm_verification", "ok")); got != 1 {
		t.Fatalf("expected 1 ok outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.purged.WithLabelValues("verification")); got != 3 {
		t.Fatalf("expected 3 purged tokens, got %v", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("welcome", "sent")); got != 1 {
		t.Fatalf("expected 1 sent notification, got %v", got)
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics returned error: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics returned error: %v", err)
	}

	first.ObserveOperation("register", nil)
	if got := testutil.ToFloat64(second.operations.WithLabelValues("register", "ok")); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestOutcomeUnclassified(t *testing.T) {
	if got := Outcome(errors.New("boom")); got != "error" {
		t.Fatalf("expected error outcome, got %s", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("register", nil)
	m.ObserveTokensPurged("reset", 1)
	m.ObserveNotification(domain.NotificationWelcome, "sent")
}
