package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
)

const namespace = "auth"

// Register registers c with reg, reusing an identical collector registered
// earlier (tests and re-initialisation register twice).
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return c, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// Metrics holds the service level Prometheus collectors.
type Metrics struct {
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	purged        *prometheus.CounterVec
}

// NewMetrics registers the identity and notification collectors. A nil
// registerer selects the default registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	operations, err := Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identity",
		Name:      "operations_total",
		Help:      "Identity operations partitioned by operation and outcome.",
	}, []string{"operation", "outcome"}))
	if err != nil {
		return nil, err
	}

	notifications, err := Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notification",
		Name:      "deliveries_total",
		Help:      "Notification deliveries partitioned by kind and outcome.",
	}, []string{"kind", "outcome"}))
	if err != nil {
		return nil, err
	}

	purged, err := Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "purged_total",
		Help:      "Expired tokens removed by the reaper partitioned by token kind.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		operations:    operations,
		notifications: notifications,
		purged:        purged,
	}, nil
}

// ObserveOperation counts an identity operation by the class of its error.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveTokensPurged adds n purged tokens of kind.
func (m *Metrics) ObserveTokensPurged(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.WithLabelValues(kind).Add(float64(n))
}

// ObserveNotification counts a notification outcome: sent, failed or dropped.
func (m *Metrics) ObserveNotification(kind domain.NotificationKind, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(kind), outcome).Inc()
}

// Outcome maps err to a bounded label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch domain.Class(err) {
	case domain.ErrValidation:
		return "validation"
	case domain.ErrNotFound:
		return "not_found"
	case domain.ErrConflict:
		return "conflict"
	case domain.ErrCapability:
		return "capability"
	case domain.ErrAuthentication:
		return "authentication"
	case domain.ErrDelivery:
		return "delivery"
	case domain.ErrPersistence:
		return "persistence"
	default:
		return "error"
	}
}

var _ port.IdentityMetrics = (*Metrics)(nil)
