package alerts

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// Metrics exposes alert lifecycle counters. All record methods are safe
// to call on a nil receiver so wiring metrics stays optional in tests.
type Metrics struct {
	alertsCreated *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	slaSweeps     prometheus.Counter
	openAlerts    prometheus.Gauge
}

// NewMetrics registers the alert metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		alertsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screening",
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "Alerts created, by type and risk level.",
		}, []string{"alert_type", "risk_level"}),
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screening",
			Subsystem: "alerts",
			Name:      "escalations_total",
			Help:      "Escalations performed, by risk level and new level.",
		}, []string{"risk_level", "level"}),
		slaSweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "screening",
			Subsystem: "alerts",
			Name:      "sla_sweeps_total",
			Help:      "SLA breach sweeps executed.",
		}),
		openAlerts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "screening",
			Subsystem: "alerts",
			Name:      "open",
			Help:      "Alerts currently in a non-terminal status.",
		}),
	}
}

func (m *Metrics) RecordAlertCreated(alertType compliance.AlertType, risk compliance.RiskLevel) {
	if m == nil {
		return
	}
	m.alertsCreated.WithLabelValues(string(alertType), string(risk)).Inc()
}

func (m *Metrics) RecordEscalation(risk compliance.RiskLevel, level int) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(string(risk), strconv.Itoa(level)).Inc()
}

func (m *Metrics) RecordSweep() {
	if m == nil {
		return
	}
	m.slaSweeps.Inc()
}

func (m *Metrics) SetOpenAlerts(n int) {
	if m == nil {
		return
	}
	m.openAlerts.Set(float64(n))
}
