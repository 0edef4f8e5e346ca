package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type NodeMetrics struct {
	opsTotal        *prometheus.CounterVec
	opFailures      *prometheus.CounterVec
	eventsEmitted   *prometheus.CounterVec
	stateVersion    prometheus.Gauge
	submissionsOpen prometheus.Gauge
	rewardsPaid     *prometheus.CounterVec
}

var (
	nodeOnce     sync.Once
	nodeRegistry *NodeMetrics
)

func Node() *NodeMetrics {
	nodeOnce.Do(func() {
		nodeRegistry = &NodeMetrics{
			opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ecochain_ops_total",
				Help: "Count of committed state operations by name.",
			}, []string{"op"}),
			opFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ecochain_op_failures_total",
				Help: "Count of rolled-back state operations by name.",
			}, []string{"op"}),
			eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ecochain_events_emitted_total",
				Help: "Count of events flushed after commit by type.",
			}, []string{"type"}),
			stateVersion: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "ecochain_state_version",
				Help: "Latest committed state version.",
			}),
			submissionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "ecochain_submissions_pending",
				Help: "Number of cleanup submissions awaiting a decision.",
			}),
			rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ecochain_rewards_paid_total",
				Help: "Count of reward payouts by kind.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			nodeRegistry.opsTotal,
			nodeRegistry.opFailures,
			nodeRegistry.eventsEmitted,
			nodeRegistry.stateVersion,
			nodeRegistry.submissionsOpen,
			nodeRegistry.rewardsPaid,
		)
	})
	return nodeRegistry
}

func (m *NodeMetrics) ObserveOp(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.opsTotal.WithLabelValues(op).Inc()
}

func (m *NodeMetrics) ObserveOpFailure(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.opFailures.WithLabelValues(op).Inc()
}

func (m *NodeMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}

func (m *NodeMetrics) SetStateVersion(version uint64) {
	if m == nil {
		return
	}
	m.stateVersion.Set(float64(version))
}

func (m *NodeMetrics) SetPendingSubmissions(count int) {
	if m == nil {
		return
	}
	m.submissionsOpen.Set(float64(count))
}

func (m *NodeMetrics) ObserveRewardPaid(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.rewardsPaid.WithLabelValues(kind).Inc()
}
