package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsProvider supplies current security-state counts at scrape time
type StatsProvider interface {
	ActiveSessionCount() int
	BlockedKeyCount() int
	FailedAttemptCount() int
}

// SecurityStateCollector reads security-state gauges from the coordinator on
// each scrape instead of tracking them incrementally, so the values can never
// drift from the maps they describe.
type SecurityStateCollector struct {
	provider StatsProvider

	activeSessions *prometheus.Desc
	blockedKeys    *prometheus.Desc
	failedAttempts *prometheus.Desc
}

// NewSecurityStateCollector creates a new collector
func NewSecurityStateCollector(provider StatsProvider) *SecurityStateCollector {
	return &SecurityStateCollector{
		provider: provider,
		activeSessions: prometheus.NewDesc(
			"inkwell_active_sessions",
			"Number of active admin sessions",
			nil, nil,
		),
		blockedKeys: prometheus.NewDesc(
			"inkwell_blocked_login_keys",
			"Number of (ip, username) keys currently locked out",
			nil, nil,
		),
		failedAttempts: prometheus.NewDesc(
			"inkwell_failed_login_attempts",
			"Total failed login attempts currently tracked",
			nil, nil,
		),
	}
}

// Describe sends metric descriptors to Prometheus
func (c *SecurityStateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessions
	ch <- c.blockedKeys
	ch <- c.failedAttempts
}

// Collect fetches current counts from the coordinator and sends to Prometheus
func (c *SecurityStateCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		c.activeSessions,
		prometheus.GaugeValue,
		float64(c.provider.ActiveSessionCount()),
	)

	ch <- prometheus.MustNewConstMetric(
		c.blockedKeys,
		prometheus.GaugeValue,
		float64(c.provider.BlockedKeyCount()),
	)

	ch <- prometheus.MustNewConstMetric(
		c.failedAttempts,
		prometheus.GaugeValue,
		float64(c.provider.FailedAttemptCount()),
	)
}
