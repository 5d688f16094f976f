package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"carematch/internal/models"
)

// Login outcomes.
const (
	LoginSuccess   = "success"
	LoginInvalid   = "invalid"
	LoginSuspended = "suspended"
)

var (
	requestsDesc = prometheus.NewDesc(
		"carematch_requests",
		"Current number of help requests by status",
		[]string{"status"},
		nil,
	)
	shortlistsDesc = prometheus.NewDesc(
		"carematch_shortlist_entries",
		"Current number of shortlist entries",
		nil,
		nil,
	)
	matchesDesc = prometheus.NewDesc(
		"carematch_matches_total",
		"Total recorded matches",
		nil,
		nil,
	)
	accountsDesc = prometheus.NewDesc(
		"carematch_active_accounts",
		"Current number of active accounts by role",
		[]string{"role"},
		nil,
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carematch_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// StatsSource supplies the gauges read on every scrape. *db.DB satisfies it.
type StatsSource interface {
	CountRequestsByStatus(ctx context.Context, pinID *int64) (models.StatusCounts, error)
	CountAllShortlists(ctx context.Context) (int, error)
	CountAllMatches(ctx context.Context) (int, error)
	CountAccountsByRole(ctx context.Context) (map[models.Role]int, error)
}

// Collector is a custom Prometheus collector that reads domain counts from
// the store on each scrape.
type Collector struct {
	source  StatsSource
	timeout time.Duration
}

// NewCollector creates a collector backed by source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{source: source, timeout: 5 * time.Second}
}

// Describe sends the metric descriptors to the channel.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestsDesc
	ch <- shortlistsDesc
	ch <- matchesDesc
	ch <- accountsDesc
}

// Collect queries the store and emits the current values. A failing query
// drops only its own metric.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if counts, err := c.source.CountRequestsByStatus(ctx, nil); err != nil {
		slog.Error("failed to collect request metrics", "error", err)
	} else {
		for _, s := range models.Statuses {
			ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.GaugeValue, float64(counts[s]), string(s))
		}
	}

	if n, err := c.source.CountAllShortlists(ctx); err != nil {
		slog.Error("failed to collect shortlist metrics", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(shortlistsDesc, prometheus.GaugeValue, float64(n))
	}

	if n, err := c.source.CountAllMatches(ctx); err != nil {
		slog.Error("failed to collect match metrics", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(matchesDesc, prometheus.CounterValue, float64(n))
	}

	if byRole, err := c.source.CountAccountsByRole(ctx); err != nil {
		slog.Error("failed to collect account metrics", "error", err)
	} else {
		for _, r := range models.Roles {
			ch <- prometheus.MustNewConstMetric(accountsDesc, prometheus.GaugeValue, float64(byRole[r]), string(r))
		}
	}
}

var initOnce sync.Once

// Init registers the collector and the login counter with the default
// registry. Must be called once at startup.
func Init(source StatsSource) {
	initOnce.Do(func() {
		prometheus.MustRegister(NewCollector(source), loginAttempts)
	})
}

// RecordLogin counts a login attempt. It is safe to call before Init.
func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}
