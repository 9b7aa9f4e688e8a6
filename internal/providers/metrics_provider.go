package providers

import (
	"gamewarden/internal/structures"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncPolls(server, result string)
	SetPlayersOnline(server string, count int)
	IncNotifications(server, result string)
	SetConnectionState(server string, state int)
	IncBackups(server, result string)
	ObserveBackupDuration(server string, duration time.Duration)
	SetBackupSize(server string, bytes int64)
	AddPruned(server, location string, count int)
	Handler() http.Handler
}

type MetricsProvider struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	polls           *prometheus.CounterVec
	playersOnline   *prometheus.GaugeVec
	notifications   *prometheus.CounterVec
	connectionState *prometheus.GaugeVec
	backups         *prometheus.CounterVec
	backupDuration  *prometheus.HistogramVec
	backupSize      *prometheus.GaugeVec
	pruned          *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncPolls(server, result string) {
	m.polls.WithLabelValues(server, result).Inc()
}

func (m *MetricsProvider) SetPlayersOnline(server string, count int) {
	m.playersOnline.WithLabelValues(server).Set(float64(count))
}

func (m *MetricsProvider) IncNotifications(server, result string) {
	m.notifications.WithLabelValues(server, result).Inc()
}

func (m *MetricsProvider) SetConnectionState(server string, state int) {
	m.connectionState.WithLabelValues(server).Set(float64(state))
}

func (m *MetricsProvider) IncBackups(server, result string) {
	m.backups.WithLabelValues(server, result).Inc()
}

func (m *MetricsProvider) ObserveBackupDuration(server string, duration time.Duration) {
	m.backupDuration.WithLabelValues(server).Observe(duration.Seconds())
}

func (m *MetricsProvider) SetBackupSize(server string, bytes int64) {
	m.backupSize.WithLabelValues(server).Set(float64(bytes))
}

func (m *MetricsProvider) AddPruned(server, location string, count int) {
	m.pruned.WithLabelValues(server, location).Add(float64(count))
}

func (m *MetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &MetricsProvider{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamewarden_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gamewarden_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamewarden_cache_hits_total",
			Help: "Total number of status cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamewarden_cache_misses_total",
			Help: "Total number of status cache misses",
		}),

		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamewarden_roster_polls_total",
			Help: "Roster poll ticks by result",
		}, []string{"server", "result"}),

		playersOnline: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gamewarden_players_online",
			Help: "Players in the last persisted roster",
		}, []string{"server"}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamewarden_notifications_total",
			Help: "Status message reconcile cycles by result",
		}, []string{"server", "result"}),

		connectionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gamewarden_connection_state",
			Help: "Console connection state (0 disconnected, 1 connecting, 2 connected)",
		}, []string{"server"}),

		backups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamewarden_backups_total",
			Help: "Backup cycles by result",
		}, []string{"server", "result"}),

		backupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gamewarden_backup_duration_seconds",
			Help:    "Duration of backup cycles in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"server"}),

		backupSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gamewarden_backup_size_bytes",
			Help: "Size of the most recent archive",
		}, []string{"server"}),

		pruned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamewarden_backups_pruned_total",
			Help: "Archives deleted by retention pruning",
		}, []string{"server", "location"}),
	}

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncPolls(_, _ string)                             {}
func (n *noopMetrics) SetPlayersOnline(_ string, _ int)                 {}
func (n *noopMetrics) IncNotifications(_, _ string)                     {}
func (n *noopMetrics) SetConnectionState(_ string, _ int)               {}
func (n *noopMetrics) IncBackups(_, _ string)                           {}
func (n *noopMetrics) ObserveBackupDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) SetBackupSize(_ string, _ int64)                  {}
func (n *noopMetrics) AddPruned(_, _ string, _ int)                     {}
func (n *noopMetrics) Handler() http.Handler                            { return http.NotFoundHandler() }

// NewNoopMetrics returns a metrics provider that records nothing.
func NewNoopMetrics() MetricsProviderInterface {
	return &noopMetrics{}
}
