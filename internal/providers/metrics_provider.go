package providers

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"musicwordle/internal/structures"
)

// Guess outcome labels.
const (
	OutcomeWon      = "won"
	OutcomeLost     = "lost"
	OutcomeContinue = "continue"
	OutcomeRejected = "rejected"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(kind string)
	IncCacheMisses(kind string)
	ObservePersistenceDuration(duration time.Duration)
	IncGamesCreated()
	IncGuesses(outcome string)
	IncProviderFallbacks(operation string)
	AddExpiredGames(n int)
}

// ActiveGamesCounter is the gauge source for active sessions.
type ActiveGamesCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	gamesCreated        prometheus.Counter
	guesses             *prometheus.CounterVec
	providerFallbacks   *prometheus.CounterVec
	expiredGames        prometheus.Counter
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(kind string) {
	m.cacheHits.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncCacheMisses(kind string) {
	m.cacheMisses.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncGamesCreated() {
	m.gamesCreated.Inc()
}

func (m *MetricsProvider) IncGuesses(outcome string) {
	m.guesses.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncProviderFallbacks(operation string) {
	m.providerFallbacks.WithLabelValues(operation).Inc()
}

func (m *MetricsProvider) AddExpiredGames(n int) {
	if n > 0 {
		m.expiredGames.Add(float64(n))
	}
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

func NewMetricsProvider(conf *structures.Config, games ActiveGamesCounter) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "musicwordle_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "musicwordle_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "musicwordle_cache_hits_total",
			Help: "Total number of catalog cache hits by key kind",
		}, []string{"kind"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "musicwordle_cache_misses_total",
			Help: "Total number of catalog cache misses by key kind",
		}, []string{"kind"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "musicwordle_persistence_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		gamesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "musicwordle_games_created_total",
			Help: "Total number of games started",
		}),

		guesses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "musicwordle_guesses_total",
			Help: "Total number of guesses by outcome",
		}, []string{"outcome"}),

		providerFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "musicwordle_provider_fallbacks_total",
			Help: "Total number of live catalog failures served from the fallback pool",
		}, []string{"operation"}),

		expiredGames: promauto.NewCounter(prometheus.CounterOpts{
			Name: "musicwordle_expired_games_total",
			Help: "Total number of games closed by the retention sweep",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "musicwordle_active_games",
		Help: "Current number of games accepting guesses",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := games.CountActive(ctx)
		if err != nil {
			return 0
		}
		return float64(n)
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncGamesCreated()                                 {}
func (n *noopMetrics) IncGuesses(_ string)                              {}
func (n *noopMetrics) IncProviderFallbacks(_ string)                    {}
func (n *noopMetrics) AddExpiredGames(_ int)                            {}
