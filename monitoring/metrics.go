package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total ledger operations by outcome",
		},
		[]string{"operation", "event_id", "status"},
	)

	authorizeDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authorize_decisions_total",
			Help: "Gate authorization decisions",
		},
		[]string{"event_id", "decision"},
	)

	enrolledParticipants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "enrolled_participants_total",
			Help: "Current number of enrolled participants per event",
		},
		[]string{"event_id"},
	)

	activeTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_tickets_total",
			Help: "Current number of live tickets per event",
		},
		[]string{"event_id"},
	)

	notificationBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_stream_length",
			Help: "Entries currently held in the notification stream",
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)

	transferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treasury_transfer_duration_seconds",
			Help:    "Duration of treasury transfers",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"provider"},
	)
)

// Monitor provides the metric surface the services record against. The
// background collector also samples the notification stream and runtime
// gauges.
type Monitor struct {
	redis     *redis.Client
	streamKey string
}

func NewMonitor(redisClient *redis.Client, streamKey string) *Monitor {
	monitor := &Monitor{redis: redisClient, streamKey: streamKey}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()

		m.collectStreamMetrics(ctx)
		goroutineCount.Set(float64(runtime.NumGoroutine()))
	}
}

func (m *Monitor) collectStreamMetrics(ctx context.Context) {
	if m.redis == nil || m.streamKey == "" {
		return
	}
	length, err := m.redis.XLen(ctx, m.streamKey).Result()
	if err != nil {
		return
	}
	notificationBacklog.Set(float64(length))
}

// TrackOperation records a ledger operation and its outcome.
func (m *Monitor) TrackOperation(operation, eventID, status string) {
	ledgerOperations.WithLabelValues(operation, eventID, status).Inc()
}

// TrackAuthorize records a gate decision.
func (m *Monitor) TrackAuthorize(eventID string, granted bool) {
	decision := "denied"
	if granted {
		decision = "granted"
	}
	authorizeDecisions.WithLabelValues(eventID, decision).Inc()
}

// SetEnrolled updates the participant gauge for an event.
func (m *Monitor) SetEnrolled(eventID string, count int) {
	enrolledParticipants.WithLabelValues(eventID).Set(float64(count))
}

// SetActiveTickets updates the live ticket gauge for an event.
func (m *Monitor) SetActiveTickets(eventID string, count int) {
	activeTickets.WithLabelValues(eventID).Set(float64(count))
}

// TrackTransfer records the duration of a treasury transfer.
func (m *Monitor) TrackTransfer(provider string, duration time.Duration) {
	transferDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
