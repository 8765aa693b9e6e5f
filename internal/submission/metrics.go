package submission

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the submission pipeline. Nil-safe: a nil receiver
// records nothing, so tests can pass nil.
type Metrics struct {
	Attempts       *prometheus.CounterVec
	Duration       prometheus.Histogram
	ChallengePolls prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tripgate_submission_attempts_total",
			Help: "Submission attempts by outcome",
		}, []string{"outcome"}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripgate_submission_duration_seconds",
			Help:    "End-to-end submission attempt duration",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 75, 90},
		}),
		ChallengePolls: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripgate_challenge_polls",
			Help:    "Polls taken to acquire a challenge token",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 80, 100, 120},
		}),
	}
}

func (m *Metrics) ObserveAttempt(outcome string, d time.Duration) {
	if m != nil {
		m.Attempts.WithLabelValues(outcome).Inc()
		m.Duration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObservePolls(n int) {
	if m != nil {
		m.ChallengePolls.Observe(float64(n))
	}
}
