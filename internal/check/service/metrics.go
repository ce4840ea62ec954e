package service

import (
	"structcheck/internal/check/kind"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structcheck_checks_total",
			Help: "Completed checks by kind and final status",
		},
		[]string{"kind", "status"},
	)

	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "structcheck_check_duration_seconds",
			Help:    "Wall time of one check",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"kind"},
	)

	hintsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structcheck_hints_total",
			Help: "Hints produced by kind",
		},
		[]string{"kind"},
	)

	slotRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "structcheck_slot_rejections_total",
			Help: "Checks rejected because every worker slot was busy",
		},
	)
)

func observeCheck(k kind.Kind, out Outcome) {
	checksTotal.WithLabelValues(k.String(), string(out.Verdict.Status)).Inc()
	checkDuration.WithLabelValues(k.String()).Observe(out.Elapsed.Seconds())
	if n := len(out.Verdict.Hints); n > 0 {
		hintsTotal.WithLabelValues(k.String()).Add(float64(n))
	}
}
