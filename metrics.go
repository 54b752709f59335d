package goccm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendWrites counts backend writes by op and result
	backendWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goccm_backend_writes_total",
		Help: "Total writes issued to the platform clock backend",
	}, []string{"op", "result"})

	// apiErrors counts failed tree calls by error code
	apiErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goccm_api_errors_total",
		Help: "Total failed clock tree calls by error code",
	}, []string{"call", "code"})

	lockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "goccm_lock_wait_seconds",
		Help:    "Time spent waiting for the clock tree lock",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	})
)

func recordWrite(kind BackendOpKind, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	backendWrites.WithLabelValues(kind.String(), result).Inc()
}

// countError passes err through, counting it unless it only reports AlreadySet.
func countError(call string, err error) error {
	if err != nil && !IsAlreadySet(err) {
		apiErrors.WithLabelValues(call, ErrorCodeOf(err).String()).Inc()
	}
	return err
}
