package uploadhttp

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourname/upload_lite/internal/models"
)

const metricsNamespace = "upload_lite"

// modeUnknown помечает запросы, отклонённые до того, как стал известен режим загрузки.
const modeUnknown models.Mode = "unknown"

// metrics — счётчики HTTP-слоя загрузчика.
type metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	committedBytes prometheus.Counter
	sweptEntries   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Upload requests by mode and outcome (chunk, complete, error).",
		}, []string{"mode", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Upload request processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Failed upload operations by error code.",
		}, []string{"code"}),

		committedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "committed_bytes_total",
			Help:      "Bytes of files committed to the target directory.",
		}),

		sweptEntries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "janitor_removed_total",
			Help:      "Stale partial uploads and lock files removed by the janitor.",
		}),
	}
}

// observe учитывает результат одной операции загрузки.
func (m *metrics) observe(mode models.Mode, res models.UploadResult, err error, seconds float64) {
	m.duration.WithLabelValues(string(mode)).Observe(seconds)

	switch {
	case err != nil:
		m.requests.WithLabelValues(string(mode), "error").Inc()
		m.errors.WithLabelValues(strconv.Itoa(models.KindOf(err).Code())).Inc()
	case res.Complete():
		m.requests.WithLabelValues(string(mode), "complete").Inc()
		m.committedBytes.Add(float64(res.Size))
	default:
		m.requests.WithLabelValues(string(mode), "chunk").Inc()
	}
}
