package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response size in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 5),
	}, []string{"method", "path"})

	// gRPC метрики
	GRPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grpc_requests_total",
		Help: "Total number of gRPC requests",
	}, []string{"method", "status"})

	GRPCRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grpc_request_duration_seconds",
		Help:    "gRPC request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	// DB метрики хранилища сессий
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Database query duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	DBActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_active_connections",
		Help: "Number of active database connections",
	})

	DBIdleConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_idle_connections",
		Help: "Number of idle database connections",
	})

	// ЭКГ
	ECGSamplesParsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecg_samples_parsed",
		Help:    "Number of samples kept per uploaded ECG file",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})

	ECGRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecg_rows_skipped_total",
		Help: "Total number of ECG data rows dropped as malformed",
	})

	ClassificationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecg_classification_results_total",
		Help: "ECG classification outcomes by label",
	}, []string{"label"})

	ClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecg_classification_duration_seconds",
		Help:    "Round-trip duration of remote classification requests",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // от 50ms до ~100 секунд
	})

	// прогрев удалённого сервиса
	WakeProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_wake_probes_total",
		Help: "Wake probes sent to the inference service by result",
	}, []string{"result"})

	UpstreamState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "upstream_state",
		Help: "Inference service readiness: 0 idle, 1 waking, 2 online",
	})

	// риск
	RiskAssessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_assessments_total",
		Help: "Risk assessments by resulting level",
	}, []string{"level"})

	// события
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screening_event_publish_failures_total",
		Help: "Screening events that could not be published",
	}, []string{"type"})
)
