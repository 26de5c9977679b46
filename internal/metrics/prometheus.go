package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triguard_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"}, // status: success|error
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triguard_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triguard_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"stage"}, // stage: load|split|features|hpo|ensemble|report
	)

	// Model quality metrics, set after each completed run
	EnsembleF1 = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "triguard_ensemble_oof_f1",
			Help: "Out-of-fold F1 of the weighted ensemble from the last run",
		},
	)

	EnsembleAUC = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "triguard_ensemble_oof_auc",
			Help: "Out-of-fold ROC AUC of the weighted ensemble from the last run",
		},
	)

	EnsembleThreshold = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "triguard_ensemble_threshold",
			Help: "Tuned decision threshold from the last run",
		},
	)

	FamilyF1 = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triguard_family_oof_f1",
			Help: "Out-of-fold F1 per model family from the last run",
		},
		[]string{"family"},
	)

	PartitionRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triguard_partition_rows",
			Help: "Row counts of the last run's partitions",
		},
		[]string{"partition"}, // partition: train|test
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triguard_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triguard_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 600, 1800},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triguard_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// API metrics
	TriageRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triguard_triage_requests_total",
			Help: "Total triage assessments served",
		},
		[]string{"status"}, // status: success|error
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triguard_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)

	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triguard_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(StageDuration)

	prometheus.MustRegister(EnsembleF1)
	prometheus.MustRegister(EnsembleAUC)
	prometheus.MustRegister(EnsembleThreshold)
	prometheus.MustRegister(FamilyF1)
	prometheus.MustRegister(PartitionRows)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(TriageRequests)
	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(DBQueries)
}

// Register adds a collector built after Init, such as the staging row
// collector that needs a live database handle
func Register(c prometheus.Collector) {
	prometheus.MustRegister(c)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPipelineRun records one completed or failed pipeline run
func RecordPipelineRun(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	PipelineRuns.WithLabelValues(status).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

// RecordStage records one pipeline stage duration
func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueries.WithLabelValues(database, operation, status).Inc()
}
