package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	unitResults   *prom.CounterVec
	runOutcome    *prom.CounterVec
	prunedFiles   prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "webcompile",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual compile stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "webcompile",
			Name:      "run_duration_seconds",
			Help:      "Total compile-run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.unitResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "webcompile",
			Name:      "unit_results_total",
			Help:      "Compilation unit result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "webcompile",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.prunedFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "webcompile",
			Name:      "pruned_files_total",
			Help:      "Stale hashed output files removed",
		})

		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.unitResults, pr.runOutcome, pr.prunedFiles)
	})
	return pr
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	pr.runDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncUnitResult(stage string, result ResultLabel) {
	pr.unitResults.WithLabelValues(stage, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncRunOutcome(outcome string) {
	pr.runOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) IncPrunedFiles(n int) {
	pr.prunedFiles.Add(float64(n))
}
