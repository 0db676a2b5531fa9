package server

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder owns the Prometheus metrics of the preview server.
type Recorder struct {
	registry *prom.Registry

	buildOutcome  *prom.CounterVec
	buildDuration prom.Histogram
	branchFiles   *prom.GaugeVec
	lastBuild     prom.Gauge
	requests      *prom.CounterVec
}

// NewRecorder constructs and registers the metric set on its own registry,
// including the standard Go and process collectors.
func NewRecorder() *Recorder {
	reg := prom.NewRegistry()

	r := &Recorder{
		registry: reg,
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "webforge",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "webforge",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		branchFiles: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "webforge",
			Name:      "branch_files",
			Help:      "Files written by the last build, per output branch",
		}, []string{"branch"}),
		lastBuild: prom.NewGauge(prom.GaugeOpts{
			Namespace: "webforge",
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time of the last completed build",
		}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "webforge",
			Name:      "http_requests_total",
			Help:      "Preview requests by status class",
		}, []string{"code"}),
	}

	reg.MustRegister(
		r.buildOutcome, r.buildDuration, r.branchFiles, r.lastBuild, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the registry for the /metrics handler.
func (r *Recorder) Registry() *prom.Registry { return r.registry }

// ObserveBuild records one build outcome.
func (r *Recorder) ObserveBuild(d time.Duration, unbundledFiles, bundledFiles int64, failed bool) {
	outcome := "success"
	if failed {
		outcome = "failed"
	}
	r.buildOutcome.WithLabelValues(outcome).Inc()
	r.buildDuration.Observe(d.Seconds())
	r.branchFiles.WithLabelValues("unbundled").Set(float64(unbundledFiles))
	r.branchFiles.WithLabelValues("bundled").Set(float64(bundledFiles))
	r.lastBuild.SetToCurrentTime()
}

func (r *Recorder) incRequest(status int) {
	r.requests.WithLabelValues(statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
