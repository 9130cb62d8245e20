package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	buildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "u2p",
			Name:      "builds_total",
			Help:      "Total artifact builds by kind (deck, archive) and result",
		},
		[]string{"kind", "result"},
	)

	buildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "u2p",
			Name:      "build_duration_seconds",
			Help:      "Duration of artifact builds by kind",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	slidesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "u2p",
			Name:      "slides_total",
			Help:      "Total slides generated across all deck builds",
		},
	)

	fallbackRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "u2p",
			Name:      "fallback_records_total",
			Help:      "Records demoted to the fallback summary slide",
		},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "u2p",
			Name:      "uploads_total",
			Help:      "Uploaded files by presentation kind",
		},
		[]string{"kind"},
	)

	batchRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "u2p",
			Name:      "batch_records",
			Help:      "Records currently held in the active batch",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(buildsTotal, buildDuration, slidesTotal, fallbackRecords, uploadsTotal, batchRecords)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveBuild(kind, result string, dur time.Duration) {
	buildsTotal.WithLabelValues(kind, result).Inc()
	buildDuration.WithLabelValues(kind).Observe(dur.Seconds())
}

func AddSlides(n int)       { slidesTotal.Add(float64(n)) }
func AddFallbacks(n int)    { fallbackRecords.Add(float64(n)) }
func IncUpload(kind string) { uploadsTotal.WithLabelValues(kind).Inc() }
func SetBatchRecords(n int) { batchRecords.Set(float64(n)) }
