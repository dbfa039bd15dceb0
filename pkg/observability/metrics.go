package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TranscodeJobsTotal 按结果统计已处理的转码任务
	TranscodeJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vod_transcode_jobs_total",
		Help: "Transcode jobs processed by result.",
	}, []string{"result"})

	TranscodeJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vod_transcode_job_duration_seconds",
		Help:    "Wall time of one transcode job from probe to cleanup.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	})

	ActiveTranscodeJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vod_transcode_active_jobs",
		Help: "Jobs currently held by local workers.",
	})

	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vod_cdn_webhooks_total",
		Help: "Encoding provider webhooks by event and outcome.",
	}, []string{"event", "outcome"})

	StreamGrantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vod_stream_grants_total",
		Help: "Playback grants issued by access type.",
	}, []string{"access_type"})
)

// MetricsHandler 暴露 /metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
