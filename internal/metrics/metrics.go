// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excel_analytics_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "excel_analytics_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excel_analytics_uploads_total",
			Help: "Spreadsheets stored, by file type",
		},
		[]string{"file_type"},
	)

	uploadRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "excel_analytics_upload_rows",
			Help:    "Data rows per stored spreadsheet",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	chartsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excel_analytics_charts_built_total",
			Help: "Chart configurations built, by chart kind",
		},
		[]string{"kind"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excel_analytics_logins_total",
			Help: "Login attempts by method and outcome",
		},
		[]string{"method", "result"},
	)

	otpEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excel_analytics_otp_emails_total",
			Help: "Password reset emails by outcome",
		},
		[]string{"result"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "excel_analytics_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func ObserveUpload(fileType string, rows int) {
	uploadsTotal.WithLabelValues(fileType).Inc()
	uploadRows.Observe(float64(rows))
}

func ObserveChart(kind string) {
	chartsBuiltTotal.WithLabelValues(kind).Inc()
}

func ObserveLogin(method string, ok bool) {
	loginsTotal.WithLabelValues(method, outcome(ok)).Inc()
}

func ObserveOTPEmail(ok bool) {
	otpEmailsTotal.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
