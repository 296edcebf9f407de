package prometheus

import (
	"strconv"
	"time"
)

// ScanMetrics holds every series emitted by the scan pipeline and its HTTP
// surface.
type ScanMetrics struct {
	// Jobs
	JobsSubmittedTotal CounterVec
	JobsFinishedTotal  CounterVec
	JobDuration        HistogramVec
	QueueDepth         GaugeVec
	ActiveWorkers      GaugeVec

	// Evaluation
	EvaluationDuration HistogramVec
	RiskScore          HistogramVec
	ViolationsTotal    CounterVec

	// Collaborators
	QuotaRejectionsTotal CounterVec
	VisionRequestsTotal  CounterVec
	VisionDuration       HistogramVec
	CacheAccessTotal     CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultJobDurationBuckets  = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	RiskScoreBuckets           = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
)

// NewScanMetrics registers all scan metrics on collector.
func NewScanMetrics(c MetricsCollector) *ScanMetrics {
	return &ScanMetrics{
		JobsSubmittedTotal: c.RegisterCounter("scan_jobs_submitted_total", "Scan jobs accepted for processing", "scan_type"),
		JobsFinishedTotal:  c.RegisterCounter("scan_jobs_finished_total", "Scan jobs reaching a terminal state", "status"),
		JobDuration:        c.RegisterHistogram("scan_job_duration_seconds", "Wall time from claim to terminal state", DefaultJobDurationBuckets, "status"),
		QueueDepth:         c.RegisterGauge("scan_queue_depth", "Jobs waiting for a worker", "pool"),
		ActiveWorkers:      c.RegisterGauge("scan_active_workers", "Workers currently evaluating a job", "pool"),

		EvaluationDuration: c.RegisterHistogram("evaluation_duration_seconds", "Evaluation engine run time", DefaultJobDurationBuckets, "mode"),
		RiskScore:          c.RegisterHistogram("evaluation_risk_score", "Distribution of final risk scores", RiskScoreBuckets, "mode"),
		ViolationsTotal:    c.RegisterCounter("evaluation_violations_total", "Violations recorded by kind", "kind"),

		QuotaRejectionsTotal: c.RegisterCounter("quota_rejections_total", "Submissions rejected by the quota gate", "scan_type"),
		VisionRequestsTotal:  c.RegisterCounter("vision_requests_total", "Vision provider calls by provider and origin", "provider", "origin"),
		VisionDuration:       c.RegisterHistogram("vision_request_duration_seconds", "Vision provider latency", DefaultJobDurationBuckets, "provider"),
		CacheAccessTotal:     c.RegisterCounter("cache_access_total", "Read-through cache lookups", "cache", "result"),

		HTTPRequestsTotal:   c.RegisterCounter("http_requests_total", "HTTP requests by route and status", "method", "route", "status_code"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", DefaultHTTPDurationBuckets, "method", "route"),
	}
}

// RecordJobSubmitted counts an accepted submission.
func (m *ScanMetrics) RecordJobSubmitted(scanType string) {
	if m == nil {
		return
	}
	m.JobsSubmittedTotal.WithLabelValues(scanType).Inc()
}

// RecordQuotaRejection counts a submission refused by the quota gate.
func (m *ScanMetrics) RecordQuotaRejection(scanType string) {
	if m == nil {
		return
	}
	m.QuotaRejectionsTotal.WithLabelValues(scanType).Inc()
}

// SetPoolState publishes a worker pool's queue depth and busy workers.
func (m *ScanMetrics) SetPoolState(pool string, queued, active int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(pool).Set(float64(queued))
	m.ActiveWorkers.WithLabelValues(pool).Set(float64(active))
}

// RecordJobFinished records a terminal job transition.
func (m *ScanMetrics) RecordJobFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsFinishedTotal.WithLabelValues(status).Inc()
	m.JobDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordEvaluation records one engine run.
func (m *ScanMetrics) RecordEvaluation(mode string, score int, kinds []string, d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationDuration.WithLabelValues(mode).Observe(d.Seconds())
	m.RiskScore.WithLabelValues(mode).Observe(float64(score))
	for _, k := range kinds {
		m.ViolationsTotal.WithLabelValues(k).Inc()
	}
}

// RecordVision records one provider call.
func (m *ScanMetrics) RecordVision(provider, origin string, d time.Duration) {
	if m == nil {
		return
	}
	m.VisionRequestsTotal.WithLabelValues(provider, origin).Inc()
	m.VisionDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordCacheAccess records a hit or miss on a named cache.
func (m *ScanMetrics) RecordCacheAccess(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccessTotal.WithLabelValues(cache, result).Inc()
}

// RecordHTTPRequest records one served request.
func (m *ScanMetrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

//Personal.AI order the ending
