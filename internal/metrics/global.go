package metrics

import "sync"

var (
	globalCollector *Collector
	once            sync.Once
)

// Global returns the process-wide collector.
func Global() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}

// Metric names.
const (
	// Analysis
	MetricAnalysesTotal    = "aidebug_analyses_total"
	MetricAnalysisFailures = "aidebug_analysis_failures_total"
	MetricAnalysisDuration = "aidebug_analysis_duration_seconds"
	MetricIssuesFound      = "aidebug_issues_found_total"
	MetricFixesProduced    = "aidebug_fixes_produced_total"

	// Batch runs
	MetricFilesProcessed = "aidebug_files_processed_total"
	MetricFilesSkipped   = "aidebug_files_skipped_total"
	MetricBatchDuration  = "aidebug_batch_duration_seconds"

	// Cache
	MetricCacheHits   = "aidebug_cache_hits_total"
	MetricCacheMisses = "aidebug_cache_misses_total"

	// HTTP API
	MetricHTTPRequests = "aidebug_http_requests_total"
	MetricHTTPErrors   = "aidebug_http_errors_total"
	MetricHTTPInFlight = "aidebug_http_in_flight"
	MetricHTTPLatency  = "aidebug_http_latency_seconds"
)

// IssuesBySeverity returns the counter name for issues of one severity.
func IssuesBySeverity(severity string) string {
	return MetricIssuesFound + "_" + severity
}
