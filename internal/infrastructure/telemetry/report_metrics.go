package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ReportOutcome labels how a report request ended
type ReportOutcome string

const (
	ReportOutcomeSuccess     ReportOutcome = "success"
	ReportOutcomeClientError ReportOutcome = "client_error"
	ReportOutcomeFailure     ReportOutcome = "failure"
)

// ReportMetrics holds the instruments recorded by the financial report service.
type ReportMetrics struct {
	generated *Counter
	duration  *Histogram
	cache     *Counter
}

// NewReportMetrics creates the report instruments on the given meter
func NewReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewReportMetrics: meter cannot be nil")
	}

	generated, err := NewCounter(meter,
		"koperasi_report_requests_total",
		"Financial report requests by type and outcome",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "koperasi_report_duration_seconds",
		Description: "Time spent generating a financial report",
		Unit:        "s",
		Boundaries:  ReportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	cache, err := NewCounter(meter,
		"koperasi_report_cache_lookups_total",
		"Report cache lookups by type and result",
		"{lookup}",
	)
	if err != nil {
		return nil, err
	}

	return &ReportMetrics{
		generated: generated,
		duration:  duration,
		cache:     cache,
	}, nil
}

// RecordReport counts a finished request and its duration
func (m *ReportMetrics) RecordReport(ctx context.Context, reportType string, outcome ReportOutcome, d time.Duration) {
	if m == nil {
		return
	}
	m.generated.Inc(ctx, AttrReportType.String(reportType), AttrOutcome.String(string(outcome)))
	if outcome != ReportOutcomeClientError {
		m.duration.RecordDuration(ctx, d, AttrReportType.String(reportType))
	}
}

// RecordCacheLookup counts a report cache hit or miss
func (m *ReportMetrics) RecordCacheLookup(ctx context.Context, reportType string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.Inc(ctx, AttrReportType.String(reportType), AttrCacheResult.String(result))
}
