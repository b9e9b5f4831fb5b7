// Package report implements the financial report use case on top of the ledger aggregator.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/infrastructure/telemetry"
)

// EpochStartDate is used when a request has no start_date
const EpochStartDate = "1970-01-01"

// reportTypeUnknown labels metrics for requests whose type could not be parsed
const reportTypeUnknown = "unknown"

// ReportCache stores serialized report envelopes
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LedgerVersioner reports the current ledger version used to key cached reports
type LedgerVersioner interface {
	LedgerVersion(ctx context.Context) (ledger.LedgerVersion, error)
}

// GenerateReportQuery holds the raw report request parameters
type GenerateReportQuery struct {
	Type      string `form:"type" json:"type"`
	StartDate string `form:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// FinancialReportService validates report requests, runs the aggregator
// and wraps the result in the response envelope
type FinancialReportService struct {
	aggregator *ledger.Aggregator
	validate   *validator.Validate
	cache      ReportCache
	versions   LedgerVersioner
	cacheTTL   time.Duration
	metrics    *telemetry.ReportMetrics
	inflight   singleflight.Group
	logger     *zap.Logger
	now        func() time.Time
}

// ServiceOption configures a FinancialReportService
type ServiceOption func(*FinancialReportService)

// WithCache enables report memoisation keyed on the ledger version.
// A nil cache or versioner leaves caching off.
func WithCache(cache ReportCache, versions LedgerVersioner, ttl time.Duration) ServiceOption {
	return func(s *FinancialReportService) {
		if cache == nil || versions == nil {
			return
		}
		s.cache = cache
		s.versions = versions
		s.cacheTTL = ttl
	}
}

// WithMetrics sets the report instruments
func WithMetrics(m *telemetry.ReportMetrics) ServiceOption {
	return func(s *FinancialReportService) {
		s.metrics = m
	}
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *FinancialReportService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for default end dates and generated_at
func WithClock(now func() time.Time) ServiceOption {
	return func(s *FinancialReportService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFinancialReportService creates a new FinancialReportService
func NewFinancialReportService(aggregator *ledger.Aggregator, opts ...ServiceOption) *FinancialReportService {
	s := &FinancialReportService{
		aggregator: aggregator,
		validate:   validator.New(),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheEnabled reports whether results are memoised
func (s *FinancialReportService) CacheEnabled() bool {
	return s.cache != nil
}

// Generate produces the requested report.
// Request errors match ledger.ErrMissingParameter, ledger.ErrUnsupportedReportType or
// ledger.ErrInvalidParameter and are returned before the store is touched.
// Store failures match ledger.ErrAggregationFailure.
func (s *FinancialReportService) Generate(ctx context.Context, q GenerateReportQuery) (*ReportEnvelope, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "report", "generate")
	defer span.End()
	log := logger.LOr(ctx, s.logger)

	req, err := s.parseQuery(q)
	if err != nil {
		log.Warn("Rejected financial report request",
			zap.String("type", q.Type),
			zap.String("start_date", q.StartDate),
			zap.String("end_date", q.EndDate),
			zap.String("reason", err.Error()),
		)
		label := reportTypeUnknown
		if t, perr := ledger.ParseReportType(q.Type); perr == nil {
			label = t.String()
		}
		s.metrics.RecordReport(ctx, label, telemetry.ReportOutcomeClientError, time.Since(start))
		telemetry.RecordError(span, err)
		return nil, err
	}

	reportType := req.Type.String()
	span.SetAttributes(
		attribute.String("report.type", reportType),
		attribute.String("report.start_date", req.Period.Start.Format(ledger.DateLayout)),
		attribute.String("report.end_date", req.Period.End.Format(ledger.DateLayout)),
	)

	cacheKey := s.cacheKey(ctx, log, req)
	if cacheKey != "" {
		if envelope, ok := s.lookup(ctx, log, cacheKey); ok {
			s.metrics.RecordCacheLookup(ctx, reportType, true)
			s.metrics.RecordReport(ctx, reportType, telemetry.ReportOutcomeSuccess, time.Since(start))
			span.SetAttributes(attribute.Bool("report.cache_hit", true))
			telemetry.SetOK(span)
			log.Info("Financial report served from cache",
				zap.String("type", reportType),
				zap.Duration("duration", time.Since(start)),
			)
			return envelope, nil
		}
		s.metrics.RecordCacheLookup(ctx, reportType, false)
	}

	envelope, err := s.produce(ctx, log, req, cacheKey)
	if err != nil {
		outcome := telemetry.ReportOutcomeClientError
		if errors.Is(err, ledger.ErrAggregationFailure) {
			outcome = telemetry.ReportOutcomeFailure
			log.Error("Failed to generate financial report",
				zap.String("type", reportType),
				zap.Error(err),
			)
		}
		s.metrics.RecordReport(ctx, reportType, outcome, time.Since(start))
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordReport(ctx, reportType, telemetry.ReportOutcomeSuccess, time.Since(start))
	telemetry.SetOK(span)
	log.Info("Financial report generated",
		zap.String("type", reportType),
		zap.String("start_date", req.Period.Start.Format(ledger.DateLayout)),
		zap.String("end_date", req.Period.End.Format(ledger.DateLayout)),
		zap.Duration("duration", time.Since(start)),
	)
	return envelope, nil
}

// produce runs the aggregator. Cacheable requests for the same key share one
// run while it is in flight, and its envelope is stored for later requests.
// The shared run is detached from any single caller's cancellation; each
// caller stops waiting when its own context ends.
func (s *FinancialReportService) produce(ctx context.Context, log *zap.Logger, req ledger.ReportRequest, cacheKey string) (*ReportEnvelope, error) {
	if cacheKey == "" {
		return s.build(ctx, log, req)
	}

	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(cacheKey, func() (any, error) {
		envelope, err := s.build(shared, log, req)
		if err != nil {
			return nil, err
		}
		s.store(shared, log, cacheKey, envelope)
		return envelope, nil
	})

	select {
	case <-ctx.Done():
		return nil, &ledger.AggregationError{ReportType: req.Type, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("report.shared", true))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ReportEnvelope), nil
	}
}

func (s *FinancialReportService) build(ctx context.Context, log *zap.Logger, req ledger.ReportRequest) (*ReportEnvelope, error) {
	result, err := s.aggregator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if tb, ok := result.(*ledger.TrialBalance); ok && !tb.IsBalanced() {
		log.Warn("Trial balance is out of balance",
			zap.String("total_debit", tb.TotalDebit.String()),
			zap.String("total_credit", tb.TotalCredit.String()),
		)
	}
	return &ReportEnvelope{
		Success:     true,
		GeneratedAt: s.now().UTC().Truncate(time.Second),
		Data:        ToReportDTO(result),
	}, nil
}

// parseQuery validates the type first, then the dates
func (s *FinancialReportService) parseQuery(q GenerateReportQuery) (ledger.ReportRequest, error) {
	reportType, err := ledger.ParseReportType(q.Type)
	if err != nil {
		return ledger.ReportRequest{}, err
	}

	q.StartDate = strings.TrimSpace(q.StartDate)
	q.EndDate = strings.TrimSpace(q.EndDate)
	if err := s.validate.Struct(q); err != nil {
		return ledger.ReportRequest{}, invalidDateError(err)
	}

	startRaw := q.StartDate
	if startRaw == "" {
		startRaw = EpochStartDate
	}
	startDate, err := time.Parse(ledger.DateLayout, startRaw)
	if err != nil {
		return ledger.ReportRequest{}, invalidDateError(err)
	}

	endDate := s.now()
	if q.EndDate != "" {
		endDate, err = time.Parse(ledger.DateLayout, q.EndDate)
		if err != nil {
			return ledger.ReportRequest{}, invalidDateError(err)
		}
	}

	period, err := ledger.NewPeriod(startDate, endDate)
	if err != nil {
		return ledger.ReportRequest{}, err
	}
	return ledger.ReportRequest{Type: reportType, Period: period}, nil
}

// invalidDateError converts a date validation failure into ledger.ErrInvalidParameter
func invalidDateError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := "start_date"
		if verrs[0].Field() == "EndDate" {
			field = "end_date"
		}
		return ledger.ErrInvalidParameter.WithMessage("Invalid " + field + ": expected YYYY-MM-DD")
	}
	return ledger.ErrInvalidParameter.WithMessage("Invalid date: expected YYYY-MM-DD")
}

// cacheKey returns "" when caching is off or the ledger version is unavailable
func (s *FinancialReportService) cacheKey(ctx context.Context, log *zap.Logger, req ledger.ReportRequest) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.versions.LedgerVersion(ctx)
	if err != nil {
		log.Warn("Ledger version unavailable, bypassing report cache", zap.Error(err))
		return ""
	}
	return strings.Join([]string{
		req.Type.String(),
		req.Period.Start.Format(ledger.DateLayout),
		req.Period.End.Format(ledger.DateLayout),
		version.String(),
	}, "|")
}

type cachedEnvelope struct {
	Success     bool            `json:"success"`
	GeneratedAt time.Time       `json:"generated_at"`
	Data        json.RawMessage `json:"data"`
}

func (s *FinancialReportService) lookup(ctx context.Context, log *zap.Logger, key string) (*ReportEnvelope, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var cached cachedEnvelope
	if err := json.Unmarshal(raw, &cached); err != nil {
		log.Warn("Discarding malformed cached report", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &ReportEnvelope{
		Success:     cached.Success,
		GeneratedAt: cached.GeneratedAt,
		Data:        cached.Data,
	}, true
}

func (s *FinancialReportService) store(ctx context.Context, log *zap.Logger, key string, envelope *ReportEnvelope) {
	raw, err := json.Marshal(envelope)
	if err != nil {
		log.Warn("Failed to encode report for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		log.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
