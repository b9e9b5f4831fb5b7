package ledger

import (
	"fmt"

	"github.com/koperasi/backend/internal/domain/shared"
)

// Report request and aggregation errors
var (
	ErrMissingParameter      = shared.NewDomainError("MISSING_PARAMETER", "Missing required parameter: type")
	ErrUnsupportedReportType = shared.NewDomainError("UNSUPPORTED_REPORT_TYPE", "Invalid report type")
	ErrInvalidParameter      = shared.NewDomainError("INVALID_PARAMETER", "Invalid parameter")
	ErrAggregationFailure    = shared.NewDomainError("AGGREGATION_FAILURE", "Failed to generate report")
)

// AggregationError is returned when a ledger query fails mid-report.
// It matches ErrAggregationFailure with errors.Is and unwraps to the store error.
type AggregationError struct {
	ReportType  ReportType
	AccountCode string
	Err         error
}

// Error implements the error interface
func (e *AggregationError) Error() string {
	if e.AccountCode != "" {
		return fmt.Sprintf("%s: account %s: %v", e.ReportType, e.AccountCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.ReportType, e.Err)
}

// Unwrap exposes both the failure sentinel and the underlying cause
func (e *AggregationError) Unwrap() []error {
	return []error{ErrAggregationFailure, e.Err}
}

func newAggregationError(reportType ReportType, accountCode string, err error) error {
	return &AggregationError{
		ReportType:  reportType,
		AccountCode: accountCode,
		Err:         err,
	}
}
