package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koperasi/backend/internal/application/report"
	"github.com/koperasi/backend/internal/domain/ledger"
)

type unknownReport struct{}

func (unknownReport) ReportType() ledger.ReportType { return "aging_schedule" }

func TestToReportDTO(t *testing.T) {
	t.Run("every report type has a body", func(t *testing.T) {
		reports := []ledger.Report{
			&ledger.TrialBalance{},
			&ledger.BalanceSheet{},
			&ledger.IncomeStatement{},
			&ledger.CashFlowStatement{},
		}
		for _, r := range reports {
			assert.NotNil(t, report.ToReportDTO(r), "%T", r)
		}
	})

	t.Run("unknown report panics", func(t *testing.T) {
		assert.PanicsWithValue(t, "report: no response body for report_test.unknownReport", func() {
			report.ToReportDTO(unknownReport{})
		})
	})
}
