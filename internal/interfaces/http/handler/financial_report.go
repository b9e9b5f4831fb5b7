package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/koperasi/backend/internal/application/report"
)

// ReportGenerator produces financial report envelopes
type ReportGenerator interface {
	Generate(ctx context.Context, q report.GenerateReportQuery) (*report.ReportEnvelope, error)
}

// FinancialReportHandler serves the financial report endpoint
type FinancialReportHandler struct {
	BaseHandler
	reports ReportGenerator
}

// NewFinancialReportHandler creates a new FinancialReportHandler
func NewFinancialReportHandler(reports ReportGenerator) *FinancialReportHandler {
	return &FinancialReportHandler{reports: reports}
}

// GetFinancialReport handles GET /financial-reports?type=&start_date=&end_date=.
// The type is one of trial_balance, balance_sheet, income_statement or cash_flow;
// dates are YYYY-MM-DD and optional.
func (h *FinancialReportHandler) GetFinancialReport(c *gin.Context) {
	var q report.GenerateReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	envelope, err := h.reports.Generate(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, envelope)
}
