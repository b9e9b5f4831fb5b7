package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	reportapp "github.com/koperasi/backend/internal/application/report"
	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/persistence"
)

// Output formats
const (
	formatJSON  = "json"
	formatTable = "table"
)

type generateOptions struct {
	reportType string
	startDate  string
	endDate    string
	format     string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate a financial report",
		Long: `Generate one of trial_balance, balance_sheet, income_statement or cash_flow.

Dates use YYYY-MM-DD. The start date defaults to 1970-01-01 and the end
date to today. json prints the same envelope the HTTP endpoint returns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatJSON && opts.format != formatTable {
				return fmt.Errorf("unknown format %q: use %s or %s", opts.format, formatJSON, formatTable)
			}

			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.Close()

			repo := persistence.NewGormLedgerRepository(s.db.DB)
			aggregator := ledger.NewAggregator(repo, ledger.WithCashAccountCode(s.cfg.Report.CashAccountCode))
			service := reportapp.NewFinancialReportService(aggregator, reportapp.WithLogger(s.log))

			envelope, err := service.Generate(cmd.Context(), reportapp.GenerateReportQuery{
				Type:      opts.reportType,
				StartDate: opts.startDate,
				EndDate:   opts.endDate,
			})
			if err != nil {
				return err
			}

			return writeEnvelope(cmd.OutOrStdout(), envelope, opts.format)
		},
	}

	c.Flags().StringVarP(&opts.reportType, "type", "t", "", "report type (required)")
	c.Flags().StringVar(&opts.startDate, "start", "", "period start date, YYYY-MM-DD")
	c.Flags().StringVar(&opts.endDate, "end", "", "period end date, YYYY-MM-DD")
	c.Flags().StringVarP(&opts.format, "format", "f", formatJSON, "output format (json, table)")
	_ = c.MarkFlagRequired("type")

	return c
}

func writeEnvelope(w io.Writer, envelope *reportapp.ReportEnvelope, format string) error {
	if format == formatTable {
		return renderTable(w, envelope)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope)
}
