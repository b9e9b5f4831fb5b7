package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	reportapp "github.com/koperasi/backend/internal/application/report"
)

// reportLocale controls digit grouping in table output (1.250.000,00)
var reportLocale = language.Indonesian

// tableWriter prints report sections with locale-formatted amounts
type tableWriter struct {
	tw *tabwriter.Writer
	p  *message.Printer
}

func newTableWriter(w io.Writer) *tableWriter {
	return &tableWriter{
		tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		p:  message.NewPrinter(reportLocale),
	}
}

func (t *tableWriter) amount(v float64) string {
	return t.p.Sprintf("%.2f", v)
}

func (t *tableWriter) row(cols ...string) {
	fmt.Fprintln(t.tw, strings.Join(cols, "\t"))
}

func (t *tableWriter) heading(reportType, period string) {
	title := cases.Title(reportLocale).String(strings.ReplaceAll(reportType, "_", " "))
	fmt.Fprintf(t.tw, "%s\n%s\n\n", title, period)
}

func (t *tableWriter) balances(section string, rows []reportapp.AccountBalanceDTO, total float64) {
	t.row(section, "", "")
	for _, r := range rows {
		t.row("  "+r.AccountCode, r.AccountName, t.amount(r.Balance))
	}
	t.row("", "Total "+section, t.amount(total))
	t.row("", "", "")
}

func (t *tableWriter) cashItems(section string, items []reportapp.CashFlowItemDTO, net float64) {
	t.row(section, "", "")
	for _, it := range items {
		t.row("  "+it.Date, it.Description, t.amount(it.Amount))
	}
	t.row("", "Net "+section, t.amount(net))
	t.row("", "", "")
}

// renderTable writes the envelope's report as an aligned plain-text table
func renderTable(w io.Writer, envelope *reportapp.ReportEnvelope) error {
	t := newTableWriter(w)

	switch r := envelope.Data.(type) {
	case *reportapp.TrialBalanceDTO:
		t.heading(r.ReportType, periodLabel(r.Period))
		t.row("Code", "Account", "Type", "Debit", "Credit", "Balance")
		for _, a := range r.Accounts {
			t.row(a.AccountCode, a.AccountName, a.AccountType, t.amount(a.Debit), t.amount(a.Credit), t.amount(a.Balance))
		}
		t.row("", "Total", "", t.amount(r.TotalDebit), t.amount(r.TotalCredit), "")

	case *reportapp.BalanceSheetDTO:
		t.heading(r.ReportType, "As of "+r.AsOfDate)
		t.balances("Assets", r.Assets, r.TotalAssets)
		t.balances("Liabilities", r.Liabilities, r.TotalLiabilities)
		t.balances("Equity", r.Equity, r.TotalEquity)
		t.row("", "Total Liabilities and Equity", t.amount(r.TotalLiabilitiesEquity))

	case *reportapp.IncomeStatementDTO:
		t.heading(r.ReportType, periodLabel(r.Period))
		t.balances("Revenues", r.Revenues, r.TotalRevenues)
		t.balances("Expenses", r.Expenses, r.TotalExpenses)
		t.row("", "Net Income", t.amount(r.NetIncome))

	case *reportapp.CashFlowDTO:
		t.heading(r.ReportType, periodLabel(r.Period))
		t.cashItems("Operating Activities", r.OperatingActivities, r.NetOperatingCashFlow)
		t.cashItems("Financing Activities", r.FinancingActivities, r.NetFinancingCashFlow)
		t.row("", "Net Cash Flow", t.amount(r.NetCashFlow))

	default:
		return fmt.Errorf("cannot render %T as a table", envelope.Data)
	}

	return t.tw.Flush()
}

func periodLabel(p reportapp.PeriodDTO) string {
	return p.StartDate + " to " + p.EndDate
}
