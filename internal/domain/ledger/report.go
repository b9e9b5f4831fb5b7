package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used for report periods
const DateLayout = "2006-01-02"

// ReportType identifies one of the four financial statements
type ReportType string

const (
	ReportTypeTrialBalance    ReportType = "trial_balance"
	ReportTypeBalanceSheet    ReportType = "balance_sheet"
	ReportTypeIncomeStatement ReportType = "income_statement"
	ReportTypeCashFlow        ReportType = "cash_flow"
)

// AllReportTypes lists the supported report types
var AllReportTypes = []ReportType{
	ReportTypeTrialBalance,
	ReportTypeBalanceSheet,
	ReportTypeIncomeStatement,
	ReportTypeCashFlow,
}

// IsValid checks if the report type is supported
func (t ReportType) IsValid() bool {
	switch t {
	case ReportTypeTrialBalance, ReportTypeBalanceSheet, ReportTypeIncomeStatement, ReportTypeCashFlow:
		return true
	}
	return false
}

// String returns the string representation
func (t ReportType) String() string {
	return string(t)
}

// ParseReportType validates the raw report type parameter.
// An empty value is a missing parameter; any other unknown value is unsupported.
func ParseReportType(s string) (ReportType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingParameter
	}
	t := ReportType(s)
	if !t.IsValid() {
		return "", ErrUnsupportedReportType.WithMessage("Invalid report type: " + s)
	}
	return t, nil
}

// Period is an inclusive range of calendar dates
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a period from two dates, rejecting a start after the end
func NewPeriod(start, end time.Time) (Period, error) {
	start, end = truncateDate(start), truncateDate(end)
	if start.After(end) {
		return Period{}, ErrInvalidParameter.WithMessage("start_date must not be after end_date")
	}
	return Period{Start: start, End: end}, nil
}

// Contains reports whether the date falls inside the period
func (p Period) Contains(t time.Time) bool {
	d := truncateDate(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// truncateDate drops the clock part and normalises to UTC, keeping the calendar date
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ReportRequest is the input of a report computation
type ReportRequest struct {
	Type   ReportType
	Period Period
}

// Report is implemented by the four statement read models
type Report interface {
	ReportType() ReportType
}

// AccountActivity is a trial balance row
type AccountActivity struct {
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
}

// AccountBalance is a balance sheet or income statement row
type AccountBalance struct {
	AccountCode string
	AccountName string
	Balance     decimal.Decimal
}

// TrialBalance lists every active account with activity in the period
type TrialBalance struct {
	Period      Period
	Accounts    []AccountActivity
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// ReportType implements Report
func (*TrialBalance) ReportType() ReportType { return ReportTypeTrialBalance }

// IsBalanced returns true if total debits equal total credits
func (tb *TrialBalance) IsBalanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// BalanceSheet is a point-in-time snapshot of asset, liability and equity accounts
type BalanceSheet struct {
	AsOf                   time.Time
	Assets                 []AccountBalance
	Liabilities            []AccountBalance
	Equity                 []AccountBalance
	TotalAssets            decimal.Decimal
	TotalLiabilities       decimal.Decimal
	TotalEquity            decimal.Decimal
	TotalLiabilitiesEquity decimal.Decimal
}

// ReportType implements Report
func (*BalanceSheet) ReportType() ReportType { return ReportTypeBalanceSheet }

// IncomeStatement reports revenue and expense accounts over a period
type IncomeStatement struct {
	Period        Period
	Revenues      []AccountBalance
	Expenses      []AccountBalance
	TotalRevenues decimal.Decimal
	TotalExpenses decimal.Decimal
	NetIncome     decimal.Decimal
}

// ReportType implements Report
func (*IncomeStatement) ReportType() ReportType { return ReportTypeIncomeStatement }

// CashFlowItem is one movement of the designated cash account.
// Amount is positive for cash received and negative for cash paid out.
type CashFlowItem struct {
	Description    string
	Amount         decimal.Decimal
	Date           time.Time
	Classification ActivityClassification
}

// CashFlowStatement buckets cash account movements by activity
type CashFlowStatement struct {
	Period               Period
	CashAccountCode      string
	OperatingActivities  []CashFlowItem
	FinancingActivities  []CashFlowItem
	NetOperatingCashFlow decimal.Decimal
	NetFinancingCashFlow decimal.Decimal
	NetCashFlow          decimal.Decimal
}

// ReportType implements Report
func (*CashFlowStatement) ReportType() ReportType { return ReportTypeCashFlow }
