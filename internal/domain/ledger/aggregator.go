package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCashAccountCode is the chart-of-accounts code of the Kas account
const DefaultCashAccountCode = "1001"

// Aggregator turns posted journal lines into financial statements.
// It holds no state between calls; every report is computed from scratch
// with sequential queries against the injected reader.
type Aggregator struct {
	reader          LedgerReader
	cashAccountCode string
}

// AggregatorOption is a functional option for configuring Aggregator
type AggregatorOption func(*Aggregator)

// WithCashAccountCode sets the account whose movements make up the cash flow statement
func WithCashAccountCode(code string) AggregatorOption {
	return func(a *Aggregator) {
		if code != "" {
			a.cashAccountCode = code
		}
	}
}

// NewAggregator creates a new Aggregator
func NewAggregator(reader LedgerReader, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		reader:          reader,
		cashAccountCode: DefaultCashAccountCode,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CashAccountCode returns the designated cash account code
func (a *Aggregator) CashAccountCode() string {
	return a.cashAccountCode
}

// Generate dispatches the request to the matching report builder
func (a *Aggregator) Generate(ctx context.Context, req ReportRequest) (Report, error) {
	var (
		report Report
		err    error
	)
	switch req.Type {
	case ReportTypeTrialBalance:
		report, err = nilOnError(a.TrialBalance(ctx, req.Period))
	case ReportTypeBalanceSheet:
		report, err = nilOnError(a.BalanceSheet(ctx, req.Period.End))
	case ReportTypeIncomeStatement:
		report, err = nilOnError(a.IncomeStatement(ctx, req.Period))
	case ReportTypeCashFlow:
		report, err = nilOnError(a.CashFlow(ctx, req.Period))
	default:
		return nil, ErrUnsupportedReportType.WithMessage("Invalid report type: " + req.Type.String())
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// nilOnError keeps a typed nil pointer from leaking into the Report interface
func nilOnError[R Report](r R, err error) (Report, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// TrialBalance lists every active account with raw debit or credit activity in the period.
// An account whose debits and credits net to zero is still listed.
func (a *Aggregator) TrialBalance(ctx context.Context, period Period) (*TrialBalance, error) {
	accounts, err := a.activeAccounts(ctx, ReportTypeTrialBalance, nil)
	if err != nil {
		return nil, err
	}

	from := period.Start
	report := &TrialBalance{
		Period:      period,
		Accounts:    []AccountActivity{},
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, acct := range accounts {
		debit, credit, err := a.sumAccount(ctx, ReportTypeTrialBalance, LineFilter{
			AccountCode: acct.Code,
			From:        &from,
			To:          period.End,
		})
		if err != nil {
			return nil, err
		}
		balance := Balance(acct.Type, debit, credit)
		if debit.IsZero() && credit.IsZero() && balance.IsZero() {
			continue
		}
		report.Accounts = append(report.Accounts, AccountActivity{
			AccountCode: acct.Code,
			AccountName: acct.Name,
			AccountType: acct.Type,
			Debit:       debit,
			Credit:      credit,
			Balance:     balance,
		})
		report.TotalDebit = report.TotalDebit.Add(debit)
		report.TotalCredit = report.TotalCredit.Add(credit)
	}
	return report, nil
}

// BalanceSheet snapshots asset, liability and equity balances as of the given date.
// Every posted line up to and including asOf counts; there is no lower bound.
func (a *Aggregator) BalanceSheet(ctx context.Context, asOf time.Time) (*BalanceSheet, error) {
	asOf = truncateDate(asOf)
	accounts, err := a.activeAccounts(ctx, ReportTypeBalanceSheet, AccountType.IsBalanceSheet)
	if err != nil {
		return nil, err
	}

	report := &BalanceSheet{
		AsOf:        asOf,
		Assets:      []AccountBalance{},
		Liabilities: []AccountBalance{},
		Equity:      []AccountBalance{},
	}
	for _, acct := range accounts {
		row, ok, err := a.balanceRow(ctx, ReportTypeBalanceSheet, acct, LineFilter{
			AccountCode: acct.Code,
			To:          asOf,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch acct.Type {
		case AccountTypeAsset:
			report.Assets = append(report.Assets, row)
			report.TotalAssets = report.TotalAssets.Add(row.Balance)
		case AccountTypeLiability:
			report.Liabilities = append(report.Liabilities, row)
			report.TotalLiabilities = report.TotalLiabilities.Add(row.Balance)
		case AccountTypeEquity:
			report.Equity = append(report.Equity, row)
			report.TotalEquity = report.TotalEquity.Add(row.Balance)
		}
	}
	report.TotalLiabilitiesEquity = report.TotalLiabilities.Add(report.TotalEquity)
	return report, nil
}

// IncomeStatement reports revenue and expense balances over the period
func (a *Aggregator) IncomeStatement(ctx context.Context, period Period) (*IncomeStatement, error) {
	accounts, err := a.activeAccounts(ctx, ReportTypeIncomeStatement, AccountType.IsIncomeStatement)
	if err != nil {
		return nil, err
	}

	from := period.Start
	report := &IncomeStatement{
		Period:   period,
		Revenues: []AccountBalance{},
		Expenses: []AccountBalance{},
	}
	for _, acct := range accounts {
		row, ok, err := a.balanceRow(ctx, ReportTypeIncomeStatement, acct, LineFilter{
			AccountCode: acct.Code,
			From:        &from,
			To:          period.End,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch acct.Type {
		case AccountTypeRevenue:
			report.Revenues = append(report.Revenues, row)
			report.TotalRevenues = report.TotalRevenues.Add(row.Balance)
		case AccountTypeExpense:
			report.Expenses = append(report.Expenses, row)
			report.TotalExpenses = report.TotalExpenses.Add(row.Balance)
		}
	}
	report.NetIncome = report.TotalRevenues.Sub(report.TotalExpenses)
	return report, nil
}

// CashFlow buckets movements of the cash account into operating and financing activities.
// Investing-tagged entries are reported with financing.
func (a *Aggregator) CashFlow(ctx context.Context, period Period) (*CashFlowStatement, error) {
	from := period.Start
	filter := LineFilter{
		AccountCode: a.cashAccountCode,
		From:        &from,
		To:          period.End,
	}
	lines, err := a.reader.ListPostedLines(ctx, filter)
	if err != nil {
		return nil, newAggregationError(ReportTypeCashFlow, a.cashAccountCode, err)
	}

	eligible := make([]JournalLine, 0, len(lines))
	for _, l := range lines {
		if filter.Matches(l) {
			eligible = append(eligible, l)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		di, dj := truncateDate(eligible[i].EntryDate), truncateDate(eligible[j].EntryDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return eligible[i].EntryNumber < eligible[j].EntryNumber
	})

	report := &CashFlowStatement{
		Period:              period,
		CashAccountCode:     a.cashAccountCode,
		OperatingActivities: []CashFlowItem{},
		FinancingActivities: []CashFlowItem{},
	}
	for _, l := range eligible {
		class := ClassifyCashActivity(l)
		item := CashFlowItem{
			Description:    cashItemDescription(l),
			Amount:         l.NetDebit(),
			Date:           truncateDate(l.EntryDate),
			Classification: class,
		}
		if class == ActivityOperating {
			report.OperatingActivities = append(report.OperatingActivities, item)
			report.NetOperatingCashFlow = report.NetOperatingCashFlow.Add(item.Amount)
			continue
		}
		report.FinancingActivities = append(report.FinancingActivities, item)
		report.NetFinancingCashFlow = report.NetFinancingCashFlow.Add(item.Amount)
	}
	report.NetCashFlow = report.NetOperatingCashFlow.Add(report.NetFinancingCashFlow)
	return report, nil
}

// activeAccounts lists active accounts whose type is in scope, sorted by code.
// A nil scope takes every type.
func (a *Aggregator) activeAccounts(ctx context.Context, reportType ReportType, scope func(AccountType) bool) ([]Account, error) {
	var types []AccountType
	if scope != nil {
		for _, t := range AllAccountTypes {
			if scope(t) {
				types = append(types, t)
			}
		}
	}

	accounts, err := a.reader.ListActiveAccounts(ctx, types...)
	if err != nil {
		return nil, newAggregationError(reportType, "", fmt.Errorf("list accounts: %w", err))
	}

	selected := make([]Account, 0, len(accounts))
	for _, acct := range accounts {
		if !acct.Active {
			continue
		}
		if scope != nil && !scope(acct.Type) {
			continue
		}
		selected = append(selected, acct)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Code < selected[j].Code
	})
	return selected, nil
}

// sumAccount totals debits and credits of the posted lines matching the filter
func (a *Aggregator) sumAccount(ctx context.Context, reportType ReportType, filter LineFilter) (decimal.Decimal, decimal.Decimal, error) {
	lines, err := a.reader.ListPostedLines(ctx, filter)
	if err != nil {
		return decimal.Zero, decimal.Zero, newAggregationError(reportType, filter.AccountCode, err)
	}

	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if !filter.Matches(l) {
			continue
		}
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit, nil
}

// balanceRow computes the signed balance of one account; ok is false for a zero balance
func (a *Aggregator) balanceRow(ctx context.Context, reportType ReportType, acct Account, filter LineFilter) (AccountBalance, bool, error) {
	debit, credit, err := a.sumAccount(ctx, reportType, filter)
	if err != nil {
		return AccountBalance{}, false, err
	}
	balance := Balance(acct.Type, debit, credit)
	if balance.IsZero() {
		return AccountBalance{}, false, nil
	}
	return AccountBalance{
		AccountCode: acct.Code,
		AccountName: acct.Name,
		Balance:     balance,
	}, true, nil
}

func cashItemDescription(l JournalLine) string {
	switch {
	case l.Description != "":
		return l.Description
	case l.ReferenceType != "":
		return l.ReferenceType
	default:
		return l.EntryNumber
	}
}
