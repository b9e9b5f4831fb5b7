package report

import (
	"fmt"
	"time"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ReportEnvelope wraps every successful report response
type ReportEnvelope struct {
	Success     bool      `json:"success"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        any       `json:"data"`
}

// PeriodDTO is an inclusive date range
type PeriodDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// TrialBalanceRowDTO is a trial balance account row
type TrialBalanceRowDTO struct {
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	AccountType string  `json:"account_type"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Balance     float64 `json:"balance"`
}

// TrialBalanceDTO is the trial_balance report body
type TrialBalanceDTO struct {
	ReportType  string               `json:"report_type"`
	Period      PeriodDTO            `json:"period"`
	Accounts    []TrialBalanceRowDTO `json:"accounts"`
	TotalDebit  float64              `json:"total_debit"`
	TotalCredit float64              `json:"total_credit"`
}

// AccountBalanceDTO is a balance sheet or income statement row
type AccountBalanceDTO struct {
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	Balance     float64 `json:"balance"`
}

// BalanceSheetDTO is the balance_sheet report body
type BalanceSheetDTO struct {
	ReportType             string              `json:"report_type"`
	AsOfDate               string              `json:"as_of_date"`
	Assets                 []AccountBalanceDTO `json:"assets"`
	Liabilities            []AccountBalanceDTO `json:"liabilities"`
	Equity                 []AccountBalanceDTO `json:"equity"`
	TotalAssets            float64             `json:"total_assets"`
	TotalLiabilities       float64             `json:"total_liabilities"`
	TotalEquity            float64             `json:"total_equity"`
	TotalLiabilitiesEquity float64             `json:"total_liabilities_equity"`
}

// IncomeStatementDTO is the income_statement report body
type IncomeStatementDTO struct {
	ReportType    string              `json:"report_type"`
	Period        PeriodDTO           `json:"period"`
	Revenues      []AccountBalanceDTO `json:"revenues"`
	Expenses      []AccountBalanceDTO `json:"expenses"`
	TotalRevenues float64             `json:"total_revenues"`
	TotalExpenses float64             `json:"total_expenses"`
	NetIncome     float64             `json:"net_income"`
}

// CashFlowItemDTO is one movement of the cash account
type CashFlowItemDTO struct {
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date"`
	Classification string  `json:"classification,omitempty"`
}

// CashFlowDTO is the cash_flow report body
type CashFlowDTO struct {
	ReportType           string            `json:"report_type"`
	Period               PeriodDTO         `json:"period"`
	OperatingActivities  []CashFlowItemDTO `json:"operating_activities"`
	FinancingActivities  []CashFlowItemDTO `json:"financing_activities"`
	NetOperatingCashFlow float64           `json:"net_operating_cash_flow"`
	NetFinancingCashFlow float64           `json:"net_financing_cash_flow"`
	NetCashFlow          float64           `json:"net_cash_flow"`
}

// ToReportDTO converts a domain report into its JSON body.
// It panics on a report type it has no body for.
func ToReportDTO(r ledger.Report) any {
	switch rep := r.(type) {
	case *ledger.TrialBalance:
		return toTrialBalanceDTO(rep)
	case *ledger.BalanceSheet:
		return toBalanceSheetDTO(rep)
	case *ledger.IncomeStatement:
		return toIncomeStatementDTO(rep)
	case *ledger.CashFlowStatement:
		return toCashFlowDTO(rep)
	default:
		panic(fmt.Sprintf("report: no response body for %T", r))
	}
}

func toTrialBalanceDTO(tb *ledger.TrialBalance) *TrialBalanceDTO {
	rows := make([]TrialBalanceRowDTO, len(tb.Accounts))
	for i, a := range tb.Accounts {
		rows[i] = TrialBalanceRowDTO{
			AccountCode: a.AccountCode,
			AccountName: a.AccountName,
			AccountType: a.AccountType.String(),
			Debit:       toFloat64(a.Debit),
			Credit:      toFloat64(a.Credit),
			Balance:     toFloat64(a.Balance),
		}
	}
	return &TrialBalanceDTO{
		ReportType:  tb.ReportType().String(),
		Period:      toPeriodDTO(tb.Period),
		Accounts:    rows,
		TotalDebit:  toFloat64(tb.TotalDebit),
		TotalCredit: toFloat64(tb.TotalCredit),
	}
}

func toBalanceSheetDTO(bs *ledger.BalanceSheet) *BalanceSheetDTO {
	return &BalanceSheetDTO{
		ReportType:             bs.ReportType().String(),
		AsOfDate:               bs.AsOf.Format(ledger.DateLayout),
		Assets:                 toBalanceRows(bs.Assets),
		Liabilities:            toBalanceRows(bs.Liabilities),
		Equity:                 toBalanceRows(bs.Equity),
		TotalAssets:            toFloat64(bs.TotalAssets),
		TotalLiabilities:       toFloat64(bs.TotalLiabilities),
		TotalEquity:            toFloat64(bs.TotalEquity),
		TotalLiabilitiesEquity: toFloat64(bs.TotalLiabilitiesEquity),
	}
}

func toIncomeStatementDTO(is *ledger.IncomeStatement) *IncomeStatementDTO {
	return &IncomeStatementDTO{
		ReportType:    is.ReportType().String(),
		Period:        toPeriodDTO(is.Period),
		Revenues:      toBalanceRows(is.Revenues),
		Expenses:      toBalanceRows(is.Expenses),
		TotalRevenues: toFloat64(is.TotalRevenues),
		TotalExpenses: toFloat64(is.TotalExpenses),
		NetIncome:     toFloat64(is.NetIncome),
	}
}

func toCashFlowDTO(cf *ledger.CashFlowStatement) *CashFlowDTO {
	return &CashFlowDTO{
		ReportType:           cf.ReportType().String(),
		Period:               toPeriodDTO(cf.Period),
		OperatingActivities:  toCashFlowItems(cf.OperatingActivities),
		FinancingActivities:  toCashFlowItems(cf.FinancingActivities),
		NetOperatingCashFlow: toFloat64(cf.NetOperatingCashFlow),
		NetFinancingCashFlow: toFloat64(cf.NetFinancingCashFlow),
		NetCashFlow:          toFloat64(cf.NetCashFlow),
	}
}

func toPeriodDTO(p ledger.Period) PeriodDTO {
	return PeriodDTO{
		StartDate: p.Start.Format(ledger.DateLayout),
		EndDate:   p.End.Format(ledger.DateLayout),
	}
}

func toBalanceRows(rows []ledger.AccountBalance) []AccountBalanceDTO {
	out := make([]AccountBalanceDTO, len(rows))
	for i, r := range rows {
		out[i] = AccountBalanceDTO{
			AccountCode: r.AccountCode,
			AccountName: r.AccountName,
			Balance:     toFloat64(r.Balance),
		}
	}
	return out
}

func toCashFlowItems(items []ledger.CashFlowItem) []CashFlowItemDTO {
	out := make([]CashFlowItemDTO, len(items))
	for i, it := range items {
		out[i] = CashFlowItemDTO{
			Description:    it.Description,
			Amount:         toFloat64(it.Amount),
			Date:           it.Date.Format(ledger.DateLayout),
			Classification: string(it.Classification),
		}
	}
	return out
}

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
