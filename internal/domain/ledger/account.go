package ledger

import "github.com/shopspring/decimal"

// AccountType classifies an account in the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AllAccountTypes lists every account type in statement order
var AllAccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// IsValid checks if the account type is one of the five known classes
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// NormalBalance returns the side on which the account type normally carries its balance
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// IsBalanceSheet returns true for types reported on the balance sheet
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// IsIncomeStatement returns true for types reported on the income statement
func (t AccountType) IsIncomeStatement() bool {
	return t == AccountTypeRevenue || t == AccountTypeExpense
}

// NormalBalance is the debit/credit side an account type increases on
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// Balance applies the normal-balance sign convention to raw debit and credit totals.
// Debit-normal accounts (asset, expense) report debit - credit, all others credit - debit.
// The account's current type is used; historical reclassifications are not tracked.
func Balance(t AccountType, totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	if t.NormalBalance() == NormalBalanceDebit {
		return totalDebit.Sub(totalCredit)
	}
	return totalCredit.Sub(totalDebit)
}

// Account is an entry in the chart of accounts
type Account struct {
	Code   string
	Name   string
	Type   AccountType
	Active bool
}
