// Package testutil provides common test utilities for the koperasi backend.
// It contains an in-memory ledger store, a sqlmock-backed gorm database and
// helpers for exercising gin handlers.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/koperasi/backend/internal/domain/ledger"
)

// MemoryLedger is an in-memory ledger.VersionedLedgerReader.
// It filters lines the way a well-behaved store does and can be told to fail.
type MemoryLedger struct {
	mu          sync.Mutex
	accounts    []ledger.Account
	lines       []ledger.JournalLine
	accountsErr error
	lineErrs    map[string]error
	versionErr  error
	lineQueries int
	updatedAt   time.Time
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		lineErrs:  make(map[string]error),
		updatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddAccount adds an active account to the chart
func (m *MemoryLedger) AddAccount(code, name string, accountType ledger.AccountType) *MemoryLedger {
	return m.AddAccounts(ledger.Account{Code: code, Name: name, Type: accountType, Active: true})
}

// AddAccounts adds accounts as given, inactive ones included
func (m *MemoryLedger) AddAccounts(accounts ...ledger.Account) *MemoryLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, accounts...)
	return m
}

// Post appends journal lines and bumps the ledger version
func (m *MemoryLedger) Post(lines ...ledger.JournalLine) *MemoryLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, lines...)
	m.updatedAt = m.updatedAt.Add(time.Second)
	return m
}

// FailAccounts makes ListActiveAccounts return err
func (m *MemoryLedger) FailAccounts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountsErr = err
}

// FailLines makes ListPostedLines return err for the account code
func (m *MemoryLedger) FailLines(accountCode string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lineErrs[accountCode] = err
}

// FailVersion makes LedgerVersion return err
func (m *MemoryLedger) FailVersion(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionErr = err
}

// LineQueries returns how many times ListPostedLines was called
func (m *MemoryLedger) LineQueries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lineQueries
}

// ListActiveAccounts implements ledger.LedgerReader
func (m *MemoryLedger) ListActiveAccounts(ctx context.Context, types ...ledger.AccountType) ([]ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}

	result := make([]ledger.Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		if !acct.Active {
			continue
		}
		if len(types) > 0 && !containsType(types, acct.Type) {
			continue
		}
		result = append(result, acct)
	}
	return result, nil
}

// ListPostedLines implements ledger.LedgerReader
func (m *MemoryLedger) ListPostedLines(ctx context.Context, filter ledger.LineFilter) ([]ledger.JournalLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lineQueries++
	if err := m.lineErrs[filter.AccountCode]; err != nil {
		return nil, err
	}

	result := make([]ledger.JournalLine, 0)
	for _, l := range m.lines {
		if filter.Matches(l) {
			result = append(result, l)
		}
	}
	return result, nil
}

// LedgerVersion implements ledger.VersionedLedgerReader
func (m *MemoryLedger) LedgerVersion(ctx context.Context) (ledger.LedgerVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versionErr != nil {
		return ledger.LedgerVersion{}, m.versionErr
	}
	v := ledger.LedgerVersion{
		EntryCount:    int64(len(m.lines)),
		LineCount:     int64(len(m.lines)),
		LastUpdatedAt: m.updatedAt,
	}
	for _, l := range m.lines {
		v.DebitTotal = v.DebitTotal.Add(l.Debit)
		v.CreditTotal = v.CreditTotal.Add(l.Credit)
	}
	return v, nil
}

func containsType(types []ledger.AccountType, t ledger.AccountType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// PostedLine builds a posted journal line dated YYYY-MM-DD.
// It panics on a malformed date; use it only with literals.
func PostedLine(accountCode, date string, debit, credit int64) ledger.JournalLine {
	d, err := time.Parse(ledger.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return ledger.JournalLine{
		EntryID:     uuid.New(),
		EntryNumber: "JE-" + date,
		AccountCode: accountCode,
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.NewFromInt(credit),
		EntryDate:   d,
		Status:      ledger.EntryStatusPosted,
	}
}

// Date parses a YYYY-MM-DD literal, panicking on error
func Date(s string) time.Time {
	d, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// KoperasiChart returns a MemoryLedger seeded with a small koperasi chart of accounts
func KoperasiChart() *MemoryLedger {
	return NewMemoryLedger().
		AddAccount("1001", "Kas", ledger.AccountTypeAsset).
		AddAccount("1101", "Piutang Pinjaman Anggota", ledger.AccountTypeAsset).
		AddAccount("2001", "Simpanan Pokok", ledger.AccountTypeLiability).
		AddAccount("2003", "Simpanan Sukarela", ledger.AccountTypeLiability).
		AddAccount("3001", "Modal", ledger.AccountTypeEquity).
		AddAccount("4001", "Pendapatan Jasa Pinjaman", ledger.AccountTypeRevenue).
		AddAccount("5001", "Beban Operasional", ledger.AccountTypeExpense)
}
