package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.VersionedLedgerReader using GORM.
// It only reads; journal entries are written by the posting side of the system.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// ListActiveAccounts returns active accounts of the given types ordered by code
func (r *GormLedgerRepository) ListActiveAccounts(ctx context.Context, types ...ledger.AccountType) ([]ledger.Account, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("is_active = ?", true)
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		query = query.Where("account_type IN ?", names)
	}

	var rows []models.AccountModel
	if err := query.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}

	accounts := make([]ledger.Account, len(rows))
	for i := range rows {
		accounts[i] = rows[i].ToDomain()
	}
	return accounts, nil
}

// ListPostedLines returns the posted lines of one account within the filter's date bounds,
// ordered by entry date and entry number
func (r *GormLedgerRepository) ListPostedLines(ctx context.Context, filter ledger.LineFilter) ([]ledger.JournalLine, error) {
	query := r.db.WithContext(ctx).
		Table("journal_entry_lines AS l").
		Select(`e.id AS entry_id, e.entry_number, e.entry_date, e.status, e.reference_type,
			e.activity_classification, e.description AS entry_description,
			l.account_code, l.debit_amount, l.credit_amount, l.description AS line_description`).
		Joins("JOIN journal_entries e ON e.id = l.journal_entry_id").
		Where("l.account_code = ?", filter.AccountCode).
		Where("e.status = ?", string(ledger.EntryStatusPosted)).
		Where("e.entry_date < ?", dayAfter(filter.To))
	if filter.From != nil {
		query = query.Where("e.entry_date >= ?", startOfDay(*filter.From))
	}

	var rows []models.PostedLineRow
	if err := query.Order("e.entry_date ASC, e.entry_number ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query posted lines of account %s: %w", filter.AccountCode, err)
	}

	lines := make([]ledger.JournalLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

// LedgerVersion summarises entries, lines and accounts: entry and line counts,
// line debit and credit totals, and the latest change to any of the three tables
func (r *GormLedgerRepository) LedgerVersion(ctx context.Context) (ledger.LedgerVersion, error) {
	db := r.db.WithContext(ctx)

	var version ledger.LedgerVersion
	if err := db.Model(&models.JournalEntryModel{}).Count(&version.EntryCount).Error; err != nil {
		return ledger.LedgerVersion{}, fmt.Errorf("count journal entries: %w", err)
	}

	var lines struct {
		LineCount   int64
		DebitTotal  decimal.Decimal
		CreditTotal decimal.Decimal
	}
	if err := db.Model(&models.JournalEntryLineModel{}).
		Select("COUNT(*) AS line_count, " +
			"COALESCE(SUM(debit_amount), 0) AS debit_total, " +
			"COALESCE(SUM(credit_amount), 0) AS credit_total").
		Scan(&lines).Error; err != nil {
		return ledger.LedgerVersion{}, fmt.Errorf("total journal lines: %w", err)
	}
	version.LineCount = lines.LineCount
	version.DebitTotal = lines.DebitTotal
	version.CreditTotal = lines.CreditTotal

	for _, table := range []struct {
		name  string
		model any
	}{
		{"journal entry", &models.JournalEntryModel{}},
		{"journal line", &models.JournalEntryLineModel{}},
		{"account", &models.AccountModel{}},
	} {
		latest, err := latestUpdate(db, table.model)
		if err != nil {
			return ledger.LedgerVersion{}, fmt.Errorf("latest %s: %w", table.name, err)
		}
		if latest.After(version.LastUpdatedAt) {
			version.LastUpdatedAt = latest
		}
	}
	return version, nil
}

// latestUpdate reads the newest updated_at of model's table, zero when empty.
// MAX would come back untyped from sqlite.
func latestUpdate(db *gorm.DB, model any) (time.Time, error) {
	var stamps []time.Time
	if err := db.Model(model).Order("updated_at DESC").Limit(1).Pluck("updated_at", &stamps).Error; err != nil {
		return time.Time{}, err
	}
	if len(stamps) == 0 {
		return time.Time{}, nil
	}
	return stamps[0].UTC(), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayAfter(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}
