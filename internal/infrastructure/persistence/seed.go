package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultChart is the chart of accounts a new koperasi starts with
var DefaultChart = []ledger.Account{
	{Code: "1001", Name: "Kas", Type: ledger.AccountTypeAsset, Active: true},
	{Code: "1101", Name: "Piutang Pinjaman Anggota", Type: ledger.AccountTypeAsset, Active: true},
	{Code: "2001", Name: "Simpanan Pokok", Type: ledger.AccountTypeLiability, Active: true},
	{Code: "2002", Name: "Simpanan Wajib", Type: ledger.AccountTypeLiability, Active: true},
	{Code: "2003", Name: "Simpanan Sukarela", Type: ledger.AccountTypeLiability, Active: true},
	{Code: "3001", Name: "Modal", Type: ledger.AccountTypeEquity, Active: true},
	{Code: "3002", Name: "SHU Ditahan", Type: ledger.AccountTypeEquity, Active: true},
	{Code: "4001", Name: "Pendapatan Jasa Pinjaman", Type: ledger.AccountTypeRevenue, Active: true},
	{Code: "4002", Name: "Pendapatan Administrasi", Type: ledger.AccountTypeRevenue, Active: true},
	{Code: "5001", Name: "Beban Operasional", Type: ledger.AccountTypeExpense, Active: true},
	{Code: "5002", Name: "Beban Gaji", Type: ledger.AccountTypeExpense, Active: true},
}

// AutoMigrate creates the ledger tables. Postgres deployments use the SQL
// migrations instead; this is for sqlite demo databases and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate ledger tables: %w", err)
	}
	return nil
}

// SeedChart inserts the default chart of accounts, leaving existing codes untouched.
// It returns the number of accounts inserted.
func SeedChart(ctx context.Context, db *gorm.DB) (int64, error) {
	rows := make([]*models.AccountModel, len(DefaultChart))
	for i, a := range DefaultChart {
		rows[i] = models.AccountModelFromDomain(a)
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("seed chart of accounts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SeedSampleJournal inserts a month of sample koperasi activity. Entries whose
// number already exists are skipped. It returns the number of entries inserted.
func SeedSampleJournal(ctx context.Context, db *gorm.DB) (int, error) {
	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range SampleJournal() {
			var existing int64
			if err := tx.Model(&models.JournalEntryModel{}).
				Where("entry_number = ?", entry.EntryNumber).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("insert %s: %w", entry.EntryNumber, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed sample journal: %w", err)
	}
	return inserted, nil
}

// SampleJournal returns January 2024 activity of a small koperasi: member savings,
// initial capital, a member loan, its service fee, an operating expense and one
// draft entry that reports must ignore.
func SampleJournal() []models.JournalEntryModel {
	return []models.JournalEntryModel{
		sampleEntry("JU-2024-0001", "2024-01-05", ledger.EntryStatusPosted, "savings_deposit", ledger.ActivityOperating,
			"Setoran simpanan pokok anggota",
			sampleLine("1001", 1_000_000, 0), sampleLine("2001", 0, 1_000_000)),
		sampleEntry("JU-2024-0002", "2024-01-10", ledger.EntryStatusPosted, "capital_injection", ledger.ActivityFinancing,
			"Modal awal koperasi",
			sampleLine("1001", 5_000_000, 0), sampleLine("3001", 0, 5_000_000)),
		sampleEntry("JU-2024-0003", "2024-01-15", ledger.EntryStatusPosted, "loan_disbursement", ledger.ActivityFinancing,
			"Pencairan pinjaman anggota",
			sampleLine("1101", 2_000_000, 0), sampleLine("1001", 0, 2_000_000)),
		sampleEntry("JU-2024-0004", "2024-01-20", ledger.EntryStatusDraft, "operational_expense", ledger.ActivityOperating,
			"Gaji pengurus (belum diposting)",
			sampleLine("5002", 300_000, 0), sampleLine("1001", 0, 300_000)),
		sampleEntry("JU-2024-0005", "2024-01-31", ledger.EntryStatusPosted, "service_fee", ledger.ActivityOperating,
			"Jasa pinjaman bulan Januari",
			sampleLine("1001", 40_000, 0), sampleLine("4001", 0, 40_000)),
		sampleEntry("JU-2024-0006", "2024-01-31", ledger.EntryStatusPosted, "operational_expense", ledger.ActivityOperating,
			"Biaya operasional kantor",
			sampleLine("5001", 150_000, 0), sampleLine("1001", 0, 150_000)),
	}
}

func sampleEntry(number, date string, status ledger.EntryStatus, ref string, class ledger.ActivityClassification,
	description string, lines ...models.JournalEntryLineModel) models.JournalEntryModel {
	d, err := time.Parse(ledger.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return models.JournalEntryModel{
		EntryNumber:            number,
		EntryDate:              d,
		Status:                 string(status),
		ReferenceType:          ref,
		ActivityClassification: string(class),
		Description:            description,
		Lines:                  lines,
	}
}

func sampleLine(accountCode string, debit, credit int64) models.JournalEntryLineModel {
	return models.JournalEntryLineModel{
		AccountCode:  accountCode,
		DebitAmount:  decimal.NewFromInt(debit),
		CreditAmount: decimal.NewFromInt(credit),
	}
}
