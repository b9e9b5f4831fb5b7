package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// AccountModel is a row of the chart of accounts
type AccountModel struct {
	Code        string    `gorm:"type:varchar(20);primaryKey"`
	Name        string    `gorm:"type:varchar(200);not null"`
	AccountType string    `gorm:"type:varchar(20);not null;index"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the row to a domain Account
func (m *AccountModel) ToDomain() ledger.Account {
	return ledger.Account{
		Code:   m.Code,
		Name:   m.Name,
		Type:   ledger.AccountType(m.AccountType),
		Active: m.IsActive,
	}
}

// AccountModelFromDomain creates a row from a domain Account
func AccountModelFromDomain(a ledger.Account) *AccountModel {
	return &AccountModel{
		Code:        a.Code,
		Name:        a.Name,
		AccountType: string(a.Type),
		IsActive:    a.Active,
	}
}

// JournalEntryModel is the header of a journal entry
type JournalEntryModel struct {
	BaseModel
	EntryNumber            string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	EntryDate              time.Time               `gorm:"type:date;not null;index"`
	Status                 string                  `gorm:"type:varchar(20);not null;index"`
	ReferenceType          string                  `gorm:"type:varchar(50);not null;default:''"`
	ActivityClassification string                  `gorm:"type:varchar(20);not null;default:''"`
	Description            string                  `gorm:"type:text;not null;default:''"`
	Lines                  []JournalEntryLineModel `gorm:"foreignKey:JournalEntryID"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalEntryLineModel is one debit or credit leg of a journal entry
type JournalEntryLineModel struct {
	BaseModel
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountCode    string          `gorm:"type:varchar(20);not null;index"`
	DebitAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreditAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Description    string          `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (JournalEntryLineModel) TableName() string {
	return "journal_entry_lines"
}

// PostedLineRow is the projection of a line joined with its entry header
type PostedLineRow struct {
	EntryID                uuid.UUID
	EntryNumber            string
	EntryDate              time.Time
	Status                 string
	ReferenceType          string
	ActivityClassification string
	EntryDescription       string
	AccountCode            string
	DebitAmount            decimal.Decimal
	CreditAmount           decimal.Decimal
	LineDescription        string
}

// ToDomain converts the row to a domain JournalLine. The line's own description
// wins over the entry description.
func (r *PostedLineRow) ToDomain() ledger.JournalLine {
	description := r.LineDescription
	if description == "" {
		description = r.EntryDescription
	}
	return ledger.JournalLine{
		EntryID:        r.EntryID,
		EntryNumber:    r.EntryNumber,
		AccountCode:    r.AccountCode,
		Debit:          r.DebitAmount,
		Credit:         r.CreditAmount,
		EntryDate:      r.EntryDate,
		Status:         ledger.EntryStatus(r.Status),
		ReferenceType:  r.ReferenceType,
		Classification: ledger.ActivityClassification(r.ActivityClassification),
		Description:    description,
	}
}

// AllModels lists the models migrated for sqlite demo databases
func AllModels() []any {
	return []any{
		&AccountModel{},
		&JournalEntryModel{},
		&JournalEntryLineModel{},
	}
}
