package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "draft"
	EntryStatusPosted EntryStatus = "posted"
	EntryStatusVoided EntryStatus = "voided"
)

// IsValid checks if the status is a known EntryStatus
func (s EntryStatus) IsValid() bool {
	return s == EntryStatusDraft || s == EntryStatusPosted || s == EntryStatusVoided
}

// IsPosted returns true if lines of the entry take part in aggregation
func (s EntryStatus) IsPosted() bool {
	return s == EntryStatusPosted
}

// ActivityClassification tags a journal entry with the cash-flow activity it belongs to.
// It is decided once at posting time. Entries posted before the tag existed carry
// ActivityUnclassified and fall back to reference-type inference.
type ActivityClassification string

const (
	ActivityUnclassified ActivityClassification = ""
	ActivityOperating    ActivityClassification = "operating"
	ActivityInvesting    ActivityClassification = "investing"
	ActivityFinancing    ActivityClassification = "financing"
)

// IsValid checks if the classification is known (unclassified included)
func (c ActivityClassification) IsValid() bool {
	switch c {
	case ActivityUnclassified, ActivityOperating, ActivityInvesting, ActivityFinancing:
		return true
	}
	return false
}

// operatingReferenceTags are the reference-type fragments that mark member-facing
// operating activity in legacy, unclassified entries.
var operatingReferenceTags = []string{"savings", "service_fee"}

// JournalLine is one debit or credit leg of a journal entry, joined with the
// attributes of its parent entry that the reports need.
type JournalLine struct {
	EntryID        uuid.UUID
	EntryNumber    string
	AccountCode    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	EntryDate      time.Time
	Status         EntryStatus
	ReferenceType  string
	Classification ActivityClassification
	Description    string
}

// NetDebit returns debit minus credit for the line
func (l JournalLine) NetDebit() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// ClassifyCashActivity returns the cash-flow bucket of a line.
// The explicit entry classification wins; untagged entries are classified by
// substring match on their reference type (savings and service fees are operating,
// everything else financing).
func ClassifyCashActivity(l JournalLine) ActivityClassification {
	if l.Classification != ActivityUnclassified {
		return l.Classification
	}
	ref := strings.ToLower(l.ReferenceType)
	for _, tag := range operatingReferenceTags {
		if strings.Contains(ref, tag) {
			return ActivityOperating
		}
	}
	return ActivityFinancing
}

// LineFilter selects posted journal lines of one account.
// A nil From means no lower bound (point-in-time snapshot up to To).
type LineFilter struct {
	AccountCode string
	From        *time.Time
	To          time.Time
}

// Matches reports whether a line is posted, belongs to the filtered account and
// falls inside the date bounds. Bounds are compared on calendar dates.
func (f LineFilter) Matches(l JournalLine) bool {
	if !l.Status.IsPosted() || l.AccountCode != f.AccountCode {
		return false
	}
	d := truncateDate(l.EntryDate)
	if f.From != nil && d.Before(truncateDate(*f.From)) {
		return false
	}
	return !d.After(truncateDate(f.To))
}
