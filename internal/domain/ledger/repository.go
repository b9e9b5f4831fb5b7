package ledger

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerReader is the read-only view of the chart of accounts and posted journal lines
type LedgerReader interface {
	// ListActiveAccounts returns active accounts ordered by code.
	// With no types given, accounts of every type are returned.
	ListActiveAccounts(ctx context.Context, types ...AccountType) ([]Account, error)

	// ListPostedLines returns posted lines matching the filter, ordered by entry date
	ListPostedLines(ctx context.Context, filter LineFilter) ([]JournalLine, error)
}

// LedgerVersion identifies the state of the journal at a point in time.
// Two equal versions imply no entry or line was posted, voided or edited in between.
type LedgerVersion struct {
	EntryCount    int64
	LineCount     int64
	DebitTotal    decimal.Decimal
	CreditTotal   decimal.Decimal
	LastUpdatedAt time.Time
}

// String returns a compact, stable key form of the version
func (v LedgerVersion) String() string {
	return strings.Join([]string{
		strconv.FormatInt(v.EntryCount, 10),
		strconv.FormatInt(v.LineCount, 10),
		v.DebitTotal.String(),
		v.CreditTotal.String(),
		strconv.FormatInt(v.LastUpdatedAt.UTC().UnixNano(), 10),
	}, "-")
}

// VersionedLedgerReader is a LedgerReader that can report its current version
type VersionedLedgerReader interface {
	LedgerReader
	LedgerVersion(ctx context.Context) (LedgerVersion, error)
}
