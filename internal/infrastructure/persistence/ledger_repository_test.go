package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
	"github.com/koperasi/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSeededRepository returns a repository over sqlite holding the default chart and sample journal
func newSeededRepository(t *testing.T) (*GormLedgerRepository, *Database) {
	t.Helper()

	db := newSQLiteDatabase(t)
	ctx := context.Background()
	_, err := SeedChart(ctx, db.DB)
	require.NoError(t, err)
	_, err = SeedSampleJournal(ctx, db.DB)
	require.NoError(t, err)

	return NewGormLedgerRepository(db.DB), db
}

func TestGormLedgerRepository_ListActiveAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every active account ordered by code", func(t *testing.T) {
		repo, _ := newSeededRepository(t)

		accounts, err := repo.ListActiveAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, len(DefaultChart))
		assert.Equal(t, "1001", accounts[0].Code)
		assert.Equal(t, "5002", accounts[len(accounts)-1].Code)
	})

	t.Run("filters by account type", func(t *testing.T) {
		repo, _ := newSeededRepository(t)

		accounts, err := repo.ListActiveAccounts(ctx, ledger.AccountTypeRevenue, ledger.AccountTypeExpense)
		require.NoError(t, err)

		codes := make([]string, len(accounts))
		for i, a := range accounts {
			codes[i] = a.Code
			assert.True(t, a.Type.IsIncomeStatement())
		}
		assert.Equal(t, []string{"4001", "4002", "5001", "5002"}, codes)
	})

	t.Run("skips inactive accounts", func(t *testing.T) {
		repo, db := newSeededRepository(t)
		require.NoError(t, db.DB.Model(&models.AccountModel{}).
			Where("code = ?", "3002").
			Update("is_active", false).Error)

		accounts, err := repo.ListActiveAccounts(ctx, ledger.AccountTypeEquity)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "3001", accounts[0].Code)
	})
}

func TestGormLedgerRepository_ListPostedLines(t *testing.T) {
	ctx := context.Background()
	from := testutil.Date("2024-01-01")

	t.Run("returns posted lines only, in date order", func(t *testing.T) {
		repo, _ := newSeededRepository(t)

		lines, err := repo.ListPostedLines(ctx, ledger.LineFilter{
			AccountCode: "1001",
			From:        &from,
			To:          testutil.Date("2024-01-31"),
		})
		require.NoError(t, err)
		require.Len(t, lines, 5)

		for _, l := range lines {
			assert.Equal(t, ledger.EntryStatusPosted, l.Status)
			assert.NotEqual(t, "JU-2024-0004", l.EntryNumber)
		}
		assert.Equal(t, "JU-2024-0001", lines[0].EntryNumber)
		assert.True(t, lines[0].Debit.Equal(decimal.NewFromInt(1_000_000)))
		assert.Equal(t, ledger.ActivityOperating, lines[0].Classification)
		assert.Equal(t, "savings_deposit", lines[0].ReferenceType)
		assert.Equal(t, "Setoran simpanan pokok anggota", lines[0].Description)
		assert.Equal(t, "JU-2024-0006", lines[4].EntryNumber)
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		repo, _ := newSeededRepository(t)
		start := testutil.Date("2024-01-10")

		lines, err := repo.ListPostedLines(ctx, ledger.LineFilter{
			AccountCode: "1001",
			From:        &start,
			To:          testutil.Date("2024-01-15"),
		})
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, "JU-2024-0002", lines[0].EntryNumber)
		assert.Equal(t, "JU-2024-0003", lines[1].EntryNumber)
	})

	t.Run("nil From has no lower bound", func(t *testing.T) {
		repo, _ := newSeededRepository(t)

		lines, err := repo.ListPostedLines(ctx, ledger.LineFilter{
			AccountCode: "1001",
			To:          testutil.Date("2024-01-12"),
		})
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("account without lines returns empty", func(t *testing.T) {
		repo, _ := newSeededRepository(t)

		lines, err := repo.ListPostedLines(ctx, ledger.LineFilter{
			AccountCode: "4002",
			From:        &from,
			To:          testutil.Date("2024-12-31"),
		})
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestGormLedgerRepository_LedgerVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger has zero version", func(t *testing.T) {
		db := newSQLiteDatabase(t)
		repo := NewGormLedgerRepository(db.DB)

		version, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), version.EntryCount)
		assert.True(t, version.LastUpdatedAt.IsZero())
	})

	t.Run("version changes when an entry is posted", func(t *testing.T) {
		repo, db := newSeededRepository(t)

		before, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(len(SampleJournal())), before.EntryCount)

		entry := sampleEntry("JU-2024-0100", "2024-02-01", ledger.EntryStatusPosted, "service_fee",
			ledger.ActivityOperating, "Jasa pinjaman Februari",
			sampleLine("1001", 40_000, 0), sampleLine("4001", 0, 40_000))
		require.NoError(t, db.DB.Create(&entry).Error)

		after, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, before.String(), after.String())
	})

	t.Run("version changes when an entry is voided", func(t *testing.T) {
		repo, db := newSeededRepository(t)

		before, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, db.DB.Model(&models.JournalEntryModel{}).
			Where("entry_number = ?", "JU-2024-0006").
			Update("status", string(ledger.EntryStatusVoided)).Error)

		after, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.EntryCount, after.EntryCount)
		assert.True(t, after.LastUpdatedAt.After(before.LastUpdatedAt))
	})

	t.Run("version changes when only a line amount is edited", func(t *testing.T) {
		repo, db := newSeededRepository(t)

		before, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.Positive(t, before.LineCount)

		var line models.JournalEntryLineModel
		require.NoError(t, db.DB.Where("account_code = ? AND debit_amount > 0", "1001").First(&line).Error)
		require.NoError(t, db.DB.Exec("UPDATE journal_entry_lines SET debit_amount = ? WHERE id = ?",
			999_999, line.ID).Error)

		after, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.EntryCount, after.EntryCount)
		assert.Equal(t, before.LineCount, after.LineCount)
		assert.NotEqual(t, before.String(), after.String())
	})

	t.Run("version changes when a line is touched", func(t *testing.T) {
		repo, db := newSeededRepository(t)

		before, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, db.DB.Model(&models.JournalEntryLineModel{}).
			Where("account_code = ?", "1001").
			Update("description", "Kas (koreksi)").Error)

		after, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.True(t, after.LastUpdatedAt.After(before.LastUpdatedAt))
		assert.NotEqual(t, before.String(), after.String())
	})
}

func TestGormLedgerRepository_WithAggregator(t *testing.T) {
	repo, _ := newSeededRepository(t)
	period, err := ledger.NewPeriod(testutil.Date("2024-01-01"), testutil.Date("2024-01-31"))
	require.NoError(t, err)

	tb, err := ledger.NewAggregator(repo).TrialBalance(context.Background(), period)
	require.NoError(t, err)

	require.Len(t, tb.Accounts, 6)
	kas := tb.Accounts[0]
	assert.Equal(t, "1001", kas.AccountCode)
	assert.True(t, kas.Debit.Equal(decimal.NewFromInt(6_040_000)))
	assert.True(t, kas.Credit.Equal(decimal.NewFromInt(2_150_000)))
	assert.True(t, kas.Balance.Equal(decimal.NewFromInt(3_890_000)))
	assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(8_190_000)))
	assert.True(t, tb.IsBalanced())
}

func TestGormLedgerRepository_StoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("account query failure is wrapped", func(t *testing.T) {
		gdb, mock := testutil.SQLMock(t)
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE is_active = \$1`).
			WithArgs(true).
			WillReturnError(errors.New("connection reset by peer"))

		_, err := NewGormLedgerRepository(gdb).ListActiveAccounts(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query accounts")
		assert.Contains(t, err.Error(), "connection reset by peer")
	})

	t.Run("line query failure names the account", func(t *testing.T) {
		gdb, mock := testutil.SQLMock(t)
		mock.ExpectQuery(`FROM journal_entry_lines AS l JOIN journal_entries e`).
			WillReturnError(errors.New("statement timeout"))

		_, err := NewGormLedgerRepository(gdb).ListPostedLines(ctx, ledger.LineFilter{
			AccountCode: "2003",
			To:          testutil.Date("2024-01-31"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account 2003")
	})

	t.Run("version query failure", func(t *testing.T) {
		gdb, mock := testutil.SQLMock(t)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "journal_entries"`).
			WillReturnError(errors.New("too many connections"))

		_, err := NewGormLedgerRepository(gdb).LedgerVersion(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "count journal entries")
	})

	t.Run("the aggregator surfaces store failures as aggregation failures", func(t *testing.T) {
		gdb, mock := testutil.SQLMock(t)
		mock.ExpectQuery(`FROM "accounts"`).
			WillReturnRows(sqlmock.NewRows([]string{"code", "name", "account_type", "is_active", "created_at", "updated_at"}).
				AddRow("1001", "Kas", "asset", true, time.Now(), time.Now()))
		mock.ExpectQuery(`FROM journal_entry_lines`).
			WillReturnError(errors.New("connection refused"))

		period, err := ledger.NewPeriod(testutil.Date("2024-01-01"), testutil.Date("2024-01-31"))
		require.NoError(t, err)

		_, err = ledger.NewAggregator(NewGormLedgerRepository(gdb)).TrialBalance(ctx, period)
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrAggregationFailure)

		var aggErr *ledger.AggregationError
		require.ErrorAs(t, err, &aggErr)
		assert.Equal(t, "1001", aggErr.AccountCode)
	})
}
