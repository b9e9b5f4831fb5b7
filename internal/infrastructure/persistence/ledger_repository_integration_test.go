//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/migration"
	"github.com/koperasi/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDatabase starts a postgres container, applies the embedded migrations
// and seeds the default chart with the sample journal
func newPostgresDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("koperasi_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	_, err = SeedChart(ctx, db)
	require.NoError(t, err)
	_, err = SeedSampleJournal(ctx, db)
	require.NoError(t, err)

	return db
}

func TestGormLedgerRepository_Postgres(t *testing.T) {
	db := newPostgresDatabase(t)
	repo := NewGormLedgerRepository(db)
	agg := ledger.NewAggregator(repo)
	ctx := context.Background()

	period, err := ledger.NewPeriod(testutil.Date("2024-01-01"), testutil.Date("2024-01-31"))
	require.NoError(t, err)

	t.Run("trial balance is balanced and skips the draft entry", func(t *testing.T) {
		tb, err := agg.TrialBalance(ctx, period)
		require.NoError(t, err)

		assert.True(t, tb.IsBalanced())
		assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(8_190_000)))
		for _, row := range tb.Accounts {
			assert.NotEqual(t, "5002", row.AccountCode)
		}
	})

	t.Run("balance sheet equation holds", func(t *testing.T) {
		bs, err := agg.BalanceSheet(ctx, period.End)
		require.NoError(t, err)

		// net income of the period is not closed to equity, so add it back
		is, err := agg.IncomeStatement(ctx, period)
		require.NoError(t, err)
		assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilitiesEquity.Add(is.NetIncome)))
		assert.True(t, is.NetIncome.Equal(decimal.NewFromInt(-110_000)))
	})

	t.Run("cash flow buckets follow the entry classification", func(t *testing.T) {
		cf, err := agg.CashFlow(ctx, period)
		require.NoError(t, err)

		assert.Len(t, cf.OperatingActivities, 3)
		assert.Len(t, cf.FinancingActivities, 2)
		assert.True(t, cf.NetCashFlow.Equal(decimal.NewFromInt(3_890_000)))
	})

	t.Run("ledger version is stable between reads", func(t *testing.T) {
		v1, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		v2, err := repo.LedgerVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, v1, v2)
		assert.Equal(t, int64(6), v1.EntryCount)
	})
}
