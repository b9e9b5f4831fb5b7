package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/infrastructure/persistence"
)

func newSeedCmd(root *rootOptions) *cobra.Command {
	var sample bool

	c := &cobra.Command{
		Use:   "seed",
		Short: "Create the ledger tables and load the default chart of accounts",
		Long: `seed creates the ledger tables if they are missing and inserts the default
koperasi chart of accounts. Existing accounts are left untouched.
--sample also posts a month of example activity (January 2024).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.Close()

			if sample && s.cfg.IsProduction() {
				return errors.New("refusing to post the sample journal in production")
			}

			ctx := cmd.Context()
			if err := persistence.AutoMigrate(s.db.DB); err != nil {
				return err
			}
			accounts, err := persistence.SeedChart(ctx, s.db.DB)
			if err != nil {
				return err
			}
			s.log.Info("Chart of accounts seeded", zap.Int64("inserted", accounts))
			fmt.Fprintf(cmd.OutOrStdout(), "accounts inserted: %d\n", accounts)

			if !sample {
				return nil
			}
			entries, err := persistence.SeedSampleJournal(ctx, s.db.DB)
			if err != nil {
				return err
			}
			s.log.Info("Sample journal seeded", zap.Int("entries", entries))
			fmt.Fprintf(cmd.OutOrStdout(), "journal entries inserted: %d\n", entries)
			return nil
		},
	}

	c.Flags().BoolVar(&sample, "sample", false, "also post the sample January 2024 journal")

	return c
}
