package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/app"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/constants"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	internal_repositories "github.com/rentflow/mono-repo/backend/services/rent-service/internal/repositories"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/spf13/cobra"
)

const dbURLEnv = "RENTCTL_DB_URL"

func rolloverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Open the ledger for a period for every active tenant",
		Long: `Roll every active tenant into the given period (default: the current
business month). Unpaid balances move into arrears. Tenants already on the
period are skipped, so re-running is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locationFlag(cmd)
			if err != nil {
				return err
			}
			period, _ := cmd.Flags().GetString("period")
			dbURL, _ := cmd.Flags().GetString("db-url")
			dbURL = utils.FirstNonEmpty(dbURL, os.Getenv(dbURLEnv))
			if dbURL == "" {
				return errors.New("--db-url or " + dbURLEnv + " is required")
			}

			pool, err := app.ConnectDB(dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.MonthlyRolloverTimeout)
			defer cancel()

			svc := services.NewRolloverService(
				internal_repositories.NewLedgerStore(pool),
				services.RolloverOptions{Location: loc},
			)
			resp, err := svc.Reset(ctx, dtos.RolloverRequest{Period: period})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().String("period", "", "Target period as YYYY-MM (default: current business month)")
	cmd.Flags().String("db-url", "", "Postgres URL (or set "+dbURLEnv+")")
	return cmd
}
