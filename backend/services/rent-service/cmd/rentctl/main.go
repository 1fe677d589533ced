// Command rentctl is the operator CLI for rent-service: parse an M-Pesa
// confirmation offline or run a month rollover against Postgres.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/constants"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/spf13/cobra"
)

var Version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rentctl",
		Short:         "rentctl - operator tools for rent-service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.InitLogger("rentctl")
		},
	}
	rootCmd.PersistentFlags().String("timezone", constants.BusinessTimezone, "Business timezone for periods and SMS timestamps")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(rolloverCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
