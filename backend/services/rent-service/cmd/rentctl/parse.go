package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/mpesa"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [sms]",
		Short: "Parse an M-Pesa confirmation SMS and print the payment as JSON",
		Long: `Parse an M-Pesa confirmation SMS and print the extracted payment as JSON.
With no argument the message is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locationFlag(cmd)
			if err != nil {
				return err
			}

			var body string
			if len(args) == 1 {
				body = args[0]
			} else {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				body = string(raw)
			}

			event, err := mpesa.NewParser(loc).Parse(body)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(event)
		},
	}
}

func locationFlag(cmd *cobra.Command) (*time.Location, error) {
	name, err := cmd.Flags().GetString("timezone")
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
