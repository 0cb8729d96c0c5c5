package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-goals",
		Short: "Close every active goal whose end date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closed, err := a.api.Goals().CloseExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep goals: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "closed %d expired goal(s)\n", closed)
			return nil
		},
	}
}
