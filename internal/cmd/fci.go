package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// fciCmd groups the FCI subcommands.
var fciCmd = &cobra.Command{
	Use:   "fci",
	Short: "Manage the Franka Control Interface",
	Long: `Activate or deactivate the Franka Control Interface (FCI), the
real-time interface used by libfranka-based programs.

The brakes must be unlocked before activation. Requires control of the
robot. On the legacy Panda platform the FCI is always available and
both subcommands are no-ops.`,
}

var fciActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Activate the FCI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.ActivateFCI(ctx); err != nil {
			return err
		}
		fmt.Println("FCI activated")
		return nil
	},
}

var fciDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Deactivate the FCI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.DeactivateFCI(ctx); err != nil {
			return err
		}
		fmt.Println("FCI deactivated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fciCmd)
	fciCmd.AddCommand(fciActivateCmd)
	fciCmd.AddCommand(fciDeactivateCmd)
}
