package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forceTakeover bool

// takeControlCmd claims the exclusive control token.
var takeControlCmd = &cobra.Command{
	Use:   "take-control",
	Short: "Claim exclusive control of the robot",
	Long: `Claim the exclusive control token that gates privileged operations.

If another user currently holds control, the claim is refused unless
--force is given. A forced takeover must be confirmed by pressing the
circle button on the robot's Pilot within the confirmation window the
device reports; without the press the takeover is abandoned.

The acquired token is persisted per host, so a later invocation can
retake control without forcing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		ok, err := client.TakeControl(ctx, forceTakeover)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("could not take control of %s", client.Host())
		}
		fmt.Printf("in control of %s\n", client.Host())
		return nil
	},
}

// hasControlCmd reports whether the persisted token still holds control.
var hasControlCmd = &cobra.Command{
	Use:   "has-control",
	Short: "Check whether this machine holds the control token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		has, err := client.CheckHasControl(ctx)
		if err != nil {
			return err
		}
		if !has {
			return fmt.Errorf("not in control of %s", client.Host())
		}
		fmt.Printf("in control of %s\n", client.Host())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(takeControlCmd)
	rootCmd.AddCommand(hasControlCmd)

	takeControlCmd.Flags().BoolVar(&forceTakeover, "force", false, "Evict the current holder (requires pressing the circle button on the robot)")
}
