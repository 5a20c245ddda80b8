package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfranka/deskctl/internal/desk"
)

var forceBrakes bool

// unlockCmd releases the joint brakes.
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the joint brakes",
	Long: `Release the robot's joint brakes.

The command blocks until the safety controller reports every joint
unlocked. Requires control of the robot (see take-control).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrakes(func(ctx context.Context, c *desk.Client) error {
			return c.Unlock(ctx, forceBrakes)
		}, "brakes unlocked")
	},
}

// lockCmd engages the joint brakes.
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the joint brakes",
	Long: `Engage the robot's joint brakes.

The command blocks until the safety controller reports every joint
locked. Requires control of the robot (see take-control).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrakes(func(ctx context.Context, c *desk.Client) error {
			return c.Lock(ctx, forceBrakes)
		}, "brakes locked")
	},
}

func runBrakes(op func(context.Context, *desk.Client) error, done string) error {
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	if err := op(ctx, client); err != nil {
		return err
	}
	fmt.Println(done)
	return nil
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)

	unlockCmd.Flags().BoolVar(&forceBrakes, "force", true, "Force the brake request (disable with --force=false)")
	lockCmd.Flags().BoolVar(&forceBrakes, "force", true, "Force the brake request (disable with --force=false)")
}
