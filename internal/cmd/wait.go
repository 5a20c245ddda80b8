package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	waitTimeout time.Duration
	waitRelease bool
)

// waitCmd groups the condition-wait subcommands.
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a robot condition holds",
}

var waitButtonCmd = &cobra.Command{
	Use:   "button <circle|check|cross|up|down|left|right>",
	Short: "Wait for a Pilot button press (or release with --release)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		button := args[0]
		var ok bool
		if waitRelease {
			_, ok, err = client.WaitForButtonRelease(ctx, button, waitTimeout)
		} else {
			_, ok, err = client.WaitForButtonPress(ctx, button, waitTimeout)
		}
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("timed out waiting for button %s", button)
		}
		fmt.Printf("button %s\n", button)
		return nil
	},
}

var waitBrakesCmd = &cobra.Command{
	Use:       "brakes <open|closed>",
	Short:     "Wait until every joint brake reports the given state",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"open", "closed"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		var ok bool
		switch args[0] {
		case "open":
			ok, err = client.WaitForBrakesOpen(ctx, waitTimeout)
		case "closed":
			ok, err = client.WaitForBrakesClosed(ctx, waitTimeout)
		default:
			return fmt.Errorf("unknown brake state %q: must be 'open' or 'closed'", args[0])
		}
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("timed out waiting for brakes %s", args[0])
		}
		fmt.Printf("brakes %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.AddCommand(waitButtonCmd)
	waitCmd.AddCommand(waitBrakesCmd)

	waitCmd.PersistentFlags().DurationVar(&waitTimeout, "timeout", 0, "Give up after this long (0 waits forever)")
	waitButtonCmd.Flags().BoolVar(&waitRelease, "release", false, "Wait for the button to be released instead of pressed")
}
