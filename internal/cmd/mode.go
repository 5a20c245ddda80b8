package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfranka/deskctl/internal/desk"
)

// modeCmd switches the Desk operating mode.
var modeCmd = &cobra.Command{
	Use:   "mode <execution|programming>",
	Short: "Switch the Desk operating mode",
	Long: `Switch the Desk between execution and programming mode.

Execution mode allows running tasks and external control through the
FCI; programming mode allows hand-guiding. Requires control of the
robot. Not supported on the legacy Panda platform.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(desk.ModeExecution), string(desk.ModeProgramming)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		mode := desk.Mode(args[0])
		if err := client.SetMode(ctx, mode); err != nil {
			return err
		}
		fmt.Printf("operating mode set to %s\n", mode)
		return nil
	},
}

// rebootCmd restarts the robot hardware.
var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the robot hardware",
	Long: `Reboot the robot hardware.

Requires control of the robot. The connection drops once the device
acknowledges the request.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.Reboot(ctx); err != nil {
			return err
		}
		fmt.Println("reboot requested")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(rebootCmd)
}
