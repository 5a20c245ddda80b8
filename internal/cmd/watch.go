package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/openfranka/deskctl/internal/desk"
)

var (
	watchRate  float64
	watchCount int
)

// channelNames maps the user-facing channel names to device paths.
// An argument containing a slash is taken as a raw channel path.
var channelNames = map[string]string{
	"robot-state": desk.ChannelRobotState,
	"safety":      desk.ChannelSafetyStatus,
	"system":      desk.ChannelSystemStatus,
	"general":     desk.ChannelGeneralSystemStatus,
	"buttons":     desk.ChannelButtonEvents,
}

func channelByName(name string) (string, error) {
	if path, ok := channelNames[name]; ok {
		return path, nil
	}
	if strings.Contains(name, "/") {
		return name, nil
	}
	known := make([]string, 0, len(channelNames))
	for n := range channelNames {
		known = append(known, n)
	}
	sort.Strings(known)
	return "", fmt.Errorf("unknown channel %q: known channels are %s", name, strings.Join(known, ", "))
}

// watchCmd streams a status channel to stdout.
var watchCmd = &cobra.Command{
	Use:   "watch <channel>",
	Short: "Stream a status channel as JSON lines",
	Long: `Subscribe to one of the robot's status channels and print each
message as a JSON line.

Channels: robot-state, safety, system, general, buttons. An argument
containing a slash is used as a raw channel path.

The robot-state channel publishes at 1 kHz; use --rate to thin the
output. Interrupt with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := channelByName(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		stream, err := client.RawStatuses(ctx, channel)
		if err != nil {
			return err
		}
		defer stream.Close()

		var limiter *rate.Limiter
		if watchRate > 0 {
			limiter = rate.NewLimiter(rate.Limit(watchRate), 1)
		}

		out := cmd.OutOrStdout()
		for n := 0; watchCount <= 0 || n < watchCount; {
			msg, err := stream.Next(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			// Thin the stream: drop messages arriving faster than --rate.
			if limiter != nil && !limiter.Allow() {
				continue
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, msg); err != nil {
				return err
			}
			fmt.Fprintln(out, buf.String())
			n++
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Float64Var(&watchRate, "rate", 0, "Maximum messages per second to print (0 prints everything)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many messages (0 streams until interrupted)")
}
