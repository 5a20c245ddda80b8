// Package cmd provides the CLI commands for deskctl.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openfranka/deskctl/internal/appdir"
	"github.com/openfranka/deskctl/internal/desk"
	"github.com/openfranka/deskctl/internal/logging"
)

// Environment variables consulted when the corresponding flag is unset.
const (
	EnvHost     = "DESK_HOST"
	EnvUsername = "PANDA_USERNAME"
	EnvPassword = "PANDA_PASSWORD"
)

var (
	// Global flags
	hostFlag      string
	platformFlag  string
	usernameFlag  string
	passwordFlag  string
	verifyTLS     bool
	debug         bool
	logLevel      string // --log-level flag (debug, info, warn, error)
	logFile       string
	logJSON       bool
	logComponents string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deskctl",
	Short: "deskctl - control-panel client for Franka robots",
	Long: `deskctl talks to the web-based Desk interface of a Franka robot.

It logs in with your Desk credentials, claims the exclusive control
token that gates privileged operations, and exposes the common
maintenance actions: locking and unlocking the brakes, switching the
operating mode, enabling the FCI, rebooting, and watching the live
status channels.

The host and credentials can also come from the environment:
  DESK_HOST, PANDA_USERNAME, PANDA_PASSWORD`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Priority: --log-level flag > --debug flag > default (info)
		effectiveLogLevel := "info"
		if logLevel != "" {
			effectiveLogLevel = logLevel
		} else if debug {
			effectiveLogLevel = "debug"
		}
		var components []string
		if logComponents != "" {
			for _, c := range strings.Split(logComponents, ",") {
				c = strings.TrimSpace(c)
				if c != "" {
					components = append(components, c)
				}
			}
		}
		logCfg := logging.Config{
			Level:      effectiveLogLevel,
			JSON:       logJSON,
			Components: components,
		}
		if logFile != "" {
			fileCfg := logging.DefaultFileLogConfig()
			fileCfg.Path = logFile
			logCfg.FileLog = &fileCfg
		}
		if err := logging.Initialize(logCfg); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		// Ensure the deskctl directory exists so token persistence works
		if err := appdir.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create deskctl directory: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&hostFlag, "host", "H", "", "Robot hostname or address (or DESK_HOST)")
	rootCmd.PersistentFlags().StringVar(&platformFlag, "platform", "panda", "Robot platform: panda or fr3")
	rootCmd.PersistentFlags().StringVarP(&usernameFlag, "username", "u", "", "Desk username (or PANDA_USERNAME)")
	rootCmd.PersistentFlags().StringVarP(&passwordFlag, "password", "p", "", "Desk password (or PANDA_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&verifyTLS, "verify-tls", false, "Verify the device's TLS certificate (off by default: the device ships a self-signed one)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (shorthand for --log-level=debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().StringVarP(&logFile, "logfile", "l", "", "Log file path (logs are also written to console)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&logComponents, "log-components", "", "Comma-separated list of components to log (e.g., 'control,stream'). Empty means all components.")
}

// flagOrEnv returns the flag value, falling back to the environment.
func flagOrEnv(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

// resolveConnection gathers host and credentials from flags and the
// environment. The password may legitimately be empty only when the
// username is too (some commands never log in).
func resolveConnection() (host, username, password string, err error) {
	host = flagOrEnv(hostFlag, EnvHost)
	if host == "" {
		return "", "", "", fmt.Errorf("no host given: use --host or set %s", EnvHost)
	}
	username = flagOrEnv(usernameFlag, EnvUsername)
	password = flagOrEnv(passwordFlag, EnvPassword)
	return host, username, password, nil
}

// newClient builds a client from the global flags and logs it in.
func newClient(ctx context.Context) (*desk.Client, error) {
	host, username, password, err := resolveConnection()
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, fmt.Errorf("no username given: use --username or set %s", EnvUsername)
	}

	platform, err := desk.ParsePlatform(platformFlag)
	if err != nil {
		return nil, err
	}
	logging.CLI().Debug("connecting", "host", host, "platform", string(platform), "username", username)

	opts := []desk.Option{desk.WithPlatform(platform)}
	if verifyTLS {
		opts = append(opts, desk.WithTLSVerification())
	}
	client, err := desk.New(host, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return client, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
