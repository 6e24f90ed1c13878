package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/shooter-remote/internal/config"
	"github.com/oshokin/shooter-remote/internal/logger"
	"github.com/oshokin/shooter-remote/internal/service/emulator"
	"github.com/oshokin/shooter-remote/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where camera state is persisted.
	stateFile string
	// cameras lists emulated camera keys.
	cameras []string
	// logLevel sets the minimum log level.
	logLevel string

	// rootCmd represents the base command for running the emulator.
	rootCmd = &cobra.Command{
		Use:   "shooter-emulator [endpoint]",
		Short: "Emulate the camera-control application for local testing.",
		Long: `Answers GetCamera, EnableVideo and Download requests on a ZeroMQ REP socket.

The endpoint is taken from the argument or from the configuration file (only
tcp://host:port endpoints are supported). Downloads write placeholder clip files
into the requested directory. Camera state is persisted to a JSON file for
recovery across restarts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			if logLevel != "" {
				level, ok := logger.ParseLogLevel(logLevel)
				if !ok {
					return fmt.Errorf("unknown log level %q", logLevel)
				}

				logger.SetLevel(level)
			}

			var endpoint string
			if len(args) > 0 {
				endpoint = args[0]
			}

			return emulator.Run(ctx, &emulator.Options{
				ConfigPath: configPath,
				Endpoint:   endpoint,
				StateFile:  stateFile,
				Cameras:    cameras,
			})
		},
	}
)

// Execute runs the shooter-emulator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist camera state")
	rootCmd.Flags().StringArrayVar(&cameras, "camera", nil, "emulated camera key, repeatable")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
