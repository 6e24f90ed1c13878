package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/shooter-remote/internal/config"
	"github.com/oshokin/shooter-remote/internal/logger"
	"github.com/oshokin/shooter-remote/internal/service/recorder"
	"github.com/oshokin/shooter-remote/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// logLevel overrides the configured log level.
	logLevel string

	// start, stop, download and loop mirror the recording flags.
	start    bool
	stop     bool
	download bool
	loop     bool
	// seconds stops a started recording automatically.
	seconds int

	// rootCmd represents the base command for driving the camera-control application.
	rootCmd = &cobra.Command{
		Use:   "shooter-remote [endpoint]",
		Short: "Start, stop and download video recordings through Smart Shooter.",
		Long: `Drives the camera-control application over its ZeroMQ request/reply API.

The first camera reported by the application is used. --start begins a recording;
with --time N it is stopped after N seconds and, with --download, fetched into the
download directory. --stop ends a recording and optionally downloads it. --loop
repeats the start cycle until interrupted with Ctrl+C.

Status tokens (rec_start, rec_stop, down_start, down_done) are printed to stdout,
logs go to stderr. The endpoint can be provided as argument or loaded from the
configuration file.`,
		Example: `  shooter-remote --start --time 10 --download
  shooter-remote --stop --download
  shooter-remote --start --time 30 --loop tcp://192.168.1.20:54544`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			// Restore default signal handling after the first signal, so a second one kills the process.
			go func() {
				<-ctx.Done()
				cancel()
			}()

			defer logger.Sync()

			var endpoint string
			if len(args) > 0 {
				endpoint = args[0]
			}

			return recorder.Run(ctx, &recorder.Options{
				ConfigPath: cfgPath,
				Endpoint:   endpoint,
				LogLevel:   logLevel,
				Start:      start,
				Stop:       stop,
				Download:   download,
				Duration:   time.Duration(seconds) * time.Second,
				Loop:       loop,
				Output:     cmd.OutOrStdout(),
			})
		},
	}
)

// Execute runs the shooter-remote CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.Flags().BoolVar(&start, "start", false, "start video recording")
	rootCmd.Flags().BoolVar(&stop, "stop", false, "stop video recording")
	rootCmd.Flags().BoolVar(&download, "download", false, "download the video after recording")
	rootCmd.Flags().IntVar(&seconds, "time", 0, "seconds to record before stopping automatically")
	rootCmd.Flags().BoolVar(&loop, "loop", false, "record continuously until interrupted")
}
