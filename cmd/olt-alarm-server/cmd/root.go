package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/olt-alarms/internal/config"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/service/server"
	"github.com/oshokin/olt-alarms/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// metricsAddress overrides the metrics listen address.
	metricsAddress string
	// registryFile overrides the device registry file.
	registryFile string
	// suppress overrides the OLT LOS clear suppression flag.
	suppress bool

	// rootCmd represents the base command for running the alarm manager.
	rootCmd = &cobra.Command{
		Use:   "olt-alarm-server [listen-address]",
		Short: "Run the OLT alarm manager.",
		Long: `Starts the alarm manager of one OLT.

Indications arrive over gRPC, are classified per kind and turned into alarm
raise and clear events. ONU identities are resolved from the device registry
file, repeated OLT LOS clears are suppressed unless disabled, and every
emitted alarm is logged and streamed to watchers.

The listen address can be provided as argument to override config (e.g. :50060).
Prometheus metrics are served on /metrics when a metrics address is configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			options := &server.Options{
				ConfigPath:     configPath,
				MetricsAddress: metricsAddress,
				RegistryFile:   registryFile,
			}

			// Use listen address argument if provided, otherwise rely on config.
			if len(args) > 0 {
				options.ListenAddress = args[0]
			}

			if cmd.Flags().Changed("suppress-olt-los-clear") {
				options.Suppression = &suppress
			}

			logger.InfoKV(ctx, "Starting olt-alarm-server", version.Fields()...)

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the olt-alarm-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&metricsAddress, "metrics-addr", "m", "", "metrics listen address, overrides config")
	rootCmd.Flags().StringVarP(&registryFile, "registry", "r", "", "device registry YAML file, overrides config")
	rootCmd.Flags().BoolVar(&suppress, "suppress-olt-los-clear", true, "drop repeated OLT LOS clears, overrides config")
}
