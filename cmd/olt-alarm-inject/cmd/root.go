package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/olt-alarms/internal/config"
	"github.com/oshokin/olt-alarms/internal/service/inject"
	"github.com/oshokin/olt-alarms/internal/version"
)

var (
	// target selects the alarm manager; shared by every subcommand.
	target inject.Target
	// opts describes the injected indication.
	opts inject.Options

	// rootCmd injects a single indication.
	rootCmd = &cobra.Command{
		Use:   "olt-alarm-inject <kind>",
		Short: "Inject an alarm indication into a running OLT alarm manager.",
		Long: `Sends one indication to the alarm manager, as if the OLT had reported it.

Kinds use the control-channel names: los_ind, dying_gasp_ind, onu_alarm_ind,
onu_startup_fail_ind, onu_signal_degrade_ind, onu_drift_of_window_ind,
onu_loss_omci_ind, onu_signals_fail_ind, onu_tiwi_ind,
onu_activation_fail_ind, onu_processing_error_ind.

Statuses accept "on"/"off" or 1/0. By default the indication goes through the
dispatcher and failures are only logged by the manager; --simulate calls the
handler directly and reports its error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts.Target = target
			opts.Kind = args[0]

			return inject.Run(ctx, &opts)
		},
	}

	// watchCmd follows emitted alarms.
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print every alarm the manager raises or clears.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return inject.RunWatch(ctx, &inject.WatchOptions{
				Target: target,
				Output: cmd.OutOrStdout(),
			})
		},
	}

	// suppressionCmd reports or toggles OLT LOS clear suppression.
	suppressionCmd = &cobra.Command{
		Use:       "suppression [on|off]",
		Short:     "Show or change OLT LOS clear suppression.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled *bool

			if len(args) > 0 {
				value := args[0] == "on"
				enabled = &value
			}

			current, err := inject.RunSuppression(cmd.Context(), &target, enabled)
			if err != nil {
				return err
			}

			state := "off"
			if current {
				state = "on"
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "suppression: %s\n", state)

			return err
		},
	}
)

// Execute runs the olt-alarm-inject CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(watchCmd, suppressionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&target.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	persistent.StringVarP(&target.ServerAddress, "server", "s", "", "alarm manager address, overrides config")

	flags := rootCmd.Flags()
	flags.Uint32VarP(&opts.IntfID, "intf", "i", 0, "interface id")
	flags.Uint32VarP(&opts.OnuID, "onu", "o", 0, "device-local ONU id")
	flags.StringVar(&opts.Status, "status", "on", "indication status")
	flags.StringVar(&opts.LosStatus, "los-status", "", "onu_alarm_ind LOS status")
	flags.StringVar(&opts.LobStatus, "lob-status", "", "onu_alarm_ind LOB status")
	flags.StringVar(&opts.LopcMissStatus, "lopc-miss-status", "", "onu_alarm_ind LOPC miss status")
	flags.StringVar(&opts.LopcMicErrorStatus, "lopc-mic-error-status", "", "onu_alarm_ind LOPC MIC error status")
	flags.Uint32Var(&opts.InverseBitErrorRate, "inverse-ber", 0, "inverse bit error rate")
	flags.Uint32Var(&opts.Drift, "drift", 0, "window drift")
	flags.Uint32Var(&opts.NewEqd, "new-eqd", 0, "new equalization delay")
	flags.BoolVar(&opts.Simulate, "simulate", false, "call the handler directly and report its error")
}
