package inject

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/oshokin/olt-alarms/internal/config"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
	"github.com/oshokin/olt-alarms/internal/logger"
)

// Target selects the alarm manager to talk to.
type Target struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the listen address from config when specified.
	ServerAddress string
}

// Options configures a single indication injection.
type Options struct {
	Target

	// Kind is the control-channel name of the indication, e.g. "los_ind".
	Kind string
	// IntfID and OnuID locate the affected interface and ONU.
	IntfID uint32
	OnuID  uint32
	// Status is "on"/"off" or 1/0; anything else injects an unrecognized status.
	Status string
	// Per-condition statuses of onu_alarm_ind.
	LosStatus          string
	LobStatus          string
	LopcMissStatus     string
	LopcMicErrorStatus string
	// Kind-specific payload values.
	InverseBitErrorRate uint32
	Drift               uint32
	NewEqd              uint32
	// Simulate runs the handler directly and reports its errors instead of dispatching.
	Simulate bool
}

// WatchOptions configures the alarm event stream.
type WatchOptions struct {
	Target

	// Output receives one line per emitted alarm.
	Output io.Writer
}

// ErrUnknownKind is returned when Options.Kind names no known indication.
var ErrUnknownKind = errors.New("unknown indication kind")

// Run builds the indication described by opts and sends it to the manager.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "olt-alarm-inject")

	ind, err := BuildIndication(opts)
	if err != nil {
		return err
	}

	client, address, err := connect(ctx, &opts.Target)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Injecting alarm indication",
		"server_address", address,
		"kind", ind.Kind().String(),
		"intf_id", opts.IntfID,
		"onu_id", opts.OnuID,
		"simulate", opts.Simulate,
	)

	if opts.Simulate {
		return client.Simulate(ctx, ind)
	}

	return client.Dispatch(ctx, ind)
}

// RunWatch prints every emitted alarm until ctx is canceled.
func RunWatch(ctx context.Context, opts *WatchOptions) error {
	ctx = logger.WithName(ctx, "olt-alarm-inject")

	client, address, err := connect(ctx, &opts.Target)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching emitted alarms", "server_address", address)

	return client.Watch(ctx, func(ev emitter.Event) error {
		_, err := fmt.Fprintln(opts.Output, FormatEvent(ev))

		return err
	})
}

// RunSuppression sets the remote suppression flag when enabled is non-nil
// and returns the flag in effect.
func RunSuppression(ctx context.Context, target *Target, enabled *bool) (bool, error) {
	ctx = logger.WithName(ctx, "olt-alarm-inject")

	client, _, err := connect(ctx, target)
	if err != nil {
		return false, err
	}

	defer func() {
		_ = client.Close()
	}()

	return client.SetSuppression(ctx, enabled)
}

// BuildIndication converts CLI options into a typed indication.
func BuildIndication(opts *Options) (indication.Indication, error) {
	status := ParseStatus(opts.Status)

	switch kind := indication.ParseKind(opts.Kind); kind {
	case indication.KindOltLos:
		return &indication.OltLos{IntfID: opts.IntfID, Status: status}, nil
	case indication.KindDyingGasp:
		return &indication.DyingGasp{IntfID: opts.IntfID, OnuID: opts.OnuID, Status: status}, nil
	case indication.KindOnuAlarm:
		return &indication.OnuAlarm{
			IntfID:             opts.IntfID,
			OnuID:              opts.OnuID,
			LosStatus:          ParseStatus(opts.LosStatus),
			LobStatus:          ParseStatus(opts.LobStatus),
			LopcMissStatus:     ParseStatus(opts.LopcMissStatus),
			LopcMicErrorStatus: ParseStatus(opts.LopcMicErrorStatus),
		}, nil
	case indication.KindOnuStartupFailure:
		return &indication.OnuStartupFailure{IntfID: opts.IntfID, OnuID: opts.OnuID, Status: status}, nil
	case indication.KindOnuSignalDegrade:
		return &indication.OnuSignalDegrade{
			IntfID:              opts.IntfID,
			OnuID:               opts.OnuID,
			Status:              status,
			InverseBitErrorRate: opts.InverseBitErrorRate,
		}, nil
	case indication.KindOnuDriftOfWindow:
		return &indication.OnuDriftOfWindow{
			IntfID: opts.IntfID,
			OnuID:  opts.OnuID,
			Status: status,
			Drift:  opts.Drift,
			NewEqd: opts.NewEqd,
		}, nil
	case indication.KindOnuLossOfOmciChannel:
		return &indication.OnuLossOfOmciChannel{IntfID: opts.IntfID, OnuID: opts.OnuID, Status: status}, nil
	case indication.KindOnuSignalsFailure:
		return &indication.OnuSignalsFailure{
			IntfID:              opts.IntfID,
			OnuID:               opts.OnuID,
			Status:              status,
			InverseBitErrorRate: opts.InverseBitErrorRate,
		}, nil
	case indication.KindOnuTransmissionInterferenceWarning:
		return &indication.OnuTransmissionInterferenceWarning{
			IntfID: opts.IntfID,
			OnuID:  opts.OnuID,
			Status: status,
			Drift:  opts.Drift,
		}, nil
	case indication.KindOnuActivationFailure:
		return &indication.OnuActivationFailure{IntfID: opts.IntfID, OnuID: opts.OnuID}, nil
	case indication.KindOnuProcessingError:
		return &indication.OnuProcessingError{IntfID: opts.IntfID, OnuID: opts.OnuID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}

// ParseStatus accepts either encoding: an integer or a string.
func ParseStatus(s string) indication.Status {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return indication.StatusFromInt(n)
	}

	return indication.StatusFromString(s)
}

// FormatEvent renders an emitted alarm as a single line.
func FormatEvent(ev emitter.Event) string {
	if ev.Alarm == nil {
		return ev.ID
	}

	line := fmt.Sprintf("%s %-5s %s intf=%d",
		ev.Timestamp.Format(time.RFC3339),
		ev.Alarm.Decision,
		ev.Alarm.Kind,
		ev.Alarm.InterfaceID,
	)

	if ev.Alarm.Device.DeviceID != "" {
		line += fmt.Sprintf(" device=%s serial=%s", ev.Alarm.Device.DeviceID, ev.Alarm.Device.SerialNumber)
	}

	if ev.Alarm.Details.PortTypeName != "" {
		line += " port_type=" + ev.Alarm.Details.PortTypeName
	}

	return line
}

// connect resolves the target address and dials it.
func connect(ctx context.Context, target *Target) (*Client, string, error) {
	address, timeout, err := resolveTarget(target)
	if err != nil {
		return nil, "", err
	}

	operator, err := DetectOperator()
	if err != nil {
		logger.WarnKV(ctx, "Operator identity unavailable", "error", err)
	}

	client, err := Dial(ctx, address, WithCallTimeout(timeout), WithOperator(operator))
	if err != nil {
		return nil, "", err
	}

	return client, address, nil
}

// resolveTarget reads the address and timeout from config. An explicit
// server address makes the config file optional.
func resolveTarget(target *Target) (string, time.Duration, error) {
	cfg, err := config.Load(target.ConfigPath)
	if err != nil {
		if target.ServerAddress == "" {
			return "", 0, fmt.Errorf("load settings: %w", err)
		}

		return target.ServerAddress, config.DefaultTimeout, nil
	}

	if target.ServerAddress != "" {
		return target.ServerAddress, cfg.Server.Timeout, nil
	}

	return cfg.Server.ListenAddress, cfg.Server.Timeout, nil
}
