package alarms

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/metrics"
	"github.com/oshokin/olt-alarms/internal/platform"
	"github.com/oshokin/olt-alarms/internal/repository/registry"
)

var (
	// ErrUnknownIndication is returned for an indication kind the manager does not recognize.
	ErrUnknownIndication = errors.New("unknown indication kind")
	// ErrMalformedIndication is returned for a nil indication or nil payload.
	ErrMalformedIndication = errors.New("malformed indication")
	// ErrPayloadMismatch is returned when an indication's kind does not match its payload type.
	ErrPayloadMismatch = errors.New("indication payload does not match its kind")

	errDeviceIDRequired = errors.New("device id is required")
	errEmitterRequired  = errors.New("alarm emitter is required")
	errRegistryRequired = errors.New("device registry is required")
	errMapperRequired   = errors.New("platform mapper is required")
)

// Manager turns the indications of one OLT into alarm raise and clear calls.
// It is safe for concurrent use.
type Manager struct {
	// deviceID is the OLT device the manager serves.
	deviceID string
	// emitter receives every decision that survives suppression.
	emitter emitter.Emitter
	// mapper translates interface ids to port numbers and type names.
	mapper platform.Mapper
	// resolver looks up ONU identities.
	resolver *Resolver
	// suppressor drops redundant OLT LOS clears.
	suppressor *Suppressor
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	suppress bool
}

// WithSuppression enables or disables OLT LOS clear suppression. It is enabled by default.
func WithSuppression(enabled bool) Option {
	return func(o *options) {
		o.suppress = enabled
	}
}

// NewManager creates the alarm manager of deviceID.
// Every collaborator is required; a missing one is a construction error.
func NewManager(
	deviceID string,
	reg registry.Registry,
	mapper platform.Mapper,
	em emitter.Emitter,
	opts ...Option,
) (*Manager, error) {
	switch {
	case deviceID == "":
		return nil, errDeviceIDRequired
	case em == nil:
		return nil, errEmitterRequired
	case reg == nil:
		return nil, errRegistryRequired
	case mapper == nil:
		return nil, errMapperRequired
	}

	o := options{suppress: true}
	for _, opt := range opts {
		opt(&o)
	}

	return &Manager{
		deviceID:   deviceID,
		emitter:    em,
		mapper:     mapper,
		resolver:   NewResolver(deviceID, reg, mapper),
		suppressor: NewSuppressor(o.suppress, domain.OltLos),
	}, nil
}

// DeviceID returns the OLT device id served by the manager.
func (m *Manager) DeviceID() string {
	return m.deviceID
}

// SetSuppression switches OLT LOS clear suppression at runtime.
func (m *Manager) SetSuppression(enabled bool) {
	m.suppressor.SetEnabled(enabled)
}

// SuppressionEnabled reports whether OLT LOS clear suppression is active.
func (m *Manager) SuppressionEnabled() bool {
	return m.suppressor.Enabled()
}

// Dispatch processes one indication. It never returns an error and never
// panics: failures are logged so the next indication is unaffected.
func (m *Manager) Dispatch(ctx context.Context, ind indication.Indication) {
	ctx = logger.WithKV(ctx, "device_id", m.deviceID)

	defer func() {
		if rec := recover(); rec != nil {
			metrics.ObserveHandlerFailure(kindName(ind))
			logger.ErrorKV(ctx, "Alarm handler panicked", "panic", rec, "indication", ind)
		}
	}()

	logger.DebugKV(ctx, "Alarm indication received", "kind", kindName(ind), "indication", ind)

	err := m.route(ctx, ind)

	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownIndication), errors.Is(err, ErrMalformedIndication):
		logger.WarnKV(ctx, "Ignoring alarm indication", "error", err, "indication", ind)
	default:
		metrics.ObserveHandlerFailure(kindName(ind))
		logger.ErrorKV(ctx, "Alarm indication processing failed", "error", err, "indication", ind)
	}
}

// Simulate runs ind through the same handler Dispatch would use and
// returns handler errors to the caller instead of logging them.
func (m *Manager) Simulate(ctx context.Context, ind indication.Indication) (err error) {
	ctx = logger.WithFields(ctx, "device_id", m.deviceID, "simulated", true)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("simulate %s: handler panicked: %v", kindName(ind), rec)
		}
	}()

	return m.route(ctx, ind)
}

// route selects the handler from the indication's kind.
//
//nolint:cyclop // One case per indication kind.
func (m *Manager) route(ctx context.Context, ind indication.Indication) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	metrics.ObserveIndication(ind.Kind().String())

	switch ind.Kind() {
	case indication.KindOltLos:
		return handle(ctx, ind, m.HandleOltLos)
	case indication.KindDyingGasp:
		return handle(ctx, ind, m.HandleDyingGasp)
	case indication.KindOnuAlarm:
		return handle(ctx, ind, m.HandleOnuAlarm)
	case indication.KindOnuStartupFailure:
		return handle(ctx, ind, m.HandleOnuStartupFailure)
	case indication.KindOnuSignalDegrade:
		return handle(ctx, ind, m.HandleOnuSignalDegrade)
	case indication.KindOnuDriftOfWindow:
		return handle(ctx, ind, m.HandleOnuDriftOfWindow)
	case indication.KindOnuSignalsFailure:
		return handle(ctx, ind, m.HandleOnuSignalsFailure)
	case indication.KindOnuActivationFailure:
		return handle(ctx, ind, m.HandleOnuActivationFailure)
	case indication.KindOnuLossOfOmciChannel,
		indication.KindOnuTransmissionInterferenceWarning,
		indication.KindOnuProcessingError:
		logger.InfoKV(ctx, "Alarm indication kind not implemented yet", "kind", ind.Kind(), "indication", ind)

		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownIndication, ind.Kind())
	}
}

// handle asserts the payload type expected for the indication's kind.
func handle[T indication.Indication](
	ctx context.Context,
	ind indication.Indication,
	fn func(context.Context, T) error,
) error {
	payload, ok := ind.(T)
	if !ok {
		return fmt.Errorf("%w: %s carried by %T", ErrPayloadMismatch, ind.Kind(), ind)
	}

	return fn(ctx, payload)
}

func kindName(ind indication.Indication) string {
	if ind == nil {
		return "none"
	}

	return ind.Kind().String()
}
