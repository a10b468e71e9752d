package alarms

import (
	"context"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/metrics"
)

// HandleOltLos raises or clears loss of signal on an OLT interface.
// Repeated clears are subject to suppression.
func (m *Manager) HandleOltLos(ctx context.Context, ind *indication.OltLos) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	decision := Normalize(ind.Status)
	portTypeName := m.mapper.PortTypeName(ind.IntfID)

	logger.DebugKV(ctx, "OLT LOS indication",
		"intf_id", ind.IntfID,
		"port_type_name", portTypeName,
		"status", ind.Status,
		"decision", decision,
	)

	m.emit(ctx, &domain.Alarm{
		Kind:        domain.OltLos,
		InterfaceID: ind.IntfID,
		Details:     domain.Details{PortTypeName: portTypeName},
	}, decision)

	return nil
}

// HandleDyingGasp raises or clears an ONU dying gasp.
func (m *Manager) HandleDyingGasp(ctx context.Context, ind *indication.DyingGasp) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)
	decision := Normalize(ind.Status)

	logger.DebugKV(ctx, "Dying gasp indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_device_id", device.DeviceID,
		"status", ind.Status,
		"decision", decision,
	)

	m.emit(ctx, onuAlarm(domain.OnuDyingGasp, ind.IntfID, ind.OnuID, device), decision)

	return nil
}

// HandleOnuAlarm applies each of the four sub-statuses independently,
// so one indication may produce up to four emissions.
func (m *Manager) HandleOnuAlarm(ctx context.Context, ind *indication.OnuAlarm) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)

	subAlarms := []struct {
		kind   domain.FaultKind
		status indication.Status
	}{
		{domain.OnuLos, ind.LosStatus},
		{domain.OnuLob, ind.LobStatus},
		{domain.OnuLopcMiss, ind.LopcMissStatus},
		{domain.OnuLopcMicError, ind.LopcMicErrorStatus},
	}

	logger.DebugKV(ctx, "ONU alarm indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_device_id", device.DeviceID,
		"los_status", ind.LosStatus,
		"lob_status", ind.LobStatus,
		"lopc_miss_status", ind.LopcMissStatus,
		"lopc_mic_error_status", ind.LopcMicErrorStatus,
	)

	for _, sub := range subAlarms {
		m.emit(ctx, onuAlarm(sub.kind, ind.IntfID, ind.OnuID, device), Normalize(sub.status))
	}

	return nil
}

// HandleOnuStartupFailure raises or clears an ONU startup failure.
func (m *Manager) HandleOnuStartupFailure(ctx context.Context, ind *indication.OnuStartupFailure) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)
	decision := Normalize(ind.Status)

	logger.DebugKV(ctx, "ONU startup failure indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_serial_number", device.SerialNumber,
		"status", ind.Status,
		"decision", decision,
	)

	m.emit(ctx, onuAlarm(domain.OnuStartupFailure, ind.IntfID, ind.OnuID, device), decision)

	return nil
}

// HandleOnuSignalDegrade raises or clears a signal degrade alarm.
func (m *Manager) HandleOnuSignalDegrade(ctx context.Context, ind *indication.OnuSignalDegrade) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)
	decision := Normalize(ind.Status)

	logger.DebugKV(ctx, "ONU signal degrade indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_serial_number", device.SerialNumber,
		"inverse_bit_error_rate", ind.InverseBitErrorRate,
		"status", ind.Status,
		"decision", decision,
	)

	a := onuAlarm(domain.OnuSignalDegrade, ind.IntfID, ind.OnuID, device)
	a.Details.InverseBitErrorRate = domain.Uint32(ind.InverseBitErrorRate)

	m.emit(ctx, a, decision)

	return nil
}

// HandleOnuDriftOfWindow raises or clears a transmission window drift alarm.
func (m *Manager) HandleOnuDriftOfWindow(ctx context.Context, ind *indication.OnuDriftOfWindow) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)
	decision := Normalize(ind.Status)

	logger.DebugKV(ctx, "ONU window drift indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_device_id", device.DeviceID,
		"drift", ind.Drift,
		"new_eqd", ind.NewEqd,
		"status", ind.Status,
		"decision", decision,
	)

	a := onuAlarm(domain.OnuWindowDrift, ind.IntfID, ind.OnuID, device)
	a.Details.Drift = domain.Uint32(ind.Drift)
	a.Details.NewEqd = domain.Uint32(ind.NewEqd)

	m.emit(ctx, a, decision)

	return nil
}

// HandleOnuSignalsFailure raises or clears a signal fail alarm.
func (m *Manager) HandleOnuSignalsFailure(ctx context.Context, ind *indication.OnuSignalsFailure) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)
	decision := Normalize(ind.Status)

	logger.DebugKV(ctx, "ONU signal failure indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_device_id", device.DeviceID,
		"onu_serial_number", device.SerialNumber,
		"inverse_bit_error_rate", ind.InverseBitErrorRate,
		"status", ind.Status,
		"decision", decision,
	)

	a := onuAlarm(domain.OnuSignalFail, ind.IntfID, ind.OnuID, device)
	a.Details.InverseBitErrorRate = domain.Uint32(ind.InverseBitErrorRate)

	m.emit(ctx, a, decision)

	return nil
}

// HandleOnuActivationFailure always raises: the indication carries no status.
func (m *Manager) HandleOnuActivationFailure(ctx context.Context, ind *indication.OnuActivationFailure) error {
	if ind == nil {
		return ErrMalformedIndication
	}

	device := m.resolve(ctx, ind.OnuID, ind.IntfID)

	logger.DebugKV(ctx, "ONU activation failure indication",
		"intf_id", ind.IntfID,
		"onu_id", ind.OnuID,
		"onu_device_id", device.DeviceID,
		"onu_serial_number", device.SerialNumber,
	)

	m.emit(ctx, onuAlarm(domain.OnuActivationFail, ind.IntfID, ind.OnuID, device), domain.Raise)

	return nil
}

// resolve wraps Resolver.Resolve, logging and counting failures.
func (m *Manager) resolve(ctx context.Context, onuID, intfID uint32) domain.DeviceIdentity {
	device, err := m.resolver.Resolve(ctx, onuID, intfID)
	if err != nil {
		metrics.ObserveResolutionFailure()
		logger.WarnKV(ctx, "ONU identity unresolved", "intf_id", intfID, "onu_id", onuID, "error", err)
	}

	return device
}

// emit applies suppression and hands a surviving decision to the emitter.
func (m *Manager) emit(ctx context.Context, a *domain.Alarm, decision domain.Decision) {
	if decision == domain.NoChange {
		logger.DebugKV(ctx, "No alarm status change", "kind", a.Kind, "intf_id", a.InterfaceID)

		return
	}

	if !m.suppressor.Allow(a.Kind, a.InterfaceID, decision) {
		metrics.ObserveSuppressedClear(a.Kind.String())
		logger.DebugKV(ctx, "Suppressed repeated alarm clear", "kind", a.Kind, "intf_id", a.InterfaceID)

		return
	}

	a.Decision = decision
	metrics.ObserveEmission(a.Kind.String(), decision.String())

	if decision == domain.Raise {
		m.emitter.Raise(ctx, a)

		return
	}

	m.emitter.Clear(ctx, a)
}

func onuAlarm(kind domain.FaultKind, intfID, onuID uint32, device domain.DeviceIdentity) *domain.Alarm {
	return &domain.Alarm{
		Kind:        kind,
		InterfaceID: intfID,
		Device:      device,
		Details:     domain.Details{OnuID: domain.Uint32(onuID)},
	}
}
