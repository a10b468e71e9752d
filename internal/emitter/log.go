package emitter

import (
	"context"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/logger"
)

// Log writes every emitted alarm as a structured log entry.
type Log struct {
	source Source
}

// NewLog returns an emitter logging alarms of the given source.
func NewLog(source Source) *Log {
	return &Log{source: source}
}

// Raise implements Emitter.
func (l *Log) Raise(ctx context.Context, alarm *domain.Alarm) {
	logger.InfoKV(ctx, "Alarm raised", l.fields(alarm)...)
}

// Clear implements Emitter.
func (l *Log) Clear(ctx context.Context, alarm *domain.Alarm) {
	logger.InfoKV(ctx, "Alarm cleared", l.fields(alarm)...)
}

func (l *Log) fields(alarm *domain.Alarm) []any {
	event := NewEvent(l.source, alarm)
	kvs := []any{
		"alarm_id", event.ID,
		"kind", alarm.Kind,
		"intf_id", alarm.InterfaceID,
		"olt_device_id", l.source.DeviceID,
		"olt_serial_number", l.source.SerialNumber,
	}

	if alarm.Device != (domain.DeviceIdentity{}) {
		kvs = append(kvs, "onu_device_id", alarm.Device.DeviceID, "onu_serial_number", alarm.Device.SerialNumber)
	}

	d := alarm.Details
	if d.PortTypeName != "" {
		kvs = append(kvs, "port_type_name", d.PortTypeName)
	}

	for _, f := range []struct {
		key   string
		value *uint32
	}{
		{"onu_id", d.OnuID},
		{"inverse_bit_error_rate", d.InverseBitErrorRate},
		{"drift", d.Drift},
		{"new_eqd", d.NewEqd},
	} {
		if f.value != nil {
			kvs = append(kvs, f.key, *f.value)
		}
	}

	return kvs
}
