package simulator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
)

// Wire field names. Indication fields follow the OLT control-channel message fields.
const (
	fieldKind                = "kind"
	fieldIntfID              = "intf_id"
	fieldOnuID               = "onu_id"
	fieldStatus              = "status"
	fieldLosStatus           = "los_status"
	fieldLobStatus           = "lob_status"
	fieldLopcMissStatus      = "lopc_miss_status"
	fieldLopcMicErrorStatus  = "lopc_mic_error_status"
	fieldInverseBitErrorRate = "inverse_bit_error_rate"
	fieldDrift               = "drift"
	fieldNewEqd              = "new_eqd"

	fieldID              = "id"
	fieldDecision        = "decision"
	fieldDeviceID        = "device_id"
	fieldSerialNumber    = "serial_number"
	fieldOltDeviceID     = "olt_device_id"
	fieldLogicalDeviceID = "logical_device_id"
	fieldOltSerialNumber = "olt_serial_number"
	fieldPortTypeName    = "port_type_name"
	fieldTimestamp       = "timestamp"

	fieldEnabled = "enabled"
)

var (
	// ErrUnknownKind is returned when the kind field names no known indication.
	ErrUnknownKind = errors.New("unknown indication kind")
	// ErrMalformed is returned when a message cannot be decoded.
	ErrMalformed = errors.New("malformed message")
)

// DecodeIndication converts a wire message into a typed indication.
// Status fields accept either the integer (1/0) or the string ("on"/"off")
// encoding; anything else decodes as indication.StatusOther.
// Missing identifiers default to zero.
func DecodeIndication(msg *structpb.Struct) (indication.Indication, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: empty indication", ErrMalformed)
	}

	d := &decoder{fields: msg.GetFields()}

	name := d.string(fieldKind)
	if name == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrMalformed, fieldKind)
	}

	var (
		intfID = d.uint32(fieldIntfID)
		onuID  = d.uint32(fieldOnuID)
		ind    indication.Indication
	)

	switch kind := indication.ParseKind(name); kind {
	case indication.KindOltLos:
		ind = &indication.OltLos{IntfID: intfID, Status: d.status(fieldStatus)}
	case indication.KindDyingGasp:
		ind = &indication.DyingGasp{IntfID: intfID, OnuID: onuID, Status: d.status(fieldStatus)}
	case indication.KindOnuAlarm:
		ind = &indication.OnuAlarm{
			IntfID:             intfID,
			OnuID:              onuID,
			LosStatus:          d.status(fieldLosStatus),
			LobStatus:          d.status(fieldLobStatus),
			LopcMissStatus:     d.status(fieldLopcMissStatus),
			LopcMicErrorStatus: d.status(fieldLopcMicErrorStatus),
		}
	case indication.KindOnuStartupFailure:
		ind = &indication.OnuStartupFailure{IntfID: intfID, OnuID: onuID, Status: d.status(fieldStatus)}
	case indication.KindOnuSignalDegrade:
		ind = &indication.OnuSignalDegrade{
			IntfID:              intfID,
			OnuID:               onuID,
			Status:              d.status(fieldStatus),
			InverseBitErrorRate: d.uint32(fieldInverseBitErrorRate),
		}
	case indication.KindOnuDriftOfWindow:
		ind = &indication.OnuDriftOfWindow{
			IntfID: intfID,
			OnuID:  onuID,
			Status: d.status(fieldStatus),
			Drift:  d.uint32(fieldDrift),
			NewEqd: d.uint32(fieldNewEqd),
		}
	case indication.KindOnuLossOfOmciChannel:
		ind = &indication.OnuLossOfOmciChannel{IntfID: intfID, OnuID: onuID, Status: d.status(fieldStatus)}
	case indication.KindOnuSignalsFailure:
		ind = &indication.OnuSignalsFailure{
			IntfID:              intfID,
			OnuID:               onuID,
			Status:              d.status(fieldStatus),
			InverseBitErrorRate: d.uint32(fieldInverseBitErrorRate),
		}
	case indication.KindOnuTransmissionInterferenceWarning:
		ind = &indication.OnuTransmissionInterferenceWarning{
			IntfID: intfID,
			OnuID:  onuID,
			Status: d.status(fieldStatus),
			Drift:  d.uint32(fieldDrift),
		}
	case indication.KindOnuActivationFailure:
		ind = &indication.OnuActivationFailure{IntfID: intfID, OnuID: onuID}
	case indication.KindOnuProcessingError:
		ind = &indication.OnuProcessingError{IntfID: intfID, OnuID: onuID}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	if d.err != nil {
		return nil, d.err
	}

	return ind, nil
}

// EncodeIndication converts a typed indication into its wire message.
// StatusOther fields are omitted.
func EncodeIndication(ind indication.Indication) (*structpb.Struct, error) {
	if ind == nil {
		return nil, fmt.Errorf("%w: empty indication", ErrMalformed)
	}

	fields := map[string]any{fieldKind: ind.Kind().String()}

	switch v := ind.(type) {
	case *indication.OltLos:
		fields[fieldIntfID] = v.IntfID
		putStatus(fields, fieldStatus, v.Status)
	case *indication.DyingGasp:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
	case *indication.OnuAlarm:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldLosStatus, v.LosStatus)
		putStatus(fields, fieldLobStatus, v.LobStatus)
		putStatus(fields, fieldLopcMissStatus, v.LopcMissStatus)
		putStatus(fields, fieldLopcMicErrorStatus, v.LopcMicErrorStatus)
	case *indication.OnuStartupFailure:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
	case *indication.OnuSignalDegrade:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
		fields[fieldInverseBitErrorRate] = v.InverseBitErrorRate
	case *indication.OnuDriftOfWindow:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
		fields[fieldDrift] = v.Drift
		fields[fieldNewEqd] = v.NewEqd
	case *indication.OnuLossOfOmciChannel:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
	case *indication.OnuSignalsFailure:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
		fields[fieldInverseBitErrorRate] = v.InverseBitErrorRate
	case *indication.OnuTransmissionInterferenceWarning:
		putIDs(fields, v.IntfID, v.OnuID)
		putStatus(fields, fieldStatus, v.Status)
		fields[fieldDrift] = v.Drift
	case *indication.OnuActivationFailure:
		putIDs(fields, v.IntfID, v.OnuID)
	case *indication.OnuProcessingError:
		putIDs(fields, v.IntfID, v.OnuID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, ind.Kind())
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode indication: %w", err)
	}

	return msg, nil
}

// EncodeEvent converts an emitted alarm into its wire message.
func EncodeEvent(ev emitter.Event) (*structpb.Struct, error) {
	if ev.Alarm == nil {
		return nil, fmt.Errorf("%w: event without alarm", ErrMalformed)
	}

	a := ev.Alarm
	fields := map[string]any{
		fieldID:              ev.ID,
		fieldKind:            a.Kind.String(),
		fieldDecision:        a.Decision.String(),
		fieldIntfID:          a.InterfaceID,
		fieldOltDeviceID:     ev.Source.DeviceID,
		fieldLogicalDeviceID: ev.Source.LogicalDeviceID,
		fieldOltSerialNumber: ev.Source.SerialNumber,
		fieldTimestamp:       ev.Timestamp.Format(time.RFC3339Nano),
	}

	if a.Device.DeviceID != "" {
		fields[fieldDeviceID] = a.Device.DeviceID
		fields[fieldSerialNumber] = a.Device.SerialNumber
	}

	if a.Details.PortTypeName != "" {
		fields[fieldPortTypeName] = a.Details.PortTypeName
	}

	putOptional(fields, fieldOnuID, a.Details.OnuID)
	putOptional(fields, fieldInverseBitErrorRate, a.Details.InverseBitErrorRate)
	putOptional(fields, fieldDrift, a.Details.Drift)
	putOptional(fields, fieldNewEqd, a.Details.NewEqd)

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	return msg, nil
}

// DecodeEvent converts a wire message back into an emitted alarm.
func DecodeEvent(msg *structpb.Struct) (emitter.Event, error) {
	if msg == nil {
		return emitter.Event{}, fmt.Errorf("%w: empty event", ErrMalformed)
	}

	d := &decoder{fields: msg.GetFields()}

	decision, err := parseDecision(d.string(fieldDecision))
	if err != nil {
		return emitter.Event{}, err
	}

	a := &domain.Alarm{
		Kind:        domain.FaultKind(d.string(fieldKind)),
		Decision:    decision,
		InterfaceID: d.uint32(fieldIntfID),
		Device: domain.DeviceIdentity{
			DeviceID:     d.string(fieldDeviceID),
			SerialNumber: d.string(fieldSerialNumber),
		},
		Details: domain.Details{
			PortTypeName:        d.string(fieldPortTypeName),
			OnuID:               d.optionalUint32(fieldOnuID),
			InverseBitErrorRate: d.optionalUint32(fieldInverseBitErrorRate),
			Drift:               d.optionalUint32(fieldDrift),
			NewEqd:              d.optionalUint32(fieldNewEqd),
		},
	}

	ev := emitter.Event{
		ID: d.string(fieldID),
		Source: emitter.Source{
			DeviceID:        d.string(fieldOltDeviceID),
			LogicalDeviceID: d.string(fieldLogicalDeviceID),
			SerialNumber:    d.string(fieldOltSerialNumber),
		},
		Alarm: a,
	}

	if ts := d.string(fieldTimestamp); ts != "" {
		ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return emitter.Event{}, fmt.Errorf("%w: %s: %w", ErrMalformed, fieldTimestamp, err)
		}
	}

	if d.err != nil {
		return emitter.Event{}, d.err
	}

	return ev, nil
}

func parseDecision(s string) (domain.Decision, error) {
	switch s {
	case domain.Raise.String():
		return domain.Raise, nil
	case domain.Clear.String():
		return domain.Clear, nil
	default:
		return domain.NoChange, fmt.Errorf("%w: decision %q", ErrMalformed, s)
	}
}

func putIDs(fields map[string]any, intfID, onuID uint32) {
	fields[fieldIntfID] = intfID
	fields[fieldOnuID] = onuID
}

func putStatus(fields map[string]any, name string, s indication.Status) {
	if s != indication.StatusOther {
		fields[name] = s.String()
	}
}

func putOptional(fields map[string]any, name string, v *uint32) {
	if v != nil {
		fields[name] = *v
	}
}

// decoder reads typed fields from a struct message, keeping the first error.
type decoder struct {
	fields map[string]*structpb.Value
	err    error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
	}
}

func (d *decoder) string(name string) string {
	v, ok := d.fields[name]
	if !ok {
		return ""
	}

	switch x := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return x.StringValue
	case *structpb.Value_NullValue:
		return ""
	default:
		d.fail("%s must be a string", name)

		return ""
	}
}

func (d *decoder) uint32(name string) uint32 {
	if v := d.optionalUint32(name); v != nil {
		return *v
	}

	return 0
}

func (d *decoder) optionalUint32(name string) *uint32 {
	v, ok := d.fields[name]
	if !ok {
		return nil
	}

	switch x := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := x.NumberValue
		if n < 0 || n > math.MaxUint32 || n != math.Trunc(n) {
			d.fail("%s out of range: %v", name, n)

			return nil
		}

		return domain.Uint32(uint32(n))
	case *structpb.Value_NullValue:
		return nil
	default:
		d.fail("%s must be a number", name)

		return nil
	}
}

// status decodes either encoding. Unrecognized values, including
// non-integral numbers and other JSON types, are StatusOther.
func (d *decoder) status(name string) indication.Status {
	v, ok := d.fields[name]
	if !ok {
		return indication.StatusOther
	}

	switch x := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if x.NumberValue != math.Trunc(x.NumberValue) {
			return indication.StatusOther
		}

		return indication.StatusFromInt(int64(x.NumberValue))
	case *structpb.Value_StringValue:
		return indication.StatusFromString(x.StringValue)
	default:
		return indication.StatusOther
	}
}
