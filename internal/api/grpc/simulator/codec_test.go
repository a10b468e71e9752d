package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
)

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()

	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)

	return msg
}

// TestDecodeIndication_StatusEncodings accepts both integer and string statuses.
func TestDecodeIndication_StatusEncodings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status any
		want   indication.Status
	}{
		{status: 1, want: indication.StatusOn},
		{status: 0, want: indication.StatusOff},
		{status: 2, want: indication.StatusOther},
		{status: 1.5, want: indication.StatusOther},
		{status: "on", want: indication.StatusOn},
		{status: "off", want: indication.StatusOff},
		{status: "ON", want: indication.StatusOther},
		{status: "", want: indication.StatusOther},
		{status: true, want: indication.StatusOther},
	}

	for _, tc := range cases {
		ind, err := DecodeIndication(mustStruct(t, map[string]any{
			"kind":    "dying_gasp_ind",
			"intf_id": 1,
			"onu_id":  4,
			"status":  tc.status,
		}))
		require.NoError(t, err)

		gasp, ok := ind.(*indication.DyingGasp)
		require.True(t, ok)
		require.Equal(t, tc.want, gasp.Status, "%v", tc.status)
		require.Equal(t, uint32(1), gasp.IntfID)
		require.Equal(t, uint32(4), gasp.OnuID)
	}

	// A missing status is StatusOther.
	ind, err := DecodeIndication(mustStruct(t, map[string]any{"kind": "los_ind", "intf_id": 2}))
	require.NoError(t, err)
	require.Equal(t, &indication.OltLos{IntfID: 2, Status: indication.StatusOther}, ind)
}

// TestDecodeIndication_Errors rejects unknown kinds and malformed identifiers.
func TestDecodeIndication_Errors(t *testing.T) {
	t.Parallel()

	_, err := DecodeIndication(nil)
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeIndication(mustStruct(t, map[string]any{"intf_id": 1}))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeIndication(mustStruct(t, map[string]any{"kind": "port_stats"}))
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = DecodeIndication(mustStruct(t, map[string]any{"kind": "los_ind", "intf_id": -1}))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeIndication(mustStruct(t, map[string]any{"kind": "dying_gasp_ind", "onu_id": "seven"}))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeIndication(mustStruct(t, map[string]any{"kind": "los_ind", "intf_id": 1.25}))
	require.ErrorIs(t, err, ErrMalformed)
}

// TestIndicationRoundtrip encodes every kind and decodes it back unchanged.
func TestIndicationRoundtrip(t *testing.T) {
	t.Parallel()

	for _, ind := range []indication.Indication{
		&indication.OltLos{IntfID: 3, Status: indication.StatusOn},
		&indication.DyingGasp{IntfID: 1, OnuID: 2, Status: indication.StatusOff},
		&indication.OnuAlarm{
			IntfID:             1,
			OnuID:              2,
			LosStatus:          indication.StatusOn,
			LobStatus:          indication.StatusOff,
			LopcMissStatus:     indication.StatusOther,
			LopcMicErrorStatus: indication.StatusOn,
		},
		&indication.OnuStartupFailure{IntfID: 1, OnuID: 2, Status: indication.StatusOn},
		&indication.OnuSignalDegrade{IntfID: 1, OnuID: 2, Status: indication.StatusOn, InverseBitErrorRate: 100000},
		&indication.OnuDriftOfWindow{IntfID: 1, OnuID: 2, Status: indication.StatusOff, Drift: 12, NewEqd: 345},
		&indication.OnuLossOfOmciChannel{IntfID: 1, OnuID: 2, Status: indication.StatusOn},
		&indication.OnuSignalsFailure{IntfID: 1, OnuID: 2, Status: indication.StatusOn, InverseBitErrorRate: 1000},
		&indication.OnuTransmissionInterferenceWarning{IntfID: 1, OnuID: 2, Status: indication.StatusOn, Drift: 9},
		&indication.OnuActivationFailure{IntfID: 1, OnuID: 2},
		&indication.OnuProcessingError{IntfID: 1, OnuID: 2},
	} {
		msg, err := EncodeIndication(ind)
		require.NoError(t, err, ind.Kind().String())

		decoded, err := DecodeIndication(msg)
		require.NoError(t, err, ind.Kind().String())
		require.Equal(t, ind, decoded)
	}
}

// TestEventRoundtrip keeps optional details absent when unset.
func TestEventRoundtrip(t *testing.T) {
	t.Parallel()

	source := emitter.Source{DeviceID: "olt-1", LogicalDeviceID: "ld-1", SerialNumber: "EC1900000001"}

	onu := emitter.NewEvent(source, &domain.Alarm{
		Kind:        domain.OnuSignalDegrade,
		Decision:    domain.Raise,
		InterfaceID: 2,
		Device:      domain.DeviceIdentity{DeviceID: "onu-5", SerialNumber: "BRCM00000005"},
		Details: domain.Details{
			OnuID:               domain.Uint32(5),
			InverseBitErrorRate: domain.Uint32(100000),
		},
	})

	msg, err := EncodeEvent(onu)
	require.NoError(t, err)

	decoded, err := DecodeEvent(msg)
	require.NoError(t, err)
	require.Equal(t, onu.ID, decoded.ID)
	require.Equal(t, onu.Source, decoded.Source)
	require.Equal(t, onu.Alarm, decoded.Alarm)
	require.True(t, onu.Timestamp.Equal(decoded.Timestamp))

	olt := emitter.NewEvent(source, &domain.Alarm{
		Kind:        domain.OltLos,
		Decision:    domain.Clear,
		InterfaceID: 130,
		Details:     domain.Details{PortTypeName: "ETHERNET_NNI"},
	})

	msg, err = EncodeEvent(olt)
	require.NoError(t, err)
	require.NotContains(t, msg.GetFields(), "device_id")
	require.NotContains(t, msg.GetFields(), "onu_id")

	decoded, err = DecodeEvent(msg)
	require.NoError(t, err)
	require.Equal(t, olt.Alarm, decoded.Alarm)
	require.WithinDuration(t, olt.Timestamp, decoded.Timestamp, time.Microsecond)
}

// TestDecodeEvent_Errors rejects unknown decisions and bad timestamps.
func TestDecodeEvent_Errors(t *testing.T) {
	t.Parallel()

	_, err := DecodeEvent(nil)
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeEvent(mustStruct(t, map[string]any{"kind": "OLT_LOS", "decision": "no-change"}))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeEvent(mustStruct(t, map[string]any{"kind": "OLT_LOS", "decision": "raise", "timestamp": "yesterday"}))
	require.ErrorIs(t, err, ErrMalformed)
}
