package emitter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/logger"
)

var testSource = Source{DeviceID: "olt-1", LogicalDeviceID: "ld-1", SerialNumber: "EC1900000001"}

// countingEmitter records how many times each method was called.
type countingEmitter struct {
	mu      sync.Mutex
	raised  int
	cleared int
}

func (c *countingEmitter) Raise(context.Context, *domain.Alarm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raised++
}

func (c *countingEmitter) Clear(context.Context, *domain.Alarm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
}

// TestNewEvent_ID checks that raise and clear for the same tuple share an id.
func TestNewEvent_ID(t *testing.T) {
	t.Parallel()

	raise := &domain.Alarm{
		Kind:        domain.OnuLos,
		Decision:    domain.Raise,
		InterfaceID: 1,
		Device:      domain.DeviceIdentity{DeviceID: "onu-1", SerialNumber: "SN1"},
	}
	cleared := raise.Clone()
	cleared.Decision = domain.Clear

	require.Equal(t, "olt-1.ONU_LOS.1.onu-1", NewEvent(testSource, raise).ID)
	require.Equal(t, NewEvent(testSource, raise).ID, NewEvent(testSource, cleared).ID)

	olt := NewEvent(testSource, &domain.Alarm{Kind: domain.OltLos, InterfaceID: 0})
	require.Equal(t, "olt-1.OLT_LOS.0.olt", olt.ID)
	require.False(t, olt.Timestamp.IsZero())
}

// TestMulti_FansOut verifies each emitter receives every call and nils are skipped.
func TestMulti_FansOut(t *testing.T) {
	t.Parallel()

	a, b := new(countingEmitter), new(countingEmitter)
	m := NewMulti(a, nil, b)

	alarm := &domain.Alarm{Kind: domain.OltLos}
	m.Raise(context.Background(), alarm)
	m.Clear(context.Background(), alarm)
	m.Clear(context.Background(), alarm)

	for _, e := range []*countingEmitter{a, b} {
		require.Equal(t, 1, e.raised)
		require.Equal(t, 2, e.cleared)
	}
}

// TestLog_Fields verifies the structured fields written for an ONU alarm.
func TestLog_Fields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	NewLog(testSource).Raise(ctx, &domain.Alarm{
		Kind:        domain.OnuSignalDegrade,
		Decision:    domain.Raise,
		InterfaceID: 2,
		Device:      domain.DeviceIdentity{DeviceID: "onu-9", SerialNumber: "SN9"},
		Details: domain.Details{
			OnuID:               domain.Uint32(9),
			InverseBitErrorRate: domain.Uint32(1000),
		},
	})
	NewLog(testSource).Clear(ctx, &domain.Alarm{Kind: domain.OltLos, Details: domain.Details{PortTypeName: "PON_OLT"}})

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "Alarm raised", entries[0].Message)
	require.Equal(t, "Alarm cleared", entries[1].Message)

	raised := entries[0].ContextMap()
	require.Equal(t, "onu-9", raised["onu_device_id"])
	require.EqualValues(t, 1000, raised["inverse_bit_error_rate"])
	require.NotContains(t, raised, "drift")

	cleared := entries[1].ContextMap()
	require.Equal(t, "PON_OLT", cleared["port_type_name"])
	require.NotContains(t, cleared, "onu_device_id")
}

// TestBroadcaster_Delivers checks delivery, the full-queue drop and unsubscribe.
func TestBroadcaster_Delivers(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(testSource, 1)
	events, cancel := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	alarm := &domain.Alarm{Kind: domain.OnuDyingGasp, Decision: domain.Raise, InterfaceID: 4}
	b.Raise(context.Background(), alarm)
	b.Clear(context.Background(), alarm) // Dropped: buffer holds one event.

	got := <-events
	require.Equal(t, domain.OnuDyingGasp, got.Alarm.Kind)
	require.Equal(t, testSource, got.Source)
	require.NotSame(t, alarm, got.Alarm)

	select {
	case extra := <-events:
		t.Fatalf("unexpected event %v", extra)
	default:
	}

	cancel()
	cancel()
	require.Zero(t, b.Subscribers())

	_, open := <-events
	require.False(t, open)

	// Publishing without subscribers is a no-op.
	b.Raise(context.Background(), alarm)
}

// TestBroadcaster_Close ends live subscriptions and rejects new ones.
func TestBroadcaster_Close(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(testSource, 0)
	events, cancel := b.Subscribe()

	b.Close()
	require.Zero(t, b.Subscribers())

	_, open := <-events
	require.False(t, open)

	// Unsubscribing after Close must not close the channel twice.
	require.NotPanics(t, cancel)

	late, lateCancel := b.Subscribe()
	_, open = <-late
	require.False(t, open)
	require.NotPanics(t, lateCancel)
	require.Zero(t, b.Subscribers())
}
