package alarms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/platform"
	"github.com/oshokin/olt-alarms/internal/repository/registry"
)

const testOltID = "olt-1"

var errRegistryDown = errors.New("registry down")

// recordingEmitter keeps every call in order.
type recordingEmitter struct {
	mu    sync.Mutex
	calls []*domain.Alarm
	// panicOn makes Raise panic for the given kind.
	panicOn domain.FaultKind
}

func (r *recordingEmitter) Raise(_ context.Context, a *domain.Alarm) {
	if r.panicOn != "" && a.Kind == r.panicOn {
		panic("emitter exploded")
	}

	r.record(a)
}

func (r *recordingEmitter) Clear(_ context.Context, a *domain.Alarm) {
	r.record(a)
}

func (r *recordingEmitter) record(a *domain.Alarm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, a.Clone())
}

func (r *recordingEmitter) Calls() []*domain.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*domain.Alarm(nil), r.calls...)
}

// decisions returns "KIND:decision" strings for compact sequence assertions.
func (r *recordingEmitter) decisions() []string {
	calls := r.Calls()
	result := make([]string, 0, len(calls))

	for _, c := range calls {
		result = append(result, c.Kind.String()+":"+c.Decision.String())
	}

	return result
}

// stubRegistry answers lookups from a function.
type stubRegistry struct {
	lookup func(parentID string, portNo, onuID uint32) (*registry.Device, error)
}

func (s *stubRegistry) LookupChildDevice(
	_ context.Context,
	parentID string,
	portNo, onuID uint32,
) (*registry.Device, error) {
	return s.lookup(parentID, portNo, onuID)
}

// fakeIndication reports an arbitrary kind without a matching payload type.
type fakeIndication struct {
	kind indication.Kind
}

func (f fakeIndication) Kind() indication.Kind { return f.kind }

// testRegistry knows ONU 1 on PON interface 0 and ONU 5 on interface 2.
func testRegistry(t *testing.T) *registry.MemoryRegistry {
	t.Helper()

	mapper := platform.NewOpenOLT(0)

	reg, err := registry.NewMemoryRegistry(
		registry.Device{
			ID:           "onu-1",
			SerialNumber: "BRCM00000001",
			ParentID:     testOltID,
			ParentPortNo: mapper.PortNumber(0, platform.PortPonOlt),
			OnuID:        1,
		},
		registry.Device{
			ID:           "onu-5",
			SerialNumber: "BRCM00000005",
			ParentID:     testOltID,
			ParentPortNo: mapper.PortNumber(2, platform.PortPonOlt),
			OnuID:        5,
		},
	)
	require.NoError(t, err)

	return reg
}

// newTestManager builds a manager over testRegistry and a recording emitter.
func newTestManager(t *testing.T, opts ...Option) (*Manager, *recordingEmitter) {
	t.Helper()

	em := new(recordingEmitter)

	m, err := NewManager(testOltID, testRegistry(t), platform.NewOpenOLT(0), em, opts...)
	require.NoError(t, err)

	return m, em
}

// observedContext returns a context whose logger records entries at lvl and above.
func observedContext(lvl zapcore.Level) (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(lvl)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}
