package alarms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/platform"
	"github.com/oshokin/olt-alarms/internal/repository/registry"
)

// TestResolver_Found returns the registry identity and uses the PON port number.
func TestResolver_Found(t *testing.T) {
	t.Parallel()

	var gotParent string

	var gotPort, gotOnu uint32

	r := NewResolver(testOltID, &stubRegistry{
		lookup: func(parentID string, portNo, onuID uint32) (*registry.Device, error) {
			gotParent, gotPort, gotOnu = parentID, portNo, onuID

			return &registry.Device{ID: "onu-7", SerialNumber: "ALCL00000007"}, nil
		},
	}, platform.NewOpenOLT(0))

	id, err := r.Resolve(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Equal(t, domain.DeviceIdentity{DeviceID: "onu-7", SerialNumber: "ALCL00000007"}, id)
	require.Equal(t, testOltID, gotParent)
	require.Equal(t, uint32(0x20000003), gotPort)
	require.Equal(t, uint32(7), gotOnu)
}

// TestResolver_Failures always yields the sentinel identity and never panics.
func TestResolver_Failures(t *testing.T) {
	t.Parallel()

	cases := map[string]func(string, uint32, uint32) (*registry.Device, error){
		"not found": func(string, uint32, uint32) (*registry.Device, error) {
			return nil, registry.ErrNotFound
		},
		"registry error": func(string, uint32, uint32) (*registry.Device, error) {
			return nil, errRegistryDown
		},
		"nil device": func(string, uint32, uint32) (*registry.Device, error) {
			return nil, nil //nolint:nilnil // Misbehaving registry under test.
		},
		"panic": func(string, uint32, uint32) (*registry.Device, error) {
			panic("registry corrupted")
		},
	}

	for name, lookup := range cases {
		r := NewResolver(testOltID, &stubRegistry{lookup: lookup}, platform.NewOpenOLT(0))

		var (
			id  domain.DeviceIdentity
			err error
		)

		require.NotPanics(t, func() {
			id, err = r.Resolve(context.Background(), 1, 0)
		}, name)
		require.Error(t, err, name)
		require.Equal(t, "unresolved", id.DeviceID, name)
		require.Equal(t, "unresolved", id.SerialNumber, name)
	}
}

// TestResolver_PartialDevice keeps the sentinel for empty registry fields.
func TestResolver_PartialDevice(t *testing.T) {
	t.Parallel()

	r := NewResolver(testOltID, &stubRegistry{
		lookup: func(string, uint32, uint32) (*registry.Device, error) {
			return &registry.Device{ID: "onu-3"}, nil
		},
	}, platform.NewOpenOLT(0))

	id, err := r.Resolve(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Equal(t, "onu-3", id.DeviceID)
	require.Equal(t, domain.Unresolved, id.SerialNumber)
}

// TestHandler_UnresolvedIdentityStillEmits keeps processing when the ONU is unknown.
func TestHandler_UnresolvedIdentityStillEmits(t *testing.T) {
	t.Parallel()

	m, em := newTestManager(t)

	require.NoError(t, m.HandleDyingGasp(context.Background(), &indication.DyingGasp{OnuID: 99, Status: indication.StatusOn}))

	calls := em.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, domain.UnresolvedIdentity(), calls[0].Device)
	require.Equal(t, domain.Raise, calls[0].Decision)
}
