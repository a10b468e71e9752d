package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Device is a child device (ONU) known to the registry.
type Device struct {
	// ID is the durable device id.
	ID string `yaml:"id"`
	// SerialNumber is the vendor serial number.
	SerialNumber string `yaml:"serial_number"`
	// ParentID is the id of the OLT the device hangs off.
	ParentID string `yaml:"parent_id"`
	// ParentPortNo is the OLT PON port number the device is attached to.
	ParentPortNo uint32 `yaml:"parent_port_no"`
	// OnuID is the device-local id assigned on that port.
	OnuID uint32 `yaml:"onu_id"`
}

// Registry resolves child devices by their position under a parent device.
type Registry interface {
	LookupChildDevice(ctx context.Context, parentID string, parentPortNo, onuID uint32) (*Device, error)
}

var (
	// ErrNotFound is returned when no child device matches the lookup.
	ErrNotFound = errors.New("child device not found")
	// errInvalidDevice is returned when a device misses its id or parent id.
	errInvalidDevice = errors.New("device id and parent id are required")
)

type childKey struct {
	parentID string
	portNo   uint32
	onuID    uint32
}

// MemoryRegistry keeps child devices in memory.
type MemoryRegistry struct {
	// devices is indexed by parent, port and device-local id.
	devices map[childKey]Device
	// mu protects devices.
	mu sync.RWMutex
}

// NewMemoryRegistry creates a registry populated with the given devices.
func NewMemoryRegistry(devices ...Device) (*MemoryRegistry, error) {
	r := &MemoryRegistry{
		devices: make(map[childKey]Device, len(devices)),
	}

	for _, d := range devices {
		if err := r.Put(d); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Put adds or replaces a device.
func (r *MemoryRegistry) Put(d Device) error {
	if d.ID == "" || d.ParentID == "" {
		return fmt.Errorf("put device %q: %w", d.ID, errInvalidDevice)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices[childKey{parentID: d.ParentID, portNo: d.ParentPortNo, onuID: d.OnuID}] = d

	return nil
}

// Delete removes the device at the given position, if any.
func (r *MemoryRegistry) Delete(parentID string, parentPortNo, onuID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.devices, childKey{parentID: parentID, portNo: parentPortNo, onuID: onuID})
}

// LookupChildDevice returns a copy of the matching device or ErrNotFound.
func (r *MemoryRegistry) LookupChildDevice(
	_ context.Context,
	parentID string,
	parentPortNo, onuID uint32,
) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[childKey{parentID: parentID, portNo: parentPortNo, onuID: onuID}]
	if !ok {
		return nil, ErrNotFound
	}

	return &d, nil
}

// Devices returns all devices ordered by parent, port and device-local id.
func (r *MemoryRegistry) Devices() []Device {
	r.mu.RLock()
	result := make([]Device, 0, len(r.devices))

	for _, d := range r.devices {
		result = append(result, d)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.ParentID != b.ParentID {
			return a.ParentID < b.ParentID
		}

		if a.ParentPortNo != b.ParentPortNo {
			return a.ParentPortNo < b.ParentPortNo
		}

		return a.OnuID < b.OnuID
	})

	return result
}
