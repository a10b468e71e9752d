package alarms

import (
	"context"
	"fmt"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/platform"
	"github.com/oshokin/olt-alarms/internal/repository/registry"
)

// Resolver turns an (interface, ONU id) pair into a durable device identity.
type Resolver struct {
	// parentID is the OLT device the ONUs are children of.
	parentID string
	registry registry.Registry
	mapper   platform.Mapper
}

// NewResolver creates a resolver for children of parentID.
func NewResolver(parentID string, reg registry.Registry, mapper platform.Mapper) *Resolver {
	return &Resolver{
		parentID: parentID,
		registry: reg,
		mapper:   mapper,
	}
}

// Resolve looks the ONU up once in the registry.
// The returned identity is always usable: on failure it is the
// "unresolved" sentinel and the error explains why.
func (r *Resolver) Resolve(ctx context.Context, onuID, intfID uint32) (id domain.DeviceIdentity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			id = domain.UnresolvedIdentity()
			err = fmt.Errorf("resolve onu %d on intf %d: registry panicked: %v", onuID, intfID, rec)
		}
	}()

	portNo := r.mapper.PortNumber(intfID, platform.PortPonOlt)

	device, err := r.registry.LookupChildDevice(ctx, r.parentID, portNo, onuID)
	if err != nil {
		return domain.UnresolvedIdentity(), fmt.Errorf("resolve onu %d on intf %d: %w", onuID, intfID, err)
	}

	if device == nil {
		return domain.UnresolvedIdentity(), fmt.Errorf("resolve onu %d on intf %d: %w", onuID, intfID, registry.ErrNotFound)
	}

	id = domain.UnresolvedIdentity()

	if device.ID != "" {
		id.DeviceID = device.ID
	}

	if device.SerialNumber != "" {
		id.SerialNumber = device.SerialNumber
	}

	return id, nil
}
