package alarm

// Unresolved is the placeholder used for identity fields that could not be
// looked up in the device registry.
const Unresolved = "unresolved"

// FaultKind names the alarm category an emission belongs to.
type FaultKind string

// Fault kinds raised or cleared by the OLT alarm manager.
const (
	OltLos            FaultKind = "OLT_LOS"
	OnuDyingGasp      FaultKind = "ONU_DYING_GASP"
	OnuLos            FaultKind = "ONU_LOS"
	OnuLob            FaultKind = "ONU_LOB"
	OnuLopcMiss       FaultKind = "ONU_LOPC_MISS"
	OnuLopcMicError   FaultKind = "ONU_LOPC_MIC_ERROR"
	OnuStartupFailure FaultKind = "ONU_STARTUP_FAILURE"
	OnuSignalDegrade  FaultKind = "ONU_SIGNAL_DEGRADE"
	OnuWindowDrift    FaultKind = "ONU_WINDOW_DRIFT"
	OnuSignalFail     FaultKind = "ONU_SIGNAL_FAIL"
	OnuActivationFail FaultKind = "ONU_ACTIVATION_FAIL"
)

// String implements fmt.Stringer.
func (k FaultKind) String() string {
	return string(k)
}

// Decision is the lifecycle transition derived from an indication status.
type Decision int

const (
	// NoChange means the status encoding was not recognized; nothing is emitted.
	NoChange Decision = iota
	// Raise means the condition became active.
	Raise
	// Clear means the condition became inactive.
	Clear
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Raise:
		return "raise"
	case Clear:
		return "clear"
	default:
		return "no-change"
	}
}

// DeviceIdentity is the durable identity of an ONU resolved from its
// interface and device-local id.
type DeviceIdentity struct {
	// DeviceID is the registry id of the child device.
	DeviceID string
	// SerialNumber is the vendor serial of the child device.
	SerialNumber string
}

// UnresolvedIdentity returns the sentinel identity used when resolution fails.
func UnresolvedIdentity() DeviceIdentity {
	return DeviceIdentity{
		DeviceID:     Unresolved,
		SerialNumber: Unresolved,
	}
}

// IsResolved reports whether the identity came from the registry.
func (i DeviceIdentity) IsResolved() bool {
	return i.DeviceID != Unresolved
}

// Details carries the kind-specific payload attached to an alarm.
// Only the fields relevant to the alarm's FaultKind are set.
type Details struct {
	// PortTypeName is the platform port type of the interface (OLT LOS only).
	PortTypeName string
	// OnuID is the device-local ONU id as reported by the OLT.
	OnuID *uint32
	// InverseBitErrorRate accompanies signal degrade and signal fail alarms.
	InverseBitErrorRate *uint32
	// Drift and NewEqd accompany window drift alarms.
	Drift  *uint32
	NewEqd *uint32
}

// Alarm is a single raise or clear request handed to an emitter.
type Alarm struct {
	// Kind is the fault category.
	Kind FaultKind
	// Decision is either Raise or Clear.
	Decision Decision
	// InterfaceID is the OLT interface the indication arrived on.
	InterfaceID uint32
	// Device is the resolved identity of the affected ONU; zero for OLT-level alarms.
	Device DeviceIdentity
	// Details holds the kind-specific payload.
	Details Details
}

// Clone returns a copy that does not share payload pointers with the original.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.Details = Details{
		PortTypeName:        a.Details.PortTypeName,
		OnuID:               cloneUint32(a.Details.OnuID),
		InverseBitErrorRate: cloneUint32(a.Details.InverseBitErrorRate),
		Drift:               cloneUint32(a.Details.Drift),
		NewEqd:              cloneUint32(a.Details.NewEqd),
	}

	return &cloned
}

// Uint32 returns a pointer to v, for filling optional Details fields.
func Uint32(v uint32) *uint32 {
	return &v
}

func cloneUint32(v *uint32) *uint32 {
	if v == nil {
		return nil
	}

	return Uint32(*v)
}
