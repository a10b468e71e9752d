package platform

// PortType is the physical role of an OLT port.
type PortType int

const (
	// PortUnknown is an interface that matches neither PON nor NNI numbering.
	PortUnknown PortType = iota
	// PortPonOlt is a PON port facing the ONUs.
	PortPonOlt
	// PortEthernetNni is an uplink Ethernet port.
	PortEthernetNni
)

// String returns the port type name used in alarm payloads.
func (t PortType) String() string {
	switch t {
	case PortPonOlt:
		return "PON_OLT"
	case PortEthernetNni:
		return "ETHERNET_NNI"
	default:
		return "UNKNOWN"
	}
}

// Port numbering bases of the OpenOLT platform.
const (
	ponPortBase uint32 = 0x2 << 28
	nniPortBase uint32 = 0x1 << 16

	nniFirstIntf uint32 = 128
	nniLastIntf  uint32 = 132

	// DefaultPonPorts is the number of PON interfaces on a typical OLT board.
	DefaultPonPorts uint32 = 16
)

// Mapper translates transient interface ids into platform port numbers.
type Mapper interface {
	PortNumber(intfID uint32, portType PortType) uint32
	PortTypeName(intfID uint32) string
}

// OpenOLT implements Mapper with the OpenOLT numbering scheme.
type OpenOLT struct {
	// ponPorts is the number of PON interfaces on the device.
	ponPorts uint32
}

// NewOpenOLT returns a mapper for a device with ponPorts PON interfaces.
// Zero selects DefaultPonPorts.
func NewOpenOLT(ponPorts uint32) *OpenOLT {
	if ponPorts == 0 {
		ponPorts = DefaultPonPorts
	}

	return &OpenOLT{ponPorts: ponPorts}
}

// PortNumber returns the logical port number of intfID for the given port type.
// Interfaces of unknown type keep their id as port number.
func (p *OpenOLT) PortNumber(intfID uint32, portType PortType) uint32 {
	switch portType {
	case PortPonOlt:
		return ponPortBase | intfID
	case PortEthernetNni:
		return nniPortBase | intfID
	default:
		return intfID
	}
}

// PortTypeName classifies intfID, accepting both raw interface ids and
// already-encoded PON port numbers.
func (p *OpenOLT) PortTypeName(intfID uint32) string {
	return p.portType(intfID).String()
}

func (p *OpenOLT) portType(intfID uint32) PortType {
	switch {
	case intfID < p.ponPorts, intfID^ponPortBase < p.ponPorts:
		return PortPonOlt
	case intfID >= nniFirstIntf && intfID <= nniLastIntf, intfID&nniPortBase == nniPortBase:
		return PortEthernetNni
	default:
		return PortUnknown
	}
}
