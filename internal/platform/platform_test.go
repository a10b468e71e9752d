package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOpenOLT_PortNumber checks PON and NNI encodings.
func TestOpenOLT_PortNumber(t *testing.T) {
	t.Parallel()

	m := NewOpenOLT(0)

	require.Equal(t, uint32(0x20000003), m.PortNumber(3, PortPonOlt))
	require.Equal(t, uint32(0x10080), m.PortNumber(128, PortEthernetNni))
	require.Equal(t, uint32(42), m.PortNumber(42, PortUnknown))
}

// TestOpenOLT_PortTypeName covers raw ids, encoded port numbers and unknown ids.
func TestOpenOLT_PortTypeName(t *testing.T) {
	t.Parallel()

	m := NewOpenOLT(8)

	cases := map[uint32]string{
		0:          "PON_OLT",
		7:          "PON_OLT",
		0x20000005: "PON_OLT",
		128:        "ETHERNET_NNI",
		132:        "ETHERNET_NNI",
		0x10081:    "ETHERNET_NNI",
		8:          "UNKNOWN",
		64:         "UNKNOWN",
	}
	for intfID, want := range cases {
		require.Equal(t, want, m.PortTypeName(intfID), "intf %d", intfID)
	}
}
