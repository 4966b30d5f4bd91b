// Package domain holds the plain data types shared by the bridge's data plane
// and management plane: hardware addresses, interface records, protocols,
// sessions and the timeout primitive they all use for expiry.
package domain

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
)

// MACLen is the byte length of an Ethernet hardware address.
const MACLen = 6

// ErrInvalidMAC is returned when a string does not parse as six colon-separated hex octets.
var ErrInvalidMAC = errors.New("domain: invalid hardware address")

// MAC is a 48-bit Ethernet hardware address.
type MAC [MACLen]byte

// Broadcast is the all-ones hardware address.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMAC parses six colon-separated hex octets, e.g. "02:00:00:00:00:01".
func ParseMAC(s string) (MAC, error) {
	var mac MAC
	parts := strings.Split(s, ":")
	if len(parts) != MACLen {
		return mac, ErrInvalidMAC
	}
	for i, p := range parts {
		if len(p) != 2 {
			return mac, ErrInvalidMAC
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return mac, ErrInvalidMAC
		}
		mac[i] = b[0]
	}
	return mac, nil
}

// String renders the address as six colon-separated lowercase hex octets.
func (m MAC) String() string {
	var b strings.Builder
	b.Grow(17)
	for i, octet := range m {
		if i > 0 {
			b.WriteByte(':')
		}
		const hexDigits = "0123456789abcdef"
		b.WriteByte(hexDigits[octet>>4])
		b.WriteByte(hexDigits[octet&0x0f])
	}
	return b.String()
}

// Equal reports whether two addresses are byte-identical.
func (m MAC) Equal(other MAC) bool {
	return bytes.Equal(m[:], other[:])
}

// Less gives MAC a total order for use as a map/sort key tie-breaker.
func (m MAC) Less(other MAC) bool {
	return bytes.Compare(m[:], other[:]) < 0
}

// IsBroadcast reports whether this is the all-ones address.
func (m MAC) IsBroadcast() bool {
	return m.Equal(Broadcast)
}

// IsMulticast reports whether the low bit of the first octet (the
// group/individual bit) is set.
func (m MAC) IsMulticast() bool {
	return m[0]&0x01 == 1
}
