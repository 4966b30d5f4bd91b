package domain

import "fmt"

// InterfaceID identifies a bound interface by its operating-system name plus
// its own hardware address; the pair is what makes the identity opaque but
// stable across a restart that reuses the same device.
type InterfaceID struct {
	OSName  string
	Address MAC
}

// String renders the identity for logs and map keys.
func (id InterfaceID) String() string {
	return fmt.Sprintf("%s(%s)", id.OSName, id.Address)
}

// Control is the running/finished pair that tracks a capture loop's lifecycle.
type Control struct {
	Running  bool
	Finished bool
}

// InterfaceRecord is the mutable state the management plane exposes for a
// bound interface: a display name, an admin up/down flag, and the capture
// loop's control pair.
type InterfaceRecord struct {
	ID      InterfaceID
	Name    string
	Up      bool
	Control Control
}

// wirelessPrefixes lists OS interface-name prefixes treated as wireless for
// the jumbo-frame drop rule in the capture loop.
var wirelessPrefixes = []string{"wlo", "wlan", "wl"}

// IsWireless reports whether the interface's OS name looks like a wireless
// adapter, based on well-known Linux naming prefixes.
func (id InterfaceID) IsWireless() bool {
	for _, p := range wirelessPrefixes {
		if len(id.OSName) >= len(p) && id.OSName[:len(p)] == p {
			return true
		}
	}
	return false
}
