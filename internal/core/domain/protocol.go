package domain

// Protocol is one of the buckets the statistics table counts traffic against.
type Protocol string

const (
	ProtocolEthernetII Protocol = "EthernetII"
	ProtocolARP        Protocol = "ARP"
	ProtocolIP         Protocol = "IP"
	ProtocolTCP        Protocol = "TCP"
	ProtocolUDP        Protocol = "UDP"
	ProtocolICMP       Protocol = "ICMP"
	ProtocolHTTP       Protocol = "HTTP"
)

// AllProtocols enumerates every bucket in declaration order, used when
// initializing the statistics table for a freshly registered interface.
var AllProtocols = []Protocol{
	ProtocolEthernetII,
	ProtocolARP,
	ProtocolIP,
	ProtocolTCP,
	ProtocolUDP,
	ProtocolICMP,
	ProtocolHTTP,
}
