package captureloop

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

// classify decodes an already-parsed packet and returns every protocol bucket
// it counts against, in AllProtocols order. EthernetII is always present,
// since a frame only reaches this point after decoding as one.
func classify(packet gopacket.Packet) []domain.Protocol {
	protocols := []domain.Protocol{domain.ProtocolEthernetII}

	if packet.Layer(layers.LayerTypeARP) != nil {
		protocols = append(protocols, domain.ProtocolARP)
	}
	if packet.Layer(layers.LayerTypeIPv4) != nil {
		protocols = append(protocols, domain.ProtocolIP)
	}

	var tcp *layers.TCP
	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		if t, ok := tcpLayer.(*layers.TCP); ok {
			tcp = t
			protocols = append(protocols, domain.ProtocolTCP)
		}
	}
	if packet.Layer(layers.LayerTypeUDP) != nil {
		protocols = append(protocols, domain.ProtocolUDP)
	}
	if packet.Layer(layers.LayerTypeICMPv4) != nil {
		protocols = append(protocols, domain.ProtocolICMP)
	}

	if tcp != nil && isHTTPPort(tcp.SrcPort, tcp.DstPort) {
		protocols = append(protocols, domain.ProtocolHTTP)
	}

	return protocols
}

func isHTTPPort(a, b layers.TCPPort) bool {
	for _, p := range []layers.TCPPort{80, 443, 8080} {
		if a == p || b == p {
			return true
		}
	}
	return false
}

// decodeEthernet returns the EthernetII header of frame, or ok=false if the
// bytes do not parse as one.
func decodeEthernet(frame []byte) (packet gopacket.Packet, eth *layers.Ethernet, ok bool) {
	packet = gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)
	layer := packet.Layer(layers.LayerTypeEthernet)
	if layer == nil {
		return packet, nil, false
	}
	eth, ok = layer.(*layers.Ethernet)
	if !ok || eth == nil {
		return packet, nil, false
	}
	return packet, eth, true
}

func macFromHardwareAddr(hw []byte) (domain.MAC, bool) {
	var mac domain.MAC
	if len(hw) != domain.MACLen {
		return mac, false
	}
	copy(mac[:], hw)
	return mac, true
}
