package capture

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Source is a live packet source: pcap or an AF_PACKET ring. Both
// deliver zero-copy reads and report their link type for picking the
// first decode layer.
type Source interface {
	gopacket.ZeroCopyPacketDataSource
	LinkType() layers.LinkType
	Close()
}

const snaplen = 65536

// OpenPcap opens a promiscuous pcap handle on device with the given
// BPF filter applied.
func OpenPcap(device string, filter string) (Source, error) {
	handle, err := pcap.OpenLive(device, snaplen, true, pcap.BlockForever)
	if err != nil {
		return nil, err
	}
	if err = handle.SetBPFFilter(filter); err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}
