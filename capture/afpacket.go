package capture

import (
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// afpacketSource reads from a TPacket v3 mmap ring. Linux only.
type afpacketSource struct {
	tp *afpacket.TPacket
}

const mmapBufferSizeMb = 16

// OpenAfpacket opens an AF_PACKET ring on device with the given BPF
// filter applied. Pass "any" to listen on all interfaces.
func OpenAfpacket(device string, filter string) (Source, error) {
	szFrame, szBlock, numBlocks, err := afpacketComputeSize(mmapBufferSizeMb, snaplen, os.Getpagesize())
	if err != nil {
		return nil, err
	}

	opts := []interface{}{
		afpacket.OptFrameSize(szFrame),
		afpacket.OptBlockSize(szBlock),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(pcap.BlockForever),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	}
	if device != "any" {
		opts = append(opts, afpacket.OptInterface(device))
	}

	tp, err := afpacket.NewTPacket(opts...)
	if err != nil {
		return nil, err
	}

	s := &afpacketSource{tp: tp}
	if err = s.setBPFFilter(filter); err != nil {
		tp.Close()
		return nil, err
	}
	return s, nil
}

func (s *afpacketSource) ZeroCopyReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return s.tp.ZeroCopyReadPacketData()
}

// setBPFFilter compiles a pcap filter string into raw BPF instructions
// and applies them to the ring socket.
func (s *afpacketSource) setBPFFilter(filter string) error {
	pcapBPF, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snaplen, filter)
	if err != nil {
		return err
	}
	var bpfIns []bpf.RawInstruction
	for _, ins := range pcapBPF {
		bpfIns = append(bpfIns, bpf.RawInstruction{
			Op: ins.Code,
			Jt: ins.Jt,
			Jf: ins.Jf,
			K:  ins.K,
		})
	}
	return s.tp.SetBPF(bpfIns)
}

func (s *afpacketSource) LinkType() layers.LinkType {
	return layers.LinkTypeEthernet
}

func (s *afpacketSource) Close() {
	s.tp.Close()
}

// afpacketComputeSize picks block size and count so the mmap buffer
// stays close to but under targetSizeMb. The block size must be
// divisible by both the frame size and the page size.
func afpacketComputeSize(targetSizeMb int, snaplen int, pageSize int) (
	frameSize int, blockSize int, numBlocks int, err error) {

	if snaplen < pageSize {
		frameSize = pageSize / (pageSize / snaplen)
	} else {
		frameSize = (snaplen/pageSize + 1) * pageSize
	}

	// 128 is the default from the gopacket library so just use that
	blockSize = frameSize * 128
	numBlocks = (targetSizeMb * 1024 * 1024) / blockSize

	if numBlocks == 0 {
		return 0, 0, 0, fmt.Errorf("interface buffersize is too small")
	}

	return frameSize, blockSize, numBlocks, nil
}
