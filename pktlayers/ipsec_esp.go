package pktlayers

import (
	"encoding/binary"
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/strangebit-io/hipsec/ipsec"
)

// IPSecESP is the gopacket view of the legacy ESP framing: bare
// SPI+sequence header, everything after it opaque.
type IPSecESP struct {
	layers.BaseLayer
	SPI, Seq  uint32
	Encrypted []byte
}

func (i *IPSecESP) LayerType() gopacket.LayerType { return layers.LayerTypeIPSecESP }

func (i *IPSecESP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < ipsec.ESPHeaderLength {
		df.SetTruncated()
		return errors.New("IPSec ESP packet less than 8 bytes")
	}

	i.SPI = binary.BigEndian.Uint32(data[:4])
	i.Seq = binary.BigEndian.Uint32(data[4:8])
	i.Encrypted = data[ipsec.ESPHeaderLength:]
	i.Contents = data
	i.Payload = nil

	return nil
}

func (i *IPSecESP) CanDecode() gopacket.LayerClass {
	return layers.LayerTypeIPSecESP
}

func (i *IPSecESP) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

// SerializeTo writes the header followed by the opaque payload.
func (i *IPSecESP) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(ipsec.ESPHeaderLength + len(i.Encrypted))
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(bytes[:4], i.SPI)
	binary.BigEndian.PutUint32(bytes[4:8], i.Seq)
	copy(bytes[ipsec.ESPHeaderLength:], i.Encrypted)

	return nil
}
