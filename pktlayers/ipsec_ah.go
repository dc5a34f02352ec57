package pktlayers

import (
	"encoding/binary"
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/strangebit-io/hipsec/ipsec"
)

// IPSecAH is the gopacket view of an AH packet, usable both in a
// DecodingLayerParser chain and as a SerializableLayer when crafting
// packets.
type IPSecAH struct {
	layers.BaseLayer
	NextHeader         layers.IPProtocol
	HeaderLength       uint8
	ActualLength       int
	Reserved           uint16
	SPI, Seq           uint32
	AuthenticationData []byte
}

func (i *IPSecAH) LayerType() gopacket.LayerType { return layers.LayerTypeIPSecAH }

func (i *IPSecAH) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < ipsec.AHFixedHeaderLength {
		df.SetTruncated()
		return errors.New("IPSec AH packet less than 12 bytes")
	}

	i.NextHeader = layers.IPProtocol(data[0])
	i.HeaderLength = data[1]
	i.Reserved = binary.BigEndian.Uint16(data[2:4])
	i.SPI = binary.BigEndian.Uint32(data[4:8])
	i.Seq = binary.BigEndian.Uint32(data[8:12])
	i.ActualLength = ipsec.AHFixedHeaderLength + ipsec.AHLengthToICVLength(int(i.HeaderLength))
	if i.ActualLength < ipsec.AHFixedHeaderLength {
		return errors.New("AH header length below minimum")
	}
	if len(data) < i.ActualLength {
		df.SetTruncated()
		return errors.New("truncated AH packet < ActualLength")
	}
	i.AuthenticationData = data[ipsec.AHICVOffset:i.ActualLength]
	i.Contents = data[:i.ActualLength]
	i.Payload = data[i.ActualLength:]

	return nil
}

func (i *IPSecAH) CanDecode() gopacket.LayerClass {
	return layers.LayerTypeIPSecAH
}

func (i *IPSecAH) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

// SerializeTo writes the fixed header and ICV in front of the buffer
// contents. With opts.FixLengths the header length byte is recomputed
// from the ICV size.
func (i *IPSecAH) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(ipsec.AHFixedHeaderLength + len(i.AuthenticationData))
	if err != nil {
		return err
	}
	if opts.FixLengths {
		i.HeaderLength = uint8(ipsec.ICVLengthToAHLength(len(i.AuthenticationData)))
	}
	bytes[0] = byte(i.NextHeader)
	bytes[1] = i.HeaderLength
	binary.BigEndian.PutUint16(bytes[2:4], i.Reserved)
	binary.BigEndian.PutUint32(bytes[4:8], i.SPI)
	binary.BigEndian.PutUint32(bytes[8:12], i.Seq)
	copy(bytes[ipsec.AHICVOffset:], i.AuthenticationData)

	return nil
}
