package pktparser

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/strangebit-io/hipsec/pktlayers"
)

// AHChain bundles the decoding layers needed to pull AH (and legacy
// ESP) packets out of captured frames: link layer, IPv4/IPv6, the
// IPsec headers, and a terminal payload. One chain is reused across
// packets; the exported layer structs hold the fields of the most
// recently decoded packet.
type AHChain struct {
	Eth     layers.Ethernet
	SLL     layers.LinuxSLL
	IP4     layers.IPv4
	IP6     layers.IPv6
	AH      pktlayers.IPSecAH
	ESP     pktlayers.IPSecESP
	Payload gopacket.Payload

	feedback  DecodeFeedback
	container DecodingLayerSparse
}

func NewAHChain() *AHChain {
	c := &AHChain{}
	for _, l := range []gopacket.DecodingLayer{
		&c.Eth,
		&c.SLL,
		&c.IP4,
		&c.IP6,
		&c.AH,
		&c.ESP,
		&c.Payload,
	} {
		c.container.Put(l)
	}
	return c
}

// FirstLayerType maps a capture handle's link type to the first layer
// of the chain, or LayerTypeZero when the link type is not covered.
func (c *AHChain) FirstLayerType(linkType layers.LinkType) gopacket.LayerType {
	return c.container.GetFirstLayerType(linkType)
}

// Decoder returns a decode function starting at first. The function
// resets and refills decoded on every call.
func (c *AHChain) Decoder(first gopacket.LayerType) gopacket.DecodingLayerFunc {
	fn := c.container.LayersDecoder(first, &c.feedback)
	return func(data []byte, decoded *[]gopacket.LayerType) (gopacket.LayerType, error) {
		c.feedback.Truncated = false
		return fn(data, decoded)
	}
}

// Truncated reports whether the last decode ran out of bytes.
func (c *AHChain) Truncated() bool {
	return c.feedback.Truncated
}
