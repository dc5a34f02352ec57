package ipsec

import (
	"encoding/binary"
	"fmt"
)

// ESPPacket is the legacy bare SPI+sequence framing used before the
// move to AH: a fixed 8-byte header with the encrypted payload
// directly after it, no ICV splicing. Kept for interoperability with
// peers that still speak the old framing; new code uses AHPacket.
type ESPPacket struct {
	buffer []byte
}

// NewESPPacket returns a packet holding only the zeroed 8-byte header.
func NewESPPacket() *ESPPacket {
	return &ESPPacket{buffer: make([]byte, ESPHeaderLength)}
}

// NewESPPacketFromBuffer adopts buf as the packet contents; the packet
// takes ownership of buf.
func NewESPPacketFromBuffer(buf []byte) *ESPPacket {
	return &ESPPacket{buffer: buf}
}

// SetSPI sets the Security Parameters Index.
func (p *ESPPacket) SetSPI(spi uint32) {
	binary.BigEndian.PutUint32(p.buffer[ESPSPIOffset:], spi)
}

// SPI returns the Security Parameters Index.
func (p *ESPPacket) SPI() uint32 {
	return binary.BigEndian.Uint32(p.buffer[ESPSPIOffset:])
}

// SetSequence sets the sequence number.
func (p *ESPPacket) SetSequence(seq uint32) {
	binary.BigEndian.PutUint32(p.buffer[ESPSequenceOffset:], seq)
}

// Sequence returns the sequence number.
func (p *ESPPacket) Sequence() uint32 {
	return binary.BigEndian.Uint32(p.buffer[ESPSequenceOffset:])
}

// AppendPayload appends payload bytes after the header.
func (p *ESPPacket) AppendPayload(payload []byte) {
	p.buffer = append(p.buffer, payload...)
}

// Payload returns the bytes after the fixed header.
func (p *ESPPacket) Payload() []byte {
	if len(p.buffer) < ESPHeaderLength {
		return nil
	}
	return p.buffer[ESPHeaderLength:]
}

// Bytes returns the underlying buffer.
func (p *ESPPacket) Bytes() []byte {
	return p.buffer
}

// Pad appends a CBC-style ESP trailer to data: pad bytes with the
// values 1..padLen, then the pad length and next header bytes. padLen
// is chosen so the padded length is a multiple of blockSize; an input
// that is already aligned gets a full block of padding.
func Pad(blockSize int, data []byte, nextHeader uint8) []byte {
	padLen := blockSize - (len(data)+2)%blockSize
	out := make([]byte, 0, len(data)+padLen+2)
	out = append(out, data...)
	for i := 1; i <= padLen; i++ {
		out = append(out, byte(i))
	}
	return append(out, byte(padLen), nextHeader)
}

// Unpad strips the trailer appended by Pad, using the trailing pad
// length byte.
func Unpad(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadPadding, len(data))
	}
	padLen := int(data[len(data)-2])
	if padLen+2 > len(data) {
		return nil, fmt.Errorf("%w: pad length %d exceeds data", ErrBadPadding, padLen)
	}
	return data[:len(data)-padLen-2], nil
}

// PaddedNextHeader reads the next header byte from a padded payload.
func PaddedNextHeader(data []byte) uint8 {
	return data[len(data)-1]
}
