package ipsec

import (
	"encoding/binary"
	"fmt"
)

// AHPacket is one Authentication Header packet: the fixed 12-byte
// header, the ICV, and the protected payload, all held in a single
// buffer that is the wire representation at every point in time. The
// payload length field is the only record of where the ICV ends;
// InsertICV keeps it in sync, and every accessor derives the ICV and
// payload boundaries from it rather than from separately tracked
// state.
//
// A packet exclusively owns its buffer. Instances are not safe for
// concurrent mutation; distinct instances share nothing.
type AHPacket struct {
	buffer []byte
	icvSet bool
}

// NewAHPacket returns a packet holding only the zeroed fixed header
// with the given next header value and the payload length field preset
// to 1, which encodes a bare 12-byte header with no ICV. There is no
// default next header; the caller names the encapsulated protocol.
func NewAHPacket(nextHeader uint8) *AHPacket {
	p := &AHPacket{buffer: make([]byte, AHFixedHeaderLength)}
	p.SetNextHeader(nextHeader)
	p.SetPayloadLength(1)
	return p
}

// NewAHPacketFromBuffer adopts buf as the packet contents with no
// structural validation; the packet takes ownership of buf. The buffer
// must hold at least the fixed header before field accessors are used.
// For bytes received off the wire, use ParseAHPacket instead.
func NewAHPacketFromBuffer(buf []byte) *AHPacket {
	p := &AHPacket{buffer: buf}
	if len(buf) >= AHFixedHeaderLength && AHLengthToICVLength(int(p.PayloadLength())) > 0 {
		p.icvSet = true
	}
	return p
}

// ParseAHPacket adopts buf after checking that the fixed header is
// complete and that the ICV boundary declared by the payload length
// field lies inside the buffer.
func ParseAHPacket(buf []byte) (*AHPacket, error) {
	if len(buf) < AHFixedHeaderLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTruncated, len(buf))
	}
	end := AHFixedHeaderLength + AHLengthToICVLength(int(buf[AHPayloadLengthOffset]))
	if end > len(buf) {
		return nil, fmt.Errorf("%w: ICV ends at %d, buffer holds %d bytes",
			ErrInconsistentLength, end, len(buf))
	}
	return NewAHPacketFromBuffer(buf), nil
}

// SetNextHeader sets the protocol number of the protected payload.
func (p *AHPacket) SetNextHeader(nextHeader uint8) {
	p.buffer[AHNextHeaderOffset] = nextHeader
}

// NextHeader returns the protocol number of the protected payload.
func (p *AHPacket) NextHeader() uint8 {
	return p.buffer[AHNextHeaderOffset]
}

// SetPayloadLength sets the raw payload length field: header plus ICV
// in 4-byte words minus 2. InsertICV maintains it; direct use is only
// needed when crafting deliberately inconsistent packets.
func (p *AHPacket) SetPayloadLength(words uint8) {
	p.buffer[AHPayloadLengthOffset] = words
}

// PayloadLength returns the raw payload length field.
func (p *AHPacket) PayloadLength() uint8 {
	return p.buffer[AHPayloadLengthOffset]
}

// SetSPI sets the Security Parameters Index.
func (p *AHPacket) SetSPI(spi uint32) {
	binary.BigEndian.PutUint32(p.buffer[AHSPIOffset:], spi)
}

// SPI returns the Security Parameters Index.
func (p *AHPacket) SPI() uint32 {
	return binary.BigEndian.Uint32(p.buffer[AHSPIOffset:])
}

// SetSequence sets the sequence number. Anti-replay tracking is the
// caller's concern.
func (p *AHPacket) SetSequence(seq uint32) {
	binary.BigEndian.PutUint32(p.buffer[AHSequenceOffset:], seq)
}

// Sequence returns the sequence number.
func (p *AHPacket) Sequence() uint32 {
	return binary.BigEndian.Uint32(p.buffer[AHSequenceOffset:])
}

// InsertICV splices icv between the fixed header and any payload bytes
// already appended, then recomputes the payload length field from the
// new header size. A packet carries at most one ICV: a second call
// returns ErrICVAlreadySet instead of splicing a second block.
func (p *AHPacket) InsertICV(icv []byte) error {
	if p.icvSet {
		return ErrICVAlreadySet
	}
	words := ICVLengthToAHLength(len(icv))
	if words > 0xFF {
		return fmt.Errorf("%w: %d bytes", ErrICVTooLong, len(icv))
	}
	buf := make([]byte, 0, len(p.buffer)+len(icv))
	buf = append(buf, p.buffer[:AHFixedHeaderLength]...)
	buf = append(buf, icv...)
	buf = append(buf, p.buffer[AHFixedHeaderLength:]...)
	p.buffer = buf
	p.SetPayloadLength(uint8(words))
	p.icvSet = true
	return nil
}

// AppendPayload appends the protected payload to the end of the
// buffer. The payload length field is left alone: per RFC 4302 it
// covers only the header and ICV, never the payload.
func (p *AHPacket) AppendPayload(payload []byte) {
	p.buffer = append(p.buffer, payload...)
}

// icvEnd is the first byte past the ICV according to the payload
// length field, clamped to [AHICVOffset, len(buffer)] for unvalidated
// packets. A field value of 0 is below the legal minimum of 1 and
// would otherwise place the end inside the fixed header.
func (p *AHPacket) icvEnd() int {
	end := AHFixedHeaderLength + AHLengthToICVLength(int(p.PayloadLength()))
	if end < AHICVOffset {
		end = AHICVOffset
	}
	if end > len(p.buffer) {
		end = len(p.buffer)
	}
	return end
}

// ICV returns the ICV bytes in place, without copying.
func (p *AHPacket) ICV() []byte {
	if len(p.buffer) < AHICVOffset {
		return nil
	}
	return p.buffer[AHICVOffset:p.icvEnd()]
}

// Payload returns the protected payload in place, without copying. A
// packet whose ICV extends to the end of the buffer has an empty
// payload.
func (p *AHPacket) Payload() []byte {
	return p.buffer[p.icvEnd():]
}

// AuthData returns a copy of the wire bytes with the ICV range zeroed.
// This is the exact MAC input both when generating the ICV and when
// verifying a received one: RFC 4302 computes the ICV over the packet
// with the ICV field itself treated as zero. The copy leaves the
// original buffer untouched during verification.
func (p *AHPacket) AuthData() []byte {
	auth := make([]byte, len(p.buffer))
	copy(auth, p.buffer)
	if len(auth) < AHICVOffset {
		return auth
	}
	for i := AHICVOffset; i < p.icvEnd(); i++ {
		auth[i] = 0
	}
	return auth
}

// Bytes returns the underlying buffer. The buffer is the wire form;
// there is no separate serialization step.
func (p *AHPacket) Bytes() []byte {
	return p.buffer
}
