package ipsec

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewAHPacketMinimum(t *testing.T) {
	p := NewAHPacket(IPProtocolESP)
	if len(p.Bytes()) != AHFixedHeaderLength {
		t.Fatalf("empty packet is %d bytes, want %d", len(p.Bytes()), AHFixedHeaderLength)
	}
	if p.NextHeader() != IPProtocolESP {
		t.Errorf("next header = %d, want %d", p.NextHeader(), IPProtocolESP)
	}
	if p.PayloadLength() != 1 {
		t.Errorf("payload length field = %d, want 1", p.PayloadLength())
	}
	if p.SPI() != 0 || p.Sequence() != 0 {
		t.Errorf("SPI/sequence not zero initialized: %d/%d", p.SPI(), p.Sequence())
	}
	if p.Bytes()[AHReservedOffset] != 0 || p.Bytes()[AHReservedOffset+1] != 0 {
		t.Error("reserved field not zero")
	}
	if len(p.ICV()) != 0 {
		t.Errorf("empty packet has %d ICV bytes", len(p.ICV()))
	}
	if len(p.Payload()) != 0 {
		t.Errorf("empty packet has %d payload bytes", len(p.Payload()))
	}
}

func TestAHPacketRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		icv     []byte
		payload []byte
	}{
		{"hmac96", bytes.Repeat([]byte{0xAB}, 12), []byte("protected payload")},
		{"hmac128", bytes.Repeat([]byte{0x01}, 16), []byte{0x45, 0x00}},
		{"empty icv", nil, []byte("data")},
		{"empty payload", bytes.Repeat([]byte{0xFF}, 12), nil},
		{"both empty", nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewAHPacket(41)
			p.SetSPI(0xDEADBEEF)
			p.SetSequence(0xCAFEBABE)
			if err := p.InsertICV(c.icv); err != nil {
				t.Fatalf("InsertICV: %v", err)
			}
			p.AppendPayload(c.payload)

			if p.NextHeader() != 41 {
				t.Errorf("next header = %d, want 41", p.NextHeader())
			}
			if p.SPI() != 0xDEADBEEF {
				t.Errorf("SPI = 0x%08x, want 0xDEADBEEF", p.SPI())
			}
			if p.Sequence() != 0xCAFEBABE {
				t.Errorf("sequence = 0x%08x, want 0xCAFEBABE", p.Sequence())
			}
			if !bytes.Equal(p.ICV(), c.icv) {
				t.Errorf("ICV = %x, want %x", p.ICV(), c.icv)
			}
			if !bytes.Equal(p.Payload(), c.payload) {
				t.Errorf("payload = %x, want %x", p.Payload(), c.payload)
			}
			wantLen := AHFixedHeaderLength + len(c.icv) + len(c.payload)
			if len(p.Bytes()) != wantLen {
				t.Errorf("buffer is %d bytes, want %d", len(p.Bytes()), wantLen)
			}
		})
	}
}

func TestInsertICVAfterPayload(t *testing.T) {
	// The ICV lands between header and payload regardless of whether
	// the payload was appended first.
	p := NewAHPacket(4)
	p.AppendPayload([]byte("payload first"))
	icv := bytes.Repeat([]byte{0x77}, 12)
	if err := p.InsertICV(icv); err != nil {
		t.Fatalf("InsertICV: %v", err)
	}
	if !bytes.Equal(p.ICV(), icv) {
		t.Errorf("ICV = %x, want %x", p.ICV(), icv)
	}
	if !bytes.Equal(p.Payload(), []byte("payload first")) {
		t.Errorf("payload = %q", p.Payload())
	}
}

func TestInsertICVTwice(t *testing.T) {
	p := NewAHPacket(4)
	if err := p.InsertICV(bytes.Repeat([]byte{1}, 12)); err != nil {
		t.Fatalf("first InsertICV: %v", err)
	}
	err := p.InsertICV(bytes.Repeat([]byte{2}, 12))
	if !errors.Is(err, ErrICVAlreadySet) {
		t.Fatalf("second InsertICV err = %v, want ErrICVAlreadySet", err)
	}
}

func TestInsertICVTooLong(t *testing.T) {
	p := NewAHPacket(4)
	err := p.InsertICV(make([]byte, 1024))
	if !errors.Is(err, ErrICVTooLong) {
		t.Fatalf("InsertICV err = %v, want ErrICVTooLong", err)
	}
	if len(p.Bytes()) != AHFixedHeaderLength {
		t.Errorf("failed insert modified the buffer: %d bytes", len(p.Bytes()))
	}
}

func TestPayloadLengthFieldAfterInsert(t *testing.T) {
	p := NewAHPacket(4)
	if err := p.InsertICV(make([]byte, 12)); err != nil {
		t.Fatal(err)
	}
	if p.PayloadLength() != 4 {
		t.Errorf("payload length field = %d, want 4", p.PayloadLength())
	}
	// Appending payload must not touch the field: it covers only
	// header and ICV.
	p.AppendPayload(make([]byte, 100))
	if p.PayloadLength() != 4 {
		t.Errorf("payload length field after append = %d, want 4", p.PayloadLength())
	}
}

func TestAuthDataZeroesICV(t *testing.T) {
	icv := bytes.Repeat([]byte{0xEE}, 12)
	payload := []byte("some tunneled packet")
	p := NewAHPacket(41)
	p.SetSPI(0x11223344)
	p.SetSequence(7)
	if err := p.InsertICV(icv); err != nil {
		t.Fatal(err)
	}
	p.AppendPayload(payload)

	auth := p.AuthData()
	raw := p.Bytes()
	if len(auth) != len(raw) {
		t.Fatalf("auth data is %d bytes, buffer is %d", len(auth), len(raw))
	}
	if !bytes.Equal(auth[:AHICVOffset], raw[:AHICVOffset]) {
		t.Error("auth data differs from buffer before the ICV")
	}
	end := AHICVOffset + len(icv)
	if !bytes.Equal(auth[end:], raw[end:]) {
		t.Error("auth data differs from buffer after the ICV")
	}
	for i := AHICVOffset; i < end; i++ {
		if auth[i] != 0 {
			t.Fatalf("auth data byte %d = 0x%02x, want 0", i, auth[i])
		}
	}
	// The copy must leave the original ICV intact.
	if !bytes.Equal(p.ICV(), icv) {
		t.Error("AuthData mutated the packet ICV")
	}
}

func TestParseAHPacket(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		src := NewAHPacket(41)
		src.SetSPI(0xDEADBEEF)
		src.SetSequence(42)
		if err := src.InsertICV(bytes.Repeat([]byte{0x5A}, 12)); err != nil {
			t.Fatal(err)
		}
		src.AppendPayload([]byte("inner"))

		p, err := ParseAHPacket(src.Bytes())
		if err != nil {
			t.Fatalf("ParseAHPacket: %v", err)
		}
		if p.SPI() != 0xDEADBEEF || p.Sequence() != 42 {
			t.Errorf("parsed SPI/seq = 0x%08x/%d", p.SPI(), p.Sequence())
		}
		if !bytes.Equal(p.ICV(), src.ICV()) {
			t.Errorf("parsed ICV = %x", p.ICV())
		}
		if !bytes.Equal(p.Payload(), []byte("inner")) {
			t.Errorf("parsed payload = %q", p.Payload())
		}
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := ParseAHPacket(make([]byte, 11))
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("err = %v, want ErrTruncated", err)
		}
	})

	t.Run("length field beyond buffer", func(t *testing.T) {
		buf := make([]byte, AHFixedHeaderLength)
		buf[AHPayloadLengthOffset] = 4 // declares 12 ICV bytes that are not there
		_, err := ParseAHPacket(buf)
		if !errors.Is(err, ErrInconsistentLength) {
			t.Fatalf("err = %v, want ErrInconsistentLength", err)
		}
	})
}

func TestPayloadBoundary(t *testing.T) {
	// ICV consumes the entire remainder of the buffer: payload is
	// empty, not an error.
	p := NewAHPacket(4)
	if err := p.InsertICV(bytes.Repeat([]byte{9}, 16)); err != nil {
		t.Fatal(err)
	}
	if got := p.Payload(); len(got) != 0 {
		t.Errorf("payload = %x, want empty", got)
	}
}

func TestFieldEncodingBigEndian(t *testing.T) {
	p := NewAHPacket(0)
	p.SetSPI(0xDEADBEEF)
	p.SetSequence(0x01020304)
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(p.Bytes()[AHSPIOffset:AHSPIOffset+4], want) {
		t.Errorf("SPI wire bytes = %x, want %x", p.Bytes()[AHSPIOffset:AHSPIOffset+4], want)
	}
	want = []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(p.Bytes()[AHSequenceOffset:AHSequenceOffset+4], want) {
		t.Errorf("sequence wire bytes = %x, want %x", p.Bytes()[AHSequenceOffset:AHSequenceOffset+4], want)
	}
	if p.SPI() != 0xDEADBEEF {
		t.Errorf("SPI read back = 0x%08x", p.SPI())
	}
	if p.Sequence() != 0x01020304 {
		t.Errorf("sequence read back = 0x%08x", p.Sequence())
	}
}

func TestZeroLengthField(t *testing.T) {
	// A length field of 0 is below the legal minimum of 1 and would
	// place the ICV end inside the fixed header; accessors clamp it.
	buf := make([]byte, AHFixedHeaderLength+4)
	p := NewAHPacketFromBuffer(buf)
	if got := p.ICV(); len(got) != 0 {
		t.Errorf("ICV = %x, want empty", got)
	}
	if got := p.Payload(); len(got) != 4 {
		t.Errorf("payload is %d bytes, want 4", len(got))
	}
}

func TestNewAHPacketFromBufferShort(t *testing.T) {
	// Adopting a short buffer is allowed; slice accessors stay in
	// range even though field accessors are not usable.
	p := NewAHPacketFromBuffer([]byte{51, 1})
	if got := p.ICV(); got != nil {
		t.Errorf("ICV on short buffer = %x, want nil", got)
	}
	if got := p.AuthData(); len(got) != 2 {
		t.Errorf("AuthData on short buffer is %d bytes, want 2", len(got))
	}
}
