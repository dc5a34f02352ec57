package ipsec

// Wire layout of the AH fixed header (RFC 4302) and the legacy ESP
// framing (RFC 4303, header only). All offsets are from the start of
// the IPsec header; multi-byte fields are big-endian.
const (
	IPProtocolAH  = 51
	IPProtocolESP = 50

	AHNextHeaderOffset    = 0
	AHPayloadLengthOffset = 1
	AHReservedOffset      = 2
	AHSPIOffset           = 4
	AHSequenceOffset      = 8
	AHICVOffset           = 12
	AHFixedHeaderLength   = 12

	ESPSPIOffset      = 0
	ESPSequenceOffset = 4
	ESPHeaderLength   = 8
)

// ICVLengthToAHLength converts an ICV byte count to the value carried
// in the AH payload length field: header plus ICV in 4-byte words,
// rounded up, minus 2. HMAC-96 (12 ICV bytes) yields 4; an empty ICV
// yields 1, the minimum encodable header.
func ICVLengthToAHLength(icvLen int) int {
	return (AHFixedHeaderLength+icvLen+3)/4 - 2
}

// AHLengthToICVLength converts a payload length field value back to the
// ICV byte count. It inverts ICVLengthToAHLength exactly when the ICV
// length is a multiple of 4; other lengths are rounded up on the way
// in, so the round trip reports the padded size. Standard MAC
// truncations (96, 128, 160 bits) are all word aligned.
func AHLengthToICVLength(ahLen int) int {
	return (ahLen+2)*4 - AHFixedHeaderLength
}
