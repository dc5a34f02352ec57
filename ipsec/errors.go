package ipsec

import "errors"

var (
	// ErrTruncated reports a buffer too short to hold the fixed AH
	// header.
	ErrTruncated = errors.New("ipsec: AH packet shorter than 12 bytes")

	// ErrInconsistentLength reports a payload length field that places
	// the end of the ICV beyond the end of the buffer.
	ErrInconsistentLength = errors.New("ipsec: AH length field exceeds buffer")

	// ErrICVAlreadySet reports a second InsertICV call on the same
	// packet.
	ErrICVAlreadySet = errors.New("ipsec: ICV already inserted")

	// ErrICVTooLong reports an ICV whose length cannot be encoded in
	// the single-byte payload length field.
	ErrICVTooLong = errors.New("ipsec: ICV too long for payload length field")

	// ErrBadPadding reports an ESP trailer that is missing or declares
	// more padding than the data holds.
	ErrBadPadding = errors.New("ipsec: bad ESP padding")
)
