package sysex

import "fmt"

// Framing validation errors. Callers that implement the request protocol
// drop the buffer silently on any of these; the values exist so that tests
// and diagnostics can tell the failure modes apart.
var (
	// ErrShortBuffer indicates the buffer is below MinRequestSize.
	ErrShortBuffer = fmt.Errorf("buffer below minimum request size %d", MinRequestSize)

	// ErrManufacturerID indicates the second byte is not the private-use ID.
	ErrManufacturerID = fmt.Errorf("manufacturer ID is not 0x%02X", PrivateID)

	// ErrNotJSON indicates the payload does not carry a JSON document at the
	// expected offsets.
	ErrNotJSON = fmt.Errorf("payload is not a JSON document")
)

// ValidateRequest checks the envelope of an inbound request buffer and
// returns the enclosed JSON document.
//
// The buffer is expected to contain the complete message including the
// SysEx status bytes:
//
//	[Start][PrivateID]['{'][JSON bytes]['}'][End]
//
// The returned slice aliases buf and spans the JSON document from the
// opening '{' through the closing '}'.
func ValidateRequest(buf []byte) ([]byte, error) {
	if len(buf) < MinRequestSize {
		return nil, ErrShortBuffer
	}

	if buf[1] != PrivateID {
		return nil, ErrManufacturerID
	}

	if buf[2] != '{' || buf[len(buf)-2] != '}' {
		return nil, ErrNotJSON
	}

	return buf[2 : len(buf)-1], nil
}

// Frame wraps a 7-bit clean payload in the SysEx envelope. The payload must
// already be escaped; Frame does not inspect it.
func Frame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, Start, PrivateID)
	frame = append(frame, payload...)
	frame = append(frame, End)
	return frame
}
