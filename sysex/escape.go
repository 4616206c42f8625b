package sysex

import "fmt"

// OverflowError indicates the escaped output would exceed the caller's
// buffer limit. Nothing is returned in that case; a truncated JSON document
// must never reach the wire.
type OverflowError struct {
	// Limit is the maximum output size the caller allowed
	Limit int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("escaped output exceeds %d bytes", e.Limit)
}

// DecodeCodepoint decodes a single UTF-8 sequence at the start of b.
// It accepts the historical 1-6 byte leading-byte forms, not just the
// modern 1-4 byte subset.
//
// Returns the codepoint and the number of bytes consumed. A malformed
// sequence (unknown lead byte, truncated sequence, or a continuation byte
// without the 10xxxxxx pattern) returns n < 0.
func DecodeCodepoint(b []byte) (codepoint uint32, n int) {
	if len(b) == 0 {
		return 0, -1
	}

	switch {
	case b[0] < 0x80:
		return uint32(b[0]), 1

	case b[0]&0xE0 == 0xC0:
		codepoint = uint32(b[0] & 0x1F)
		n = 2

	case b[0]&0xF0 == 0xE0:
		codepoint = uint32(b[0] & 0x0F)
		n = 3

	case b[0]&0xF8 == 0xF0:
		codepoint = uint32(b[0] & 0x07)
		n = 4

	case b[0]&0xFC == 0xF8:
		codepoint = uint32(b[0] & 0x03)
		n = 5

	case b[0]&0xFE == 0xFC:
		codepoint = uint32(b[0] & 0x01)
		n = 6

	default:
		return 0, -1
	}

	if len(b) < n {
		return 0, -1
	}

	for i := 1; i < n; i++ {
		if b[i]&0xC0 != 0x80 {
			return 0, -1
		}

		codepoint <<= 6
		codepoint |= uint32(b[i] & 0x3F)
	}

	return codepoint, n
}

// Escape rewrites a UTF-8 byte sequence into a 7-bit clean JSON text.
//
// Bytes below 0x80 pass through unchanged. Codepoints below 0x10000 become
// a single \uXXXX escape; codepoints at or above 0x10000 become a UTF-16
// surrogate pair, each half as a \uXXXX escape. Malformed sequences are
// skipped rather than aborting the whole operation.
//
// If the output would exceed max bytes at any point the entire operation
// fails with an *OverflowError and no output is returned.
func Escape(src []byte, max int) ([]byte, error) {
	out := make([]byte, 0, len(src))

	for i := 0; i < len(src); {
		if src[i] < 0x80 {
			if len(out)+1 > max {
				return nil, &OverflowError{Limit: max}
			}

			out = append(out, src[i])
			i++
			continue
		}

		codepoint, n := DecodeCodepoint(src[i:])
		if n < 0 {
			// Skip the offending byte and resynchronize.
			i++
			continue
		}
		i += n

		if codepoint < 0x10000 {
			if len(out)+6 > max {
				return nil, &OverflowError{Limit: max}
			}

			out = fmt.Appendf(out, `\u%04x`, codepoint)
			continue
		}

		if len(out)+12 > max {
			return nil, &OverflowError{Limit: max}
		}

		codepoint -= 0x10000
		out = fmt.Appendf(out, `\u%04x`, (codepoint>>10)+0xD800)
		out = fmt.Appendf(out, `\u%04x`, (codepoint&0x3FF)+0xDC00)
	}

	return out, nil
}
