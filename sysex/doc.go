// Package sysex implements the MIDI System-Exclusive wire layer used by the
// device management protocol.
//
// SysEx is used here purely as a 7-bit clean byte-stream transport. Requests
// and replies are JSON documents wrapped in a SysEx envelope under the
// research/private-use manufacturer ID:
//
//	Request: [SysExStart][0x7D]['{'][JSON bytes]['}'][SysExEnd]
//	Reply:   [SysExStart][0x7D][escaped JSON bytes][SysExEnd]
//
// # Envelope Validation
//
// Use ValidateRequest to check the framing of an inbound buffer and extract
// the JSON payload:
//
//	payload, err := sysex.ValidateRequest(buf)
//	if err != nil {
//	    return // malformed requests are dropped, never answered
//	}
//
// # 7-bit Escaping
//
// Outbound JSON may contain arbitrary UTF-8, but every byte on the wire must
// stay below 0x80. Escape rewrites non-ASCII codepoints as JSON \uXXXX
// escapes (UTF-16 surrogate pairs above the BMP):
//
//	escaped, err := sysex.Escape(raw, sysex.MaxMessageSize)
//	if err != nil {
//	    return // reply does not fit, nothing may be sent
//	}
//	frame := sysex.Frame(escaped)
//
// Malformed UTF-8 sequences are skipped, not substituted, so the escaped
// output is always valid 7-bit JSON text.
package sysex
