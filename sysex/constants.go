package sysex

// SysEx envelope constants (MIDI 1.0 specification).
const (
	// Start is the System Exclusive status byte (0xF0)
	Start = 0xF0

	// End is the End of Exclusive status byte (0xF7)
	End = 0xF7

	// PrivateID is the research/private-use manufacturer ID (0x7D)
	PrivateID = 0x7D
)

// Protocol envelope limits.
const (
	// MinRequestSize is the smallest buffer that can hold a valid request:
	// Start(1) + ID(1) + JSON document(21) + End(1). Anything shorter is
	// rejected without inspection.
	MinRequestSize = 24

	// MaxMessageSize is the maximum SysEx message size in bytes. The
	// firmware update packet is an 8k flash block, base64 encoded and
	// wrapped in JSON, so 12k leaves headroom for the envelope.
	MaxMessageSize = 12 * 1024
)
