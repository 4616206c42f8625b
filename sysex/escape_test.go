package sysex

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeCodepoint(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint32
		n    int
	}{
		{name: "ascii", in: []byte("A"), want: 0x41, n: 1},
		{name: "two byte", in: []byte("é"), want: 0xE9, n: 2},
		{name: "three byte", in: []byte("€"), want: 0x20AC, n: 3},
		{name: "four byte", in: []byte("😀"), want: 0x1F600, n: 4},
		{name: "historical five byte", in: []byte{0xFB, 0xBF, 0xBF, 0xBF, 0xBF}, want: 0x3FFFFFF, n: 5},
		{name: "historical six byte", in: []byte{0xFD, 0xBF, 0xBF, 0xBF, 0xBF, 0xBF}, want: 0x7FFFFFFF, n: 6},
		{name: "empty", in: nil, n: -1},
		{name: "lone continuation byte", in: []byte{0x80}, n: -1},
		{name: "invalid lead byte", in: []byte{0xFE, 0x80}, n: -1},
		{name: "truncated sequence", in: []byte{0xE2, 0x82}, n: -1},
		{name: "bad continuation byte", in: []byte{0xC3, 0x41}, n: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := DecodeCodepoint(tt.in)

			if n != tt.n {
				t.Fatalf("n = %d, want %d", n, tt.n)
			}

			if n > 0 && got != tt.want {
				t.Errorf("codepoint = U+%04X, want U+%04X", got, tt.want)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii passthrough", in: `{"name":"Studio"}`, want: `{"name":"Studio"}`},
		{name: "latin", in: "Glockenspiel Für", want: `Glockenspiel F\u00fcr`},
		{name: "bmp codepoint", in: "10€", want: `10\u20ac`},
		{name: "surrogate pair", in: "ok😀", want: `ok\ud83d\ude00`},
		{name: "malformed sequence skipped", in: "a\x80b", want: "ab"},
		{name: "truncated sequence skipped", in: "a\xE2\x82", want: "a"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Escape([]byte(tt.in), MaxMessageSize)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("escaped = %q, want %q", got, tt.want)
			}

			for i, b := range got {
				if b > 0x7F {
					t.Errorf("byte %d = 0x%02X, output must stay below 0x80", i, b)
				}
			}
		})
	}
}

func TestEscapeOverflow(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
	}{
		{name: "plain byte over limit", in: "abcd", max: 3},
		{name: "bmp escape over limit", in: "€", max: 5},
		{name: "surrogate pair over limit", in: "😀", max: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Escape([]byte(tt.in), tt.max)

			var overflow *OverflowError
			if !errors.As(err, &overflow) {
				t.Fatalf("error = %v, want *OverflowError", err)
			}

			if overflow.Limit != tt.max {
				t.Errorf("Limit = %d, want %d", overflow.Limit, tt.max)
			}

			if got != nil {
				t.Errorf("output = %q, want nil on overflow", got)
			}
		})
	}
}

// TestEscapeRoundTrip checks that escaping a JSON document yields a document
// that parses back to the original values, for any well-formed UTF-8 input.
func TestEscapeRoundTrip(t *testing.T) {
	names := []string{
		"Studio",
		"Für Elise",
		"北京 MIDI",
		"emoji 😀🎹",
		"mixed é€😀 tail",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(map[string]string{"name": name})
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			escaped, err := Escape(raw, MaxMessageSize)
			if err != nil {
				t.Fatalf("escape: %v", err)
			}

			var decoded map[string]string
			if err := json.Unmarshal(escaped, &decoded); err != nil {
				t.Fatalf("unmarshal escaped document: %v", err)
			}

			if decoded["name"] != name {
				t.Errorf("round trip = %q, want %q", decoded["name"], name)
			}
		})
	}
}
