package sysex

import (
	"bytes"
	"errors"
	"testing"
)

// request builds a framed request around the given JSON document, padded so
// short documents still clear the minimum size check.
func request(json string) []byte {
	buf := []byte{Start, PrivateID}
	buf = append(buf, json...)
	buf = append(buf, End)
	return buf
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		wantErr error
		want    string
	}{
		{
			name: "valid request",
			buf:  request(`{"com.velobit.device":{"method":"getAll"}}`),
			want: `{"com.velobit.device":{"method":"getAll"}}`,
		},
		{
			name:    "nil buffer",
			buf:     nil,
			wantErr: ErrShortBuffer,
		},
		{
			name:    "short buffer",
			buf:     request(`{"a":1}`),
			wantErr: ErrShortBuffer,
		},
		{
			name:    "wrong manufacturer ID",
			buf:     []byte{Start, 0x43, '{', '"', 'm', '"', ':', '"', 'g', 'e', 't', 'A', 'l', 'l', 'A', 'l', 'l', 'A', 'l', 'l', 'A', '"', '}', End},
			wantErr: ErrManufacturerID,
		},
		{
			name:    "missing opening brace",
			buf:     append(append([]byte{Start, PrivateID}, ` "com.velobit.device":{"m":1}}`...), End),
			wantErr: ErrNotJSON,
		},
		{
			name:    "missing closing brace",
			buf:     append(append([]byte{Start, PrivateID}, `{"com.velobit.device":{"m":1} `...), End),
			wantErr: ErrNotJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ValidateRequest(tt.buf)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(payload) != tt.want {
				t.Errorf("payload = %q, want %q", payload, tt.want)
			}
		})
	}
}

func TestFrame(t *testing.T) {
	payload := []byte(`{"com.velobit.device":{"token":1}}`)
	frame := Frame(payload)

	if frame[0] != Start {
		t.Errorf("frame[0] = 0x%02X, want 0x%02X", frame[0], Start)
	}

	if frame[1] != PrivateID {
		t.Errorf("frame[1] = 0x%02X, want 0x%02X", frame[1], PrivateID)
	}

	if frame[len(frame)-1] != End {
		t.Errorf("frame end = 0x%02X, want 0x%02X", frame[len(frame)-1], End)
	}

	if !bytes.Equal(frame[2:len(frame)-1], payload) {
		t.Errorf("frame payload = %q, want %q", frame[2:len(frame)-1], payload)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte(`{"com.velobit.device":{"method":"getAll"}}`)

	got, err := ValidateRequest(Frame(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}
