package device

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
)

// firmwareRequest frames one writeFirmware chunk.
func firmwareRequest(offset int, data []byte, hash string) string {
	body := fmt.Sprintf(`"offset":%d,"data":"%s"`, offset, base64.StdEncoding.EncodeToString(data))
	if hash != "" {
		body += fmt.Sprintf(`,"hash":"%s"`, hash)
	}
	return fmt.Sprintf(`{"com.velobit.device":{"method":"writeFirmware","firmware":{%s}}}`, body)
}

func firmwareStatus(t *testing.T, r *rig) string {
	t.Helper()

	body := r.reply(t)
	if body == nil {
		t.Fatal("no firmware status sent")
	}

	status, ok := field(t, body, "firmware", "status").(string)
	if !ok {
		t.Fatal("firmware status is not a string")
	}
	return status
}

func TestWriteFirmwareInvalidOffset(t *testing.T) {
	r := newRig(t)

	r.request(firmwareRequest(13, []byte("block"), ""))

	if got := firmwareStatus(t, r); got != StatusInvalidOffset {
		t.Errorf("status = %q, want %q", got, StatusInvalidOffset)
	}

	// No flash write happened.
	for i, b := range r.firmware.Secondary {
		if b != 0xFF {
			t.Fatalf("secondary[%d] = 0x%02X, want erased", i, b)
		}
	}
}

func TestWriteFirmwareChunk(t *testing.T) {
	r := newRig(t)

	data := bytes.Repeat([]byte{0x42}, 40) // partial block
	r.request(firmwareRequest(0, data, ""))

	if got := firmwareStatus(t, r); got != StatusSuccess {
		t.Errorf("status = %q, want %q", got, StatusSuccess)
	}

	if !bytes.Equal(r.firmware.Secondary[:40], data) {
		t.Error("secondary bank does not carry the chunk data")
	}

	// The partial block is padded with the erased-flash sentinel.
	for i := 40; i < 64; i++ {
		if r.firmware.Secondary[i] != 0xFF {
			t.Errorf("secondary[%d] = 0x%02X, want 0xFF padding", i, r.firmware.Secondary[i])
		}
	}
}

func TestUpdateProgressTracking(t *testing.T) {
	r := newRig(t)

	if got := r.dev.UpdateProgress(); got != 0 {
		t.Fatalf("UpdateProgress = %d before any chunk, want 0", got)
	}

	r.request(firmwareRequest(0, bytes.Repeat([]byte{0x11}, 64), ""))
	if got := r.dev.UpdateProgress(); got != 64 {
		t.Errorf("UpdateProgress = %d, want 64", got)
	}

	r.request(firmwareRequest(64, bytes.Repeat([]byte{0x22}, 10), ""))
	if got := r.dev.UpdateProgress(); got != 74 {
		t.Errorf("UpdateProgress = %d, want 74", got)
	}

	// A rejected chunk leaves the mark where it was.
	r.request(firmwareRequest(13, []byte("misaligned"), ""))
	if got := r.dev.UpdateProgress(); got != 74 {
		t.Errorf("UpdateProgress = %d after rejected chunk, want 74", got)
	}

	// The abandoned session is discarded on restart.
	if err := r.dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := r.dev.UpdateProgress(); got != 0 {
		t.Errorf("UpdateProgress = %d after restart, want 0", got)
	}
}

func TestWriteFirmwareRewriteIdempotent(t *testing.T) {
	r := newRig(t)

	data := bytes.Repeat([]byte{0x42}, 64)
	r.request(firmwareRequest(0, data, ""))
	first := append([]byte(nil), r.firmware.Secondary...)

	r.request(firmwareRequest(0, data, ""))

	if !bytes.Equal(first, r.firmware.Secondary) {
		t.Error("rewriting the same chunk changed the secondary bank")
	}
}

func TestWriteFirmwareMalformedPayloadDropped(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid base64",
			body: `{"com.velobit.device":{"method":"writeFirmware","firmware":{"offset":0,"data":"!!not-base64!!"}}}`,
		},
		{
			name: "payload larger than a block",
			body: firmwareRequest(0, bytes.Repeat([]byte{1}, 65), ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			r.request(tt.body)

			if len(r.transport.Frames) != 0 {
				t.Error("malformed chunk produced a reply")
			}

			for i, b := range r.firmware.Secondary {
				if b != 0xFF {
					t.Fatalf("secondary[%d] = 0x%02X, want erased", i, b)
				}
			}
		})
	}
}

func TestFirmwareUpdateActivates(t *testing.T) {
	r := newRig(t)

	block0 := bytes.Repeat([]byte{0x11}, 64)
	tail := bytes.Repeat([]byte{0x22}, 10)

	r.request(firmwareRequest(0, block0, ""))
	if got := firmwareStatus(t, r); got != StatusSuccess {
		t.Fatalf("chunk status = %q, want %q", got, StatusSuccess)
	}

	// Whole-image hash over [0, 64+10).
	image := append(append([]byte(nil), block0...), tail...)
	sum := sha1.Sum(image)

	r.request(firmwareRequest(64, tail, hex.EncodeToString(sum[:])))

	if got := firmwareStatus(t, r); got != StatusSuccess {
		t.Errorf("final status = %q, want %q", got, StatusSuccess)
	}
	if !r.firmware.Activated {
		t.Error("secondary bank was not activated")
	}
}

func TestFirmwareUpdateHashMismatch(t *testing.T) {
	r := newRig(t)

	block := bytes.Repeat([]byte{0x11}, 64)
	r.request(firmwareRequest(0, block, ""))

	wrong := sha1.Sum([]byte("something else"))
	r.request(firmwareRequest(64, bytes.Repeat([]byte{0x22}, 10), hex.EncodeToString(wrong[:])))

	if got := firmwareStatus(t, r); got != StatusHashMismatch {
		t.Errorf("final status = %q, want %q", got, StatusHashMismatch)
	}
	if r.firmware.Activated {
		t.Error("secondary bank activated despite hash mismatch")
	}

	// The written blocks stay in place for the host's retry.
	if !bytes.Equal(r.firmware.Secondary[:64], block) {
		t.Error("secondary bank contents changed on mismatch")
	}
}

func TestFirmwareUpdateCopiesBootloader(t *testing.T) {
	r := newRig(t)
	r.firmware.Bootloader = bytes.Repeat([]byte{0xB0}, 64)
	r.boot(t)

	// Image chunks start past the bootloader region.
	payload := bytes.Repeat([]byte{0x33}, 64)
	bank := append(append([]byte(nil), r.firmware.Bootloader...), payload...)
	sum := sha1.Sum(bank)

	r.request(firmwareRequest(64, payload, hex.EncodeToString(sum[:])))

	if got := firmwareStatus(t, r); got != StatusSuccess {
		t.Errorf("final status = %q, want %q", got, StatusSuccess)
	}
	if !r.firmware.Activated {
		t.Error("secondary bank was not activated")
	}
}
