package device

import (
	"encoding/base64"
	"time"
)

// Firmware update status strings reported to the host.
const (
	// StatusSuccess acknowledges a written chunk or a verified image.
	StatusSuccess = "success"

	// StatusInvalidOffset rejects a chunk whose offset is not block-aligned.
	StatusInvalidOffset = "invalidOffset"

	// StatusHashMismatch reports a failed whole-image verification; the
	// secondary bank is not activated and the host is expected to resend.
	StatusHashMismatch = "hashMismatch"
)

// firmwareChunk is one writeFirmware request body: an absolute byte offset
// into the secondary bank and a base64-encoded block. The final chunk also
// carries the hash over the entire image.
type firmwareChunk struct {
	Offset uint32 `json:"offset"`
	Data   string `json:"data"`
	Hash   string `json:"hash"`
}

// writeFirmware applies one chunk to the secondary (inactive) bank. Every
// applied chunk is acknowledged; the final chunk triggers bootloader
// duplication, whole-image verification and, on a match, the irreversible
// activation of the secondary bank.
//
// There is no per-offset deduplication and no persisted session: an
// interrupted update restarts from offset 0.
func (d *Device) writeFirmware(chunk *firmwareChunk) {
	if chunk == nil {
		return
	}

	fw := d.hw.Firmware
	blockSize := fw.BlockSize()

	if blockSize == 0 || chunk.Offset%blockSize != 0 {
		d.sendFirmwareStatus(StatusInvalidOffset)
		return
	}

	data, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		d.logDebug("dropped firmware chunk", "reason", err)
		return
	}
	if uint32(len(data)) > blockSize {
		d.logDebug("dropped firmware chunk",
			"reason", "payload exceeds block size", "length", len(data))
		return
	}

	// Pad a partial final block with the erased-flash sentinel so no stale
	// bytes survive in the programmed block.
	block := make([]byte, blockSize)
	n := copy(block, data)
	for i := n; i < len(block); i++ {
		block[i] = 0xFF
	}

	if err := fw.SecondaryWrite(chunk.Offset, block); err != nil {
		d.logError("write secondary bank", "offset", chunk.Offset, "error", err)
		return
	}
	d.firmware.progress = chunk.Offset + uint32(len(data))
	d.logDebug("wrote firmware chunk",
		"offset", chunk.Offset, "progress", d.firmware.progress)

	if chunk.Hash == "" {
		// Ready for the next block.
		d.sendFirmwareStatus(StatusSuccess)
		return
	}

	// Final chunk: duplicate the bootloader so the new image is
	// independently bootable, then verify the whole image.
	if err := fw.SecondaryCopyBootloader(); err != nil {
		d.logError("copy bootloader", "error", err)
		d.sendFirmwareStatus(StatusHashMismatch)
		return
	}

	sum, err := fw.SecondaryHash(chunk.Offset + uint32(len(data)))
	if err != nil {
		d.logError("hash secondary bank", "error", err)
		d.sendFirmwareStatus(StatusHashMismatch)
		return
	}

	if sum != chunk.Hash {
		// The secondary bank is left as-is; the host restarts the update.
		d.sendFirmwareStatus(StatusHashMismatch)
		return
	}

	d.sendFirmwareStatus(StatusSuccess)
	d.logInfo("firmware verified, activating",
		"size", chunk.Offset+uint32(len(data)), "hash", sum)

	// The run loop stops here: flush queued outbound traffic within the
	// deadline, give the host time to consume the reply, then reset into
	// the new image. Activation does not return on hardware; the return
	// below keeps the mismatch reply unreachable by construction.
	d.drainOutbound(d.cfg.flushTimeout)
	time.Sleep(d.cfg.activateDelay)
	fw.SecondaryActivate()
}
