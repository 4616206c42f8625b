package hal

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Storage is the persistent configuration area (EEPROM-class memory).
// Offsets are relative to the start of the area. An erased area reads as
// 0xFF in every byte.
type Storage interface {
	// Size returns the capacity of the area in bytes.
	Size() uint32

	// Read fills buf from the area starting at offset.
	Read(offset uint32, buf []byte) error

	// Write stores data at offset. Writes are whole-buffer; wear leveling
	// and page handling are the implementation's business.
	Write(offset uint32, data []byte) error

	// Erase resets the entire area to 0xFF.
	Erase() error
}

// Firmware gives access to the active image, the secondary (inactive) flash
// bank written during an update, and the device reset primitives.
type Firmware interface {
	// Start returns the base address of the active image.
	Start() uint32

	// Size returns the size of the active image in bytes.
	Size() uint32

	// FlashSize returns the total flash capacity in bytes.
	FlashSize() uint32

	// BlockSize returns the flash program/erase granularity. All secondary
	// bank writes must be aligned to and sized as one block.
	BlockSize() uint32

	// Hash returns the content hash of the active image as a lowercase hex
	// string.
	Hash() (string, error)

	// BootloaderMetadata returns the JSON record embedded at the end of the
	// bootloader, or nil if the bootloader carries none.
	BootloaderMetadata() []byte

	// SecondaryWrite programs one block at the given offset of the
	// secondary bank.
	SecondaryWrite(offset uint32, block []byte) error

	// SecondaryCopyBootloader copies the currently running bootloader into
	// the secondary bank so the new image is independently bootable.
	SecondaryCopyBootloader() error

	// SecondaryHash returns the content hash over the secondary bank from
	// its start through length bytes, as a lowercase hex string.
	SecondaryHash(length uint32) (string, error)

	// SecondaryActivate switches execution to the secondary bank and resets
	// the device. On hardware this call does not return.
	SecondaryActivate()

	// Reset reboots the device. On hardware this call does not return.
	Reset()
}

// Board exposes static board identity and memory sizing.
type Board interface {
	// Serial returns the hardware serial string.
	Serial() string

	// RAMSize returns the total RAM in bytes.
	RAMSize() uint32

	// RAMFree returns the currently free RAM in bytes.
	RAMFree() uint32
}

// Retained is a fixed memory region excluded from startup initialization.
// Its contents survive a warm reset but are undefined after a power cycle;
// callers must guard it with their own validity tag.
type Retained interface {
	// Bytes returns the region itself. Mutations are stored in place.
	Bytes() []byte
}

// Transport delivers framed SysEx buffers to the host.
type Transport interface {
	// Send queues one complete framed message for transmission.
	Send(frame []byte) error

	// Pending returns the number of queued outbound messages not yet on the
	// wire.
	Pending() int
}

// Hardware bundles the collaborators injected into the device core.
// Storage, Firmware and Board are required; Retained and Random are
// optional (a nil Random falls back to CryptoRandom).
type Hardware struct {
	Storage  Storage
	Firmware Firmware
	Board    Board
	Retained Retained
	Random   func() (uint32, error)
}

// CryptoRandom returns a cryptographically-sourced random value, the
// default source for the per-boot session token.
func CryptoRandom() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random source: %w", err)
	}

	return binary.LittleEndian.Uint32(b[:]), nil
}
