package hal

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
)

// MemStorage is an in-memory Storage implementation. A fresh instance reads
// as erased (0xFF in every byte).
type MemStorage struct {
	data []byte
}

// NewMemStorage creates an erased in-memory storage area of the given size.
func NewMemStorage(size uint32) *MemStorage {
	s := &MemStorage{data: make([]byte, size)}
	_ = s.Erase()
	return s
}

func (s *MemStorage) Size() uint32 {
	return uint32(len(s.data))
}

func (s *MemStorage) Read(offset uint32, buf []byte) error {
	if int(offset)+len(buf) > len(s.data) {
		return fmt.Errorf("storage read out of range: offset %d length %d, size %d",
			offset, len(buf), len(s.data))
	}

	copy(buf, s.data[offset:])
	return nil
}

func (s *MemStorage) Write(offset uint32, data []byte) error {
	if int(offset)+len(data) > len(s.data) {
		return fmt.Errorf("storage write out of range: offset %d length %d, size %d",
			offset, len(data), len(s.data))
	}

	copy(s.data[offset:], data)
	return nil
}

func (s *MemStorage) Erase() error {
	for i := range s.data {
		s.data[i] = 0xFF
	}
	return nil
}

// Bytes returns the backing area for direct inspection and corruption in
// tests.
func (s *MemStorage) Bytes() []byte {
	return s.data
}

// MemFirmware is an in-memory Firmware implementation with an active image,
// a secondary bank, and a bootloader region. Activation and resets are
// recorded instead of actually restarting anything.
type MemFirmware struct {
	// Image is the active firmware image.
	Image []byte

	// Secondary is the inactive bank written during an update.
	Secondary []byte

	// Bootloader is copied into the secondary bank by
	// SecondaryCopyBootloader.
	Bootloader []byte

	// Meta is the JSON record embedded at the end of the bootloader.
	Meta []byte

	// Base is the active image start address.
	Base uint32

	// Block is the flash program/erase granularity.
	Block uint32

	// Activated records a SecondaryActivate call.
	Activated bool

	// Resets counts Reset calls (activation also counts as one).
	Resets int

	// OnReset, if set, runs after every Reset or SecondaryActivate. The
	// simulator uses it to re-run the boot sequence.
	OnReset func()
}

// NewMemFirmware creates a simulated flash layout with the given block size
// and an erased secondary bank of bankSize bytes.
func NewMemFirmware(blockSize, bankSize uint32) *MemFirmware {
	secondary := make([]byte, bankSize)
	for i := range secondary {
		secondary[i] = 0xFF
	}

	return &MemFirmware{
		Secondary: secondary,
		Block:     blockSize,
	}
}

func (f *MemFirmware) Start() uint32 {
	return f.Base
}

func (f *MemFirmware) Size() uint32 {
	return uint32(len(f.Image))
}

func (f *MemFirmware) FlashSize() uint32 {
	return uint32(len(f.Image) + len(f.Secondary))
}

func (f *MemFirmware) BlockSize() uint32 {
	return f.Block
}

func (f *MemFirmware) Hash() (string, error) {
	return digest(f.Image), nil
}

func (f *MemFirmware) BootloaderMetadata() []byte {
	return f.Meta
}

func (f *MemFirmware) SecondaryWrite(offset uint32, block []byte) error {
	if uint32(len(block)) != f.Block {
		return fmt.Errorf("secondary write: block length %d, want %d", len(block), f.Block)
	}

	if int(offset)+len(block) > len(f.Secondary) {
		return fmt.Errorf("secondary write out of range: offset %d, bank size %d",
			offset, len(f.Secondary))
	}

	copy(f.Secondary[offset:], block)
	return nil
}

func (f *MemFirmware) SecondaryCopyBootloader() error {
	if len(f.Bootloader) > len(f.Secondary) {
		return fmt.Errorf("bootloader larger than secondary bank")
	}

	copy(f.Secondary, f.Bootloader)
	return nil
}

func (f *MemFirmware) SecondaryHash(length uint32) (string, error) {
	if int(length) > len(f.Secondary) {
		return "", fmt.Errorf("secondary hash out of range: length %d, bank size %d",
			length, len(f.Secondary))
	}

	return digest(f.Secondary[:length]), nil
}

func (f *MemFirmware) SecondaryActivate() {
	f.Activated = true
	f.Image = append(f.Image[:0:0], f.Secondary...)
	f.Reset()
}

func (f *MemFirmware) Reset() {
	f.Resets++
	if f.OnReset != nil {
		f.OnReset()
	}
}

// digest is the image content hash: 40 hex characters, matching what the
// update host computes over the image file.
func digest(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// MemBoard is a static Board implementation.
type MemBoard struct {
	SerialNo string
	RAM      uint32
	Free     uint32
}

func (b *MemBoard) Serial() string {
	return b.SerialNo
}

func (b *MemBoard) RAMSize() uint32 {
	return b.RAM
}

func (b *MemBoard) RAMFree() uint32 {
	return b.Free
}

// MemRetained models a no-init RAM region. A fresh instance holds junk, as
// real retained memory does after a power cycle.
type MemRetained struct {
	data []byte
}

// NewMemRetained creates a retained region of the given size with undefined
// contents.
func NewMemRetained(size int) *MemRetained {
	r := &MemRetained{data: make([]byte, size)}
	r.Scramble()
	return r
}

func (r *MemRetained) Bytes() []byte {
	return r.data
}

// Scramble fills the region with junk, simulating a cold power-up.
func (r *MemRetained) Scramble() {
	for i := range r.data {
		r.data[i] = byte(0xA5 ^ i*31)
	}
}

// MemTransport collects outbound frames for inspection in tests. Backlog
// simulates frames still queued on the wire.
type MemTransport struct {
	Frames  [][]byte
	Backlog int
	SendErr error
}

func (t *MemTransport) Send(frame []byte) error {
	if t.SendErr != nil {
		return t.SendErr
	}

	t.Frames = append(t.Frames, append([]byte(nil), frame...))
	return nil
}

func (t *MemTransport) Pending() int {
	return t.Backlog
}

// Last returns the most recently sent frame, or nil if none was sent.
func (t *MemTransport) Last() []byte {
	if len(t.Frames) == 0 {
		return nil
	}
	return t.Frames[len(t.Frames)-1]
}

// WriterTransport writes each frame straight to an io.Writer. Pending is
// always zero: a completed Write is on the wire.
type WriterTransport struct {
	W io.Writer
}

func (t *WriterTransport) Send(frame []byte) error {
	_, err := t.W.Write(frame)
	return err
}

func (t *WriterTransport) Pending() int {
	return 0
}
