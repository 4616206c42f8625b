package device

import (
	"encoding/binary"
	"fmt"
)

// Persisted record layout, little-endian:
//
//	magic      u32    layout generation tag
//	size       u32    full record size, always recordSize on write
//	name       [32]B  NUL-terminated custom USB name
//	ports      u8     configured MIDI port count
//	localMagic u32    device-specific section tag
//	localSize  u32    device-specific payload length
//
// The device-specific payload follows immediately after the record. Any
// layout change must also change recordMagic.
const (
	recordMagic uint32 = 0x7ED63A89

	nameSize         = 32
	recordHeaderSize = 8
	recordSize       = recordHeaderSize + nameSize + 1 + 8

	maxNameLen = nameSize - 1
	maxPorts   = 16
)

// configRecord is the in-memory form of the persisted record.
type configRecord struct {
	name       [nameSize]byte
	ports      uint8
	localMagic uint32
	localSize  uint32
}

// defaultRecord returns the compiled-in defaults used until a valid record
// is read from storage.
func defaultRecord() configRecord {
	return configRecord{ports: 1}
}

// Name returns the stored name up to its NUL terminator.
func (r *configRecord) Name() string {
	for i, b := range r.name {
		if b == 0 {
			return string(r.name[:i])
		}
	}
	return string(r.name[:])
}

func (r *configRecord) setName(name string) {
	r.name = [nameSize]byte{}
	copy(r.name[:], name)
}

// encode renders the full fixed-size record. The size field always carries
// the full structure capacity; the record is never partially persisted.
func (r *configRecord) encode() []byte {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(buf[0:4], recordMagic)
	binary.LittleEndian.PutUint32(buf[4:8], recordSize)
	copy(buf[8:8+nameSize], r.name[:])
	buf[8+nameSize] = r.ports
	binary.LittleEndian.PutUint32(buf[41:45], r.localMagic)
	binary.LittleEndian.PutUint32(buf[45:49], r.localSize)
	return buf
}

// decode fills the record fields from a full-capacity buffer. Magic and
// size have already been validated by the caller.
func (r *configRecord) decode(buf []byte) {
	copy(r.name[:], buf[8:8+nameSize])
	r.ports = buf[8+nameSize]
	r.localMagic = binary.LittleEndian.Uint32(buf[41:45])
	r.localSize = binary.LittleEndian.Uint32(buf[45:49])
}

// readConfiguration validates the record at the start of persistent storage
// and, unless dryrun, loads it over the in-memory defaults. It returns
// whether a valid record is present.
//
// Erased (0xFF-filled), foreign, or truncated storage fails the header
// check and leaves the compiled-in defaults untouched. A device-specific
// section that fails its own validation is skipped without affecting the
// common part.
func (d *Device) readConfiguration(dryrun bool) bool {
	raw := make([]byte, recordSize)
	if err := d.hw.Storage.Read(0, raw); err != nil {
		d.logError("read configuration storage", "error", err)
		return false
	}

	magic := binary.LittleEndian.Uint32(raw[0:4])
	size := binary.LittleEndian.Uint32(raw[4:8])

	if magic != recordMagic {
		return false
	}
	if size <= recordHeaderSize || size > recordSize {
		return false
	}

	if dryrun {
		return true
	}

	// Overlay the declared number of bytes over the current defaults;
	// fields past a shorter record keep their in-memory values.
	cur := d.record.encode()
	copy(cur, raw[:size])
	d.record.decode(cur)

	if name := d.record.Name(); name != "" {
		d.customName = name
	}

	// Device-specific section.
	local := d.cfg.local
	if local == nil || d.record.localMagic != local.magic {
		return true
	}
	if d.record.localSize == 0 || int(d.record.localSize) > len(local.data) {
		return true
	}

	payload := make([]byte, d.record.localSize)
	if err := d.hw.Storage.Read(size, payload); err != nil {
		d.logError("read local configuration", "error", err)
		return true
	}
	copy(local.data, payload)

	return true
}

// WriteConfiguration persists the full record, immediately followed by the
// registered device-specific payload. Each call rewrites the entire record;
// there are no partial writes.
func (d *Device) WriteConfiguration() error {
	if local := d.cfg.local; local != nil {
		d.record.localMagic = local.magic
		d.record.localSize = uint32(len(local.data))
	} else {
		d.record.localMagic = 0
		d.record.localSize = 0
	}

	if err := d.hw.Storage.Write(0, d.record.encode()); err != nil {
		return fmt.Errorf("write configuration record: %w", err)
	}

	if local := d.cfg.local; local != nil && len(local.data) > 0 {
		if err := d.hw.Storage.Write(recordSize, local.data); err != nil {
			return fmt.Errorf("write local configuration: %w", err)
		}
	}

	return nil
}
