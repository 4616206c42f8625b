package device

import (
	"encoding/binary"
	"fmt"

	"github.com/velobit/go-mididev/hal"
)

// BootSession holds the single correlation token generated for this
// power/run cycle. It is never persisted and is regenerated on every
// startup, including self-triggered reboots.
type BootSession struct {
	token uint32
}

func newBootSession(random func() (uint32, error)) (BootSession, error) {
	token, err := random()
	if err != nil {
		return BootSession{}, fmt.Errorf("generate session token: %w", err)
	}
	return BootSession{token: token}, nil
}

// Token returns the session token.
func (s BootSession) Token() uint32 {
	return s.token
}

// Retained carryover layout: guard magic u32 + ports override u8. The guard
// value alone distinguishes a warm reset (contents preserved) from a cold
// power-up (contents undefined).
const (
	carryoverMagic uint32 = 0x8F734E41
	carryoverSize         = 5
)

// BootCarryover is the retained-memory record that passes a one-shot
// parameter across a self-triggered reboot. It survives a warm reset but
// not a power cycle.
type BootCarryover struct {
	mem hal.Retained
}

// newBootCarryover attaches to the retained region. When the guard magic is
// absent the contents are undefined (cold power-up) and the record is
// cleared and re-tagged.
func newBootCarryover(mem hal.Retained) (*BootCarryover, error) {
	b := mem.Bytes()
	if len(b) < carryoverSize {
		return nil, fmt.Errorf("retained region too small: %d bytes, need %d",
			len(b), carryoverSize)
	}

	c := &BootCarryover{mem: mem}

	if binary.LittleEndian.Uint32(b[0:4]) != carryoverMagic {
		c.clear()
		binary.LittleEndian.PutUint32(b[0:4], carryoverMagic)
	}

	return c, nil
}

func (c *BootCarryover) clear() {
	c.mem.Bytes()[4] = 0
}

// StashPorts stores a one-shot port count for the next boot.
func (c *BootCarryover) StashPorts(ports uint8) {
	c.mem.Bytes()[4] = ports
}

// TakePorts consumes the stashed override, returning 0 when none is set.
// The record is cleared so a stale override cannot reapply on a later
// unrelated reset.
func (c *BootCarryover) TakePorts() uint8 {
	ports := c.mem.Bytes()[4]
	c.clear()
	return ports
}
