package device

import (
	"fmt"
	"testing"

	"github.com/velobit/go-mididev/hal"
)

func TestBootSessionToken(t *testing.T) {
	s, err := newBootSession(func() (uint32, error) { return 0xCAFE, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Token() != 0xCAFE {
		t.Errorf("token = %d, want %d", s.Token(), 0xCAFE)
	}
}

func TestBootSessionRandomFailure(t *testing.T) {
	_, err := newBootSession(func() (uint32, error) { return 0, fmt.Errorf("no entropy") })
	if err == nil {
		t.Fatal("expected error from failing random source")
	}
}

func TestCarryoverColdBoot(t *testing.T) {
	mem := hal.NewMemRetained(8)

	c, err := newBootCarryover(mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Undefined contents mean cold: the record is cleared.
	if got := c.TakePorts(); got != 0 {
		t.Errorf("TakePorts after cold boot = %d, want 0", got)
	}
}

func TestCarryoverWarmReset(t *testing.T) {
	mem := hal.NewMemRetained(8)

	c, err := newBootCarryover(mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.StashPorts(2)

	// Warm reset preserves the region; the guard magic is already set.
	c2, err := newBootCarryover(mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := c2.TakePorts(); got != 2 {
		t.Errorf("TakePorts = %d, want 2", got)
	}

	// Consumed exactly once.
	if got := c2.TakePorts(); got != 0 {
		t.Errorf("second TakePorts = %d, want 0", got)
	}
}

func TestCarryoverLostOnPowerCycle(t *testing.T) {
	mem := hal.NewMemRetained(8)

	c, _ := newBootCarryover(mem)
	c.StashPorts(2)

	mem.Scramble()

	c2, err := newBootCarryover(mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := c2.TakePorts(); got != 0 {
		t.Errorf("TakePorts after power cycle = %d, want 0", got)
	}
}

func TestCarryoverRegionTooSmall(t *testing.T) {
	if _, err := newBootCarryover(hal.NewMemRetained(2)); err == nil {
		t.Fatal("expected error for undersized retained region")
	}
}
