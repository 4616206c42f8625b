package device

import (
	"fmt"
	"time"

	"github.com/velobit/go-mididev/hal"
)

// Metadata is the static device identity, compiled into the firmware image
// and reported to the host.
type Metadata struct {
	// ID is the reverse-domain firmware identifier
	// (e.g. com.example.frobnicator).
	ID string

	// Version is presented to the user as a simple decimal number.
	Version uint32

	// Board is the fully-qualified board name the image was built for.
	Board string

	// Human-readable strings, also used as USB strings.
	Vendor      string
	Product     string
	Description string

	// Home is a link to the device website, including the protocol prefix.
	Home string

	// Download links to the firmware image updates; an index.json file is
	// expected at the location.
	Download string

	// USB identifiers.
	VendorID  uint16
	ProductID uint16

	// Ports is the standard number of MIDI ports announced to the host.
	Ports uint8
}

// Device is the management-plane context object. It owns the in-memory
// configuration record, the boot session, and the firmware update state.
// All methods must be called from a single goroutine; ordering rests on
// strict request/response sequencing, not locks.
type Device struct {
	hw        hal.Hardware
	transport hal.Transport
	handler   Handler
	meta      Metadata
	cfg       config

	record     configRecord
	customName string
	boot       BootSession
	carryover  *BootCarryover

	ports struct {
		current uint8
	}

	firmware struct {
		hash     string
		progress uint32
	}

	stats struct {
		input  uint64
		output uint64
	}

	startedAt time.Time
}

// New creates a Device from the hardware bundle, the outbound transport,
// and the device metadata. Storage, firmware and board collaborators are
// required. A nil handler behaves like NopHandler.
func New(hw hal.Hardware, transport hal.Transport, handler Handler, meta Metadata, opts ...Option) *Device {
	if hw.Storage == nil {
		panic("storage cannot be nil")
	}
	if hw.Firmware == nil {
		panic("firmware cannot be nil")
	}
	if hw.Board == nil {
		panic("board cannot be nil")
	}
	if transport == nil {
		panic("transport cannot be nil")
	}
	if handler == nil {
		handler = NopHandler{}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Device{
		hw:        hw,
		transport: transport,
		handler:   handler,
		meta:      meta,
		cfg:       cfg,
		record:    defaultRecord(),
	}
}

// Begin runs the startup sequence: generate the boot session token, hash
// the active image, consume a possible carryover from the previous run,
// read the persisted configuration, and resolve the current port count.
// It must be called before HandleMessage, and again after every device
// reset when the same Device instance models the rebooted firmware.
func (d *Device) Begin() error {
	// Begin also runs after a self-triggered reset on the same Device.
	// Volatile state starts from the compiled-in defaults on every boot;
	// only persistent storage and retained memory carry anything over.
	d.record = defaultRecord()
	d.customName = ""
	d.stats.input = 0
	d.stats.output = 0

	random := d.hw.Random
	if random == nil {
		random = hal.CryptoRandom
	}

	boot, err := newBootSession(random)
	if err != nil {
		return err
	}
	d.boot = boot

	hash, err := d.hw.Firmware.Hash()
	if err != nil {
		return fmt.Errorf("hash active image: %w", err)
	}
	d.firmware.hash = hash

	// A one-shot ports override stashed before a self-triggered reboot.
	// Consumed here so it cannot reapply on a later unrelated reset.
	var portsOverride uint8
	if d.hw.Retained != nil {
		carryover, err := newBootCarryover(d.hw.Retained)
		if err != nil {
			return err
		}
		d.carryover = carryover
		portsOverride = carryover.TakePorts()
	}

	d.readConfiguration(false)
	d.handler.HandleInit()

	switch {
	case portsOverride >= 1 && portsOverride <= maxPorts:
		d.ports.current = portsOverride
	case d.record.ports > 1:
		d.ports.current = d.record.ports
	case d.meta.Ports > 0:
		d.ports.current = d.meta.Ports
	default:
		d.ports.current = 1
	}

	d.firmware.progress = 0
	d.startedAt = time.Now()
	return nil
}

// Token returns the current boot session token.
func (d *Device) Token() uint32 {
	return d.boot.Token()
}

// Name returns the custom USB name, or the product name if none is stored.
func (d *Device) Name() string {
	if d.customName != "" {
		return d.customName
	}
	return d.meta.Product
}

// CurrentPorts returns the port count resolved at startup.
func (d *Device) CurrentPorts() uint8 {
	return d.ports.current
}

// ConfiguredPorts returns the persisted port count.
func (d *Device) ConfiguredPorts() uint8 {
	return d.record.ports
}

// UpdateProgress returns the end offset of the last chunk written into the
// secondary bank, or zero when no update has run since boot. An interrupted
// update leaves the value behind until the next restart.
func (d *Device) UpdateProgress() uint32 {
	return d.firmware.progress
}

// drainOutbound cooperatively waits for the transport to flush its queued
// messages, bounded by a wall-clock deadline so a stuck transport cannot
// block forever.
func (d *Device) drainOutbound(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for d.transport.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}
