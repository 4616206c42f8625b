// Package device implements the management plane of a MIDI-class USB
// device: a JSON-over-SysEx command protocol, versioned configuration
// persistence, and a dual-bank firmware update workflow with hash
// verification and reboot handoff.
//
// # Overview
//
// A Device is constructed once at startup from the hardware collaborators,
// a transport, and static metadata, then started with Begin:
//
//	dev := device.New(hw, transport, nil, device.Metadata{
//	    ID:      "com.example.frobnicator",
//	    Version: 12,
//	    Vendor:  "Example Instruments",
//	    Product: "Frobnicator",
//	    Ports:   1,
//	})
//	if err := dev.Begin(); err != nil {
//	    log.Fatal(err)
//	}
//
// The surrounding runtime feeds every complete inbound SysEx buffer to
// HandleMessage. All protocol handling, from parsing and dispatch through
// configuration and flash writes, runs synchronously on the caller's
// goroutine, in strict arrival order. A reply is always fully built and transmitted
// before the next buffer is processed.
//
// # Session Token
//
// Begin generates one random correlation token per run cycle. Requests that
// carry a token are dropped unless it matches the current one, which
// rejects commands queued against a prior boot. The token is a correlation
// aid, not a security credential.
//
// # Device-Specific Behavior
//
// Device-specific state is injected through the Handler interface rather
// than subclassing. Embed NopHandler and override the hooks the device
// needs:
//
//	type frobnicator struct {
//	    device.NopHandler
//	    config frobConfig
//	}
//
//	func (f *frobnicator) ExportConfiguration(c map[string]any) {
//	    c["#mode"] = "Operating Mode"
//	    c["mode"] = f.config.Mode
//	}
//
// A device-specific configuration payload registered with
// WithLocalConfiguration is persisted after the common record and restored
// on the next startup when its magic and size validate.
//
// # Firmware Update
//
// The writeFirmware method drives a chunked update of the secondary flash
// bank. Every chunk is acknowledged with a status reply; the final chunk
// carries the whole-image hash, and on a match the device activates the
// secondary bank and resets. A mismatch leaves the running image untouched
// and reports hashMismatch so the host can resend.
package device
