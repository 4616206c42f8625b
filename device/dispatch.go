package device

import (
	"encoding/json"

	"github.com/velobit/go-mididev/sysex"
)

// request is the command envelope under the device namespace.
type request struct {
	Token   *uint32 `json:"token"`
	Method  string  `json:"method"`
	Channel *uint8  `json:"channel"`

	Reboot *struct {
		Ports *uint16 `json:"ports"`
	} `json:"reboot"`

	// Configuration and firmware bodies are enclosed in their own objects
	// to prevent name clashes with the calling convention.
	Configuration json.RawMessage `json:"configuration"`
	Firmware      *firmwareChunk  `json:"firmware"`
}

// HandleMessage processes one complete inbound SysEx buffer. Commands are
// best-effort: malformed framing, foreign namespaces, stale session tokens
// and unrecognized methods are all dropped without a reply.
func (d *Device) HandleMessage(buf []byte) {
	d.stats.input++

	payload, err := sysex.ValidateRequest(buf)
	if err != nil {
		d.logDebug("dropped request", "reason", err)
		return
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		d.logDebug("dropped request", "reason", err)
		return
	}

	// Only handle requests addressed to our interface.
	raw, ok := envelope[d.cfg.namespace]
	if !ok {
		return
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		d.logDebug("dropped request", "reason", err)
		return
	}

	// A token correlates the request with the current run cycle; a
	// mismatch means the command was queued against a superseded session.
	if req.Token != nil && *req.Token != d.boot.Token() {
		d.logDebug("dropped request for stale session",
			"token", *req.Token, "session", d.boot.Token())
		return
	}

	switch req.Method {
	case "getAll":
		if err := d.sendReply(); err != nil {
			d.logError("send reply", "error", err)
		}

	case "eraseConfiguration":
		// Wipe the entire persistent area, then restart with defaults.
		if err := d.hw.Storage.Erase(); err != nil {
			d.logError("erase configuration storage", "error", err)
		}
		d.hw.Firmware.Reset()
		return

	case "switchChannel":
		if req.Channel != nil {
			d.handler.HandleSwitchChannel(*req.Channel)
		}
		if err := d.sendReply(); err != nil {
			d.logError("send reply", "error", err)
		}

	case "reboot":
		// An optional one-shot ports override for the next boot only; it
		// is stashed in retained memory, never persisted.
		if req.Reboot != nil && req.Reboot.Ports != nil && d.carryover != nil {
			if p := *req.Reboot.Ports; p >= 1 && p <= maxPorts {
				d.carryover.StashPorts(uint8(p))
			}
		}
		d.hw.Firmware.Reset()
		return

	case "writeConfiguration":
		d.importConfiguration(req.Configuration)
		if err := d.sendReply(); err != nil {
			d.logError("send reply", "error", err)
		}

	case "writeFirmware":
		d.writeFirmware(req.Firmware)
	}
}

// importConfiguration merges a writeConfiguration body into the record and
// persists it. Invalid fields are not applied; they are never fatal.
func (d *Device) importConfiguration(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	var body struct {
		USB *struct {
			Name  *string `json:"name"`
			Ports *uint16 `json:"ports"`
		} `json:"usb"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		d.logDebug("dropped configuration body", "reason", err)
		return
	}

	if body.USB != nil {
		if body.USB.Name != nil {
			d.applyName(*body.USB.Name)
		}

		if body.USB.Ports != nil {
			if p := *body.USB.Ports; p >= 1 && p <= maxPorts {
				d.record.ports = uint8(p)
			}
		}
	}

	// Device-specific section.
	if d.cfg.local != nil {
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err == nil {
			d.handler.ImportConfiguration(tree)
		}
	}

	if err := d.WriteConfiguration(); err != nil {
		d.logError("write configuration", "error", err)
	}
}

// applyName sets or clears the custom USB name. An empty name clears it; an
// invalid one (too long, embedded control bytes) is ignored.
func (d *Device) applyName(name string) {
	if name == "" {
		d.record.setName("")
		d.customName = ""
		return
	}

	if !validName(name) {
		return
	}

	d.record.setName(name)
	d.customName = name
}

func validName(name string) bool {
	if len(name) < 1 || len(name) > maxNameLen {
		return false
	}

	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] == 0x7F {
			return false
		}
	}

	return true
}
