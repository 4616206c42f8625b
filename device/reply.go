package device

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/velobit/go-mididev/sysex"
)

// send serializes a reply document, escapes it down to 7-bit bytes, frames
// it and hands it to the transport. The framing bytes count against the
// maximum message size.
func (d *Device) send(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	escaped, err := sysex.Escape(raw, d.cfg.maxMessage-3)
	if err != nil {
		var overflow *sysex.OverflowError
		if errors.As(err, &overflow) {
			return &ReplyTooLargeError{Max: d.cfg.maxMessage}
		}
		return err
	}

	if err := d.transport.Send(sysex.Frame(escaped)); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	d.stats.output++
	return nil
}

// sendFirmwareStatus acknowledges one firmware update chunk, signalling
// readiness for the next block or the outcome of verification.
func (d *Device) sendFirmwareStatus(status string) {
	doc := map[string]any{
		d.cfg.namespace: map[string]any{
			"token": d.boot.Token(),
			"firmware": map[string]any{
				"status": status,
			},
		},
	}

	if err := d.send(doc); err != nil {
		d.logError("send firmware status", "status", status, "error", err)
	}
}

// sendReply sends the full device state document.
func (d *Device) sendReply() error {
	return d.send(map[string]any{d.cfg.namespace: d.buildReply()})
}

func (d *Device) buildReply() map[string]any {
	fw := d.hw.Firmware
	board := d.hw.Board

	body := map[string]any{
		// Requests and replies carry the device's current session token.
		"token": d.boot.Token(),
	}

	metadata := map[string]any{
		"serial":  board.Serial(),
		"version": d.meta.Version,
	}
	if d.meta.Product != "" {
		metadata["product"] = d.meta.Product
	}
	if d.meta.Description != "" {
		metadata["description"] = d.meta.Description
	}
	if d.meta.Vendor != "" {
		metadata["vendor"] = d.meta.Vendor
	}
	if d.meta.Home != "" {
		metadata["home"] = d.meta.Home
	}
	d.handler.ExportMetadata(metadata)
	body["metadata"] = metadata

	system := map[string]any{}
	if d.customName != "" {
		system["name"] = d.customName
	}

	system["boot"] = map[string]any{
		"uptime": uint32(time.Since(d.startedAt).Seconds()),
		"id":     d.boot.Token(),
	}

	firmware := map[string]any{
		"id":    d.meta.ID,
		"board": d.meta.Board,
		"hash":  d.firmware.hash,
		"start": fw.Start(),
		"size":  fw.Size(),
	}
	if d.meta.Download != "" {
		firmware["download"] = d.meta.Download
	}
	system["firmware"] = firmware

	hardware := map[string]any{
		"ram": map[string]any{
			"size": board.RAMSize(),
			"free": board.RAMFree(),
		},
		"flash": map[string]any{
			"size": fw.FlashSize(),
		},
		"eeprom": map[string]any{
			"size": d.hw.Storage.Size(),
			"used": d.readConfiguration(true),
		},
	}
	if b := d.bootloaderBoard(); b != "" {
		hardware["board"] = b
	}

	usb := map[string]any{
		"vid": d.meta.VendorID,
		"pid": d.meta.ProductID,
	}
	ports := map[string]any{
		"configured": d.record.ports,
		"current":    d.ports.current,
	}
	if d.meta.Ports > 0 {
		ports["standard"] = d.meta.Ports
	}
	usb["ports"] = ports
	hardware["usb"] = usb
	system["hardware"] = hardware

	system["midi"] = map[string]any{
		"input":  map[string]any{"messages": d.stats.input},
		"output": map[string]any{"messages": d.stats.output},
	}
	d.handler.ExportSystem(system)
	body["system"] = system

	settings := d.handler.ExportSettings()
	if settings == nil {
		settings = []any{}
	}
	body["settings"] = settings

	configuration := map[string]any{
		"#usb": "USB Settings",
		"usb": map[string]any{
			"#name":  "Device Name",
			"name":   d.record.Name(),
			"#ports": "Number of MIDI ports",
			"ports":  d.record.ports,
		},
	}
	d.handler.ExportConfiguration(configuration)
	body["configuration"] = configuration

	input := map[string]any{}
	d.handler.ExportInput(input)
	if len(input) > 0 {
		body["input"] = input
	}

	output := map[string]any{}
	d.handler.ExportOutput(output)
	if len(output) > 0 {
		body["output"] = output
	}

	return body
}

// bootloaderBoard extracts the board identifier from the JSON record
// embedded in the bootloader, if the bootloader carries one.
func (d *Device) bootloaderBoard() string {
	meta := d.hw.Firmware.BootloaderMetadata()
	if len(meta) == 0 {
		return ""
	}

	// The record is embedded with leading and trailing NUL characters.
	meta = bytes.Trim(meta, "\x00")

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(meta, &doc); err != nil {
		return ""
	}

	raw, ok := doc[BootloaderNamespace]
	if !ok {
		return ""
	}

	var info struct {
		Board string `json:"board"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return ""
	}

	return info.Board
}
