package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/rs/zerolog"

	"github.com/velobit/go-mididev/device"
	"github.com/velobit/go-mididev/hal"
	"github.com/velobit/go-mididev/profile"
	"github.com/velobit/go-mididev/sysex"
)

// Simulated hardware dimensions. Modeled on a small Cortex-M class board
// with a dual-bank flash layout.
const (
	simEEPROMSize = 4096
	simBlockSize  = 512
	simBankSize   = 128 * 1024
	simImageSize  = 8 * 1024
	simRetained   = 64
	simRAMSize    = 192 * 1024
	simRAMFree    = 120 * 1024
	simImageBase  = 0x4000
	simBootloader = 2 * simBlockSize
)

// simulator ties a Device to a byte-stream transport and re-runs the boot
// sequence whenever the device resets itself.
type simulator struct {
	dev       *device.Device
	firmware  *hal.MemFirmware
	retained  *hal.MemRetained
	transport *streamTransport
	storage   io.Closer
	log       zerolog.Logger
}

func newSimulator(p *profile.Profile, storagePath, serial string, log zerolog.Logger) (*simulator, error) {
	meta := p.Metadata()

	var (
		storage hal.Storage
		closer  io.Closer
	)
	if storagePath != "" {
		fs, err := hal.OpenFileStorage(storagePath, simEEPROMSize)
		if err != nil {
			return nil, err
		}
		storage, closer = fs, fs
	} else {
		storage = hal.NewMemStorage(simEEPROMSize)
	}

	firmware := hal.NewMemFirmware(simBlockSize, simBankSize)
	firmware.Base = simImageBase
	firmware.Image = buildImage(meta)
	firmware.Bootloader = buildBootloader(meta.Board)
	firmware.Meta = bootloaderMetadata(meta.Board)

	transport := &streamTransport{}

	sim := &simulator{
		firmware:  firmware,
		retained:  hal.NewMemRetained(simRetained),
		transport: transport,
		storage:   closer,
		log:       log,
	}

	hw := hal.Hardware{
		Storage:  storage,
		Firmware: firmware,
		Board:    &hal.MemBoard{SerialNo: serial, RAM: simRAMSize, Free: simRAMFree},
		Retained: sim.retained,
	}

	sim.dev = device.New(hw, transport, nil, meta,
		device.WithLogger(zerologAdapter{log}))

	// Retained memory survives a self-triggered reset, so the next Begin
	// sees the carryover exactly as new firmware would on the real board.
	firmware.OnReset = func() {
		log.Info().Int("count", firmware.Resets).Msg("device reset")
		if err := sim.dev.Begin(); err != nil {
			log.Error().Err(err).Msg("restart after reset failed")
		}
	}

	if err := sim.dev.Begin(); err != nil {
		return nil, fmt.Errorf("device startup: %w", err)
	}

	log.Info().
		Str("product", meta.Product).
		Str("name", sim.dev.Name()).
		Uint32("token", sim.dev.Token()).
		Uint8("ports", sim.dev.CurrentPorts()).
		Msg("device ready")

	return sim, nil
}

// ServeStdio reads frames from stdin and writes replies to stdout until
// the input closes.
func (s *simulator) ServeStdio() error {
	s.transport.w = os.Stdout
	s.log.Info().Msg("serving on stdio")
	return s.serve(os.Stdin)
}

// ServeTCP accepts connections one at a time. The device keeps its state
// between connections, matching a device that stays powered while the
// host cable is replugged.
func (s *simulator) ServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() { _ = ln.Close() }()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("serving on tcp")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}

		s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("host connected")
		s.transport.w = conn

		if err := s.serve(conn); err != nil {
			s.log.Error().Err(err).Msg("connection failed")
		}

		s.transport.w = nil
		_ = conn.Close()
		s.log.Info().Msg("host disconnected")
	}
}

// serve scans the byte stream for SysEx frames and hands each complete
// frame to the device. Bytes outside a frame are line noise and dropped.
func (s *simulator) serve(r io.Reader) error {
	br := bufio.NewReader(r)

	var frame []byte
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case b == sysex.Start:
			frame = append(frame[:0], b)
		case frame == nil:
			// Not inside a frame.
		case b == sysex.End:
			frame = append(frame, b)
			s.log.Debug().Int("bytes", len(frame)).Msg("request frame")
			s.dev.HandleMessage(frame)
			frame = nil
		case len(frame) >= sysex.MaxMessageSize:
			s.log.Debug().Msg("oversized frame dropped")
			frame = nil
		default:
			frame = append(frame, b)
		}
	}
}

// Close releases the storage file, if any.
func (s *simulator) Close() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

// buildImage synthesizes an active firmware image so the reported hash is
// stable for a given profile.
func buildImage(meta device.Metadata) []byte {
	img := make([]byte, simImageSize)
	for i := range img {
		img[i] = 0xFF
	}
	copy(img, fmt.Sprintf("%s %d %s", meta.ID, meta.Version, meta.Board))
	return img
}

// buildBootloader synthesizes the bootloader region that an update copies
// into the secondary bank.
func buildBootloader(board string) []byte {
	bl := make([]byte, simBootloader)
	for i := range bl {
		bl[i] = 0xFF
	}
	copy(bl, "bootloader "+board)
	return bl
}

// bootloaderMetadata builds the JSON record the bootloader embeds at the
// end of its flash area.
func bootloaderMetadata(board string) []byte {
	meta, _ := json.Marshal(map[string]any{
		device.BootloaderNamespace: map[string]any{"board": board},
	})
	return meta
}

// streamTransport writes frames to the current connection. A completed
// Write is on the wire, so nothing is ever pending.
type streamTransport struct {
	w io.Writer
}

func (t *streamTransport) Send(frame []byte) error {
	if t.w == nil {
		return errors.New("no host connected")
	}
	_, err := t.w.Write(frame)
	return err
}

func (t *streamTransport) Pending() int {
	return 0
}

// zerologAdapter adapts a zerolog.Logger to the device logging interface.
type zerologAdapter struct {
	log zerolog.Logger
}

func (a zerologAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.emit(a.log.Debug(), msg, keysAndValues)
}

func (a zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.emit(a.log.Info(), msg, keysAndValues)
}

func (a zerologAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.emit(a.log.Error(), msg, keysAndValues)
}

func (a zerologAdapter) emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
