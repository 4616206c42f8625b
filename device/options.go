package device

import (
	"time"

	"github.com/velobit/go-mididev/sysex"
)

// DefaultNamespace is the JSON envelope key requests and replies are
// exchanged under.
const DefaultNamespace = "com.velobit.device"

// BootloaderNamespace is the envelope key of the JSON record embedded at
// the end of the bootloader.
const BootloaderNamespace = "com.velobit.bootloader"

// localSection is a device-specific configuration payload registered by the
// collaborator. The buffer is collaborator-owned: reads restore into it,
// writes persist from it.
type localSection struct {
	magic uint32
	data  []byte
}

// config holds the device configuration assembled from options.
type config struct {
	// Logger receives dropped-request diagnostics and storage errors
	// (optional)
	logger Logger

	// namespace is the JSON envelope key
	namespace string

	// maxMessage bounds the framed reply size
	maxMessage int

	// flushTimeout bounds the cooperative outbound drain before activation
	flushTimeout time.Duration

	// activateDelay gives the host time to consume the final status reply
	// before the USB device disconnects
	activateDelay time.Duration

	local *localSection
}

func defaultConfig() config {
	return config{
		namespace:     DefaultNamespace,
		maxMessage:    sysex.MaxMessageSize,
		flushTimeout:  100 * time.Millisecond,
		activateDelay: 100 * time.Millisecond,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*config)

// WithLogger sets a logger for protocol diagnostics.
//
// Example:
//
//	dev := device.New(hw, transport, handler, meta, device.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithNamespace overrides the JSON envelope key requests are addressed to.
func WithNamespace(namespace string) Option {
	return func(c *config) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithLocalConfiguration registers the collaborator's device-specific
// configuration payload. The buffer is persisted verbatim after the common
// record; on startup it is restored only when the stored magic matches and
// the stored size fits the buffer.
func WithLocalConfiguration(magic uint32, data []byte) Option {
	return func(c *config) {
		c.local = &localSection{magic: magic, data: data}
	}
}

// WithMaxMessageSize bounds the framed reply size. Replies that would
// exceed it fail and are not sent.
func WithMaxMessageSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.maxMessage = size
		}
	}
}

// WithFlushTimeout bounds the cooperative outbound drain that precedes
// activation. Default is 100ms.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout >= 0 {
			c.flushTimeout = timeout
		}
	}
}

// WithActivateDelay sets the pause between the final success reply and
// activating the secondary bank. Default is 100ms.
func WithActivateDelay(delay time.Duration) Option {
	return func(c *config) {
		if delay >= 0 {
			c.activateDelay = delay
		}
	}
}
