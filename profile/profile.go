// Package profile loads and validates YAML device profiles. A profile
// carries the static identity a simulated or host-provisioned device is
// built from; it maps one-to-one onto device.Metadata.
package profile

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/velobit/go-mididev/device"
)

type Profile struct {
	Device DeviceProfile `yaml:"device"`
}

type DeviceProfile struct {
	// ID is the reverse-domain firmware identifier.
	ID      string `yaml:"id"`
	Version uint32 `yaml:"version"`
	Board   string `yaml:"board"`

	Vendor      string `yaml:"vendor"`
	Product     string `yaml:"product"`
	Description string `yaml:"description"`

	// Links, including the protocol prefix.
	Home     string `yaml:"home"`
	Download string `yaml:"download"`

	USB USBProfile `yaml:"usb"`
}

type USBProfile struct {
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
	Ports     uint8  `yaml:"ports"`
}

// Load reads and decodes a profile file. The result is not validated;
// call Validate before using it.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Decode reads a profile from any reader. Unknown fields are rejected so a
// typo in a profile surfaces instead of silently applying defaults.
func Decode(r io.Reader) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &p, nil
}

// Metadata converts the profile into the device metadata record.
func (p *Profile) Metadata() device.Metadata {
	d := p.Device
	return device.Metadata{
		ID:          d.ID,
		Version:     d.Version,
		Board:       d.Board,
		Vendor:      d.Vendor,
		Product:     d.Product,
		Description: d.Description,
		Home:        d.Home,
		Download:    d.Download,
		VendorID:    d.USB.VendorID,
		ProductID:   d.USB.ProductID,
		Ports:       d.USB.Ports,
	}
}
