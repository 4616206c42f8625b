package profile

import (
	"fmt"
	"strings"
)

// Validate checks profile correctness. It performs declarative validation
// only and MUST NOT mutate the profile.
func Validate(p *Profile) error {
	d := p.Device

	if d.ID == "" {
		return fmt.Errorf("device id is required")
	}
	if !strings.Contains(d.ID, ".") {
		return fmt.Errorf("device id %q must be a reverse-domain identifier", d.ID)
	}

	if d.Version == 0 {
		return fmt.Errorf("device version must be greater than zero")
	}

	if d.Product == "" {
		return fmt.Errorf("device product name is required")
	}
	for i := 0; i < len(d.Product); i++ {
		if d.Product[i] > 0x7F {
			return fmt.Errorf("device product name must contain ASCII characters only")
		}
	}

	for _, link := range []struct {
		name  string
		value string
	}{
		{"home", d.Home},
		{"download", d.Download},
	} {
		if link.value == "" {
			continue
		}
		if !strings.HasPrefix(link.value, "https://") {
			return fmt.Errorf("%s link %q must include the https:// prefix", link.name, link.value)
		}
	}

	if d.USB.Ports < 1 || d.USB.Ports > 16 {
		return fmt.Errorf("usb ports %d out of range: must be 1..16", d.USB.Ports)
	}

	return nil
}
