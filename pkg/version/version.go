// Package version parses firmware version strings and checks a device's
// firmware against the protocol generation this library speaks.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// Current is the "major.minor" protocol version implemented by this library.
// Firmware with the same major version is compatible.
const Current = "1.0"

// ErrIncompatible reports firmware from a different protocol generation.
var ErrIncompatible = errors.New("incompatible firmware")

// Parse parses "major.minor.patch". A missing patch component reads as zero
// and a leading "v" is ignored.
func Parse(s string) (wire.Version, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return wire.Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	var nums [3]uint32
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return wire.Version{}, fmt.Errorf("invalid version %q: bad component %q", s, part)
		}
		nums[i] = uint32(n)
	}
	return wire.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Supported returns Current as a version.
func Supported() wire.Version {
	v, _ := Parse(Current)
	return v
}

// Compare returns -1, 0 or +1 as a is older than, equal to or newer than b.
func Compare(a, b wire.Version) int {
	for _, d := range [][2]uint32{{a.Major, b.Major}, {a.Minor, b.Minor}, {a.Patch, b.Patch}} {
		switch {
		case d[0] < d[1]:
			return -1
		case d[0] > d[1]:
			return 1
		}
	}
	return 0
}

// Compatible returns true if the firmware shares the supported major version.
func Compatible(firmware wire.Version) bool {
	return firmware.Major == Supported().Major
}

// Check returns an error wrapping ErrIncompatible if firmware is not
// Compatible.
func Check(firmware wire.Version) error {
	if Compatible(firmware) {
		return nil
	}
	return fmt.Errorf("%w: device runs %s, client speaks %s", ErrIncompatible, firmware.String(), Current)
}
