package digest

import (
	"errors"
	"fmt"
	"strings"
)

// Version selects the typed-data encoding rules.
type Version string

const (
	// V1 is the legacy array-of-fields encoding. No nested structs or arrays.
	V1 Version = "V1"
	// V3 is EIP-712 with nested structs but without arrays.
	V3 Version = "V3"
	// V4 is full EIP-712, including arrays of atomic and struct types.
	V4 Version = "V4"
)

// DefaultVersion is used when a request does not name a version.
const DefaultVersion = V1

var ErrUnsupportedVersion = errors.New("unsupported typed data version")

// ParseVersion accepts "V1", "V3" or "V4" in any case. An empty string yields DefaultVersion.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultVersion, nil
	}
	v := Version(strings.ToUpper(s))
	if _, ok := strategies[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}
	return v, nil
}

func (v Version) String() string {
	return string(v)
}
