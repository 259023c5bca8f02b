package flash

import (
	"errors"
	"fmt"
)

// ErrUnknownBag is returned when a bag name is neither "now" nor "later".
var ErrUnknownBag = errors.New("flash: unknown bag")

// Bag identifies one of the two flash bags. The zero value is Now.
type Bag uint8

const (
	// Now holds messages visible to the current request.
	Now Bag = iota

	// Later holds messages that become visible after the next rotation.
	Later
)

// Storage keys for the bags. These are persisted inside session data and
// must not change.
const (
	nowKey   = "now"
	laterKey = "later"
)

// String returns the storage key of the bag.
func (b Bag) String() string {
	switch b {
	case Now:
		return nowKey
	case Later:
		return laterKey
	default:
		return fmt.Sprintf("Bag(%d)", uint8(b))
	}
}

func (b Bag) valid() bool {
	return b == Now || b == Later
}

// ParseBag converts a storage key back into a Bag.
func ParseBag(s string) (Bag, error) {
	switch s {
	case nowKey:
		return Now, nil
	case laterKey:
		return Later, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBag, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Bag) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBag, uint8(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bag) UnmarshalText(text []byte) error {
	parsed, err := ParseBag(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
