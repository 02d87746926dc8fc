package ddl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned when a name is empty or contains
// characters outside [a-zA-Z0-9_].
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Identifier is a validated SQL name. The zero value is not a valid
// identifier and is rejected wherever it is rendered.
type Identifier struct {
	value string
}

// NewIdentifier validates value and wraps it.
func NewIdentifier(value string) (Identifier, error) {
	if err := validateIdentifier(value); err != nil {
		return Identifier{}, err
	}
	return Identifier{value: value}, nil
}

// MustIdentifier is like NewIdentifier but panics on invalid input.
// Intended for tests and package-level literals.
func MustIdentifier(value string) Identifier {
	id, err := NewIdentifier(value)
	if err != nil {
		panic(err)
	}
	return id
}

func (i Identifier) String() string { return i.value }

// Compare orders identifiers by byte-wise comparison of their values.
func (i Identifier) Compare(other Identifier) int {
	return strings.Compare(i.value, other.value)
}

// revalidate re-checks an identifier that may have been built without
// NewIdentifier (e.g. the zero value).
func (i Identifier) revalidate() error {
	return validateIdentifier(i.value)
}

func validateIdentifier(value string) error {
	if value == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("%w: %q contains %q, only [a-zA-Z0-9_] is allowed", ErrInvalidIdentifier, value, r)
		}
	}
	return nil
}
