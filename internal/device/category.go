package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Category identifies a class of devices in the system registry.
// It is a GUID; no local validation of membership is done.
type Category uuid.UUID

// ParseCategory parses GUID text, braced ("{...}") or bare.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Category{}, fmt.Errorf("category cannot be empty")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return Category{}, fmt.Errorf("invalid category GUID %q: %w", s, err)
	}
	return Category(id), nil
}

// MustParseCategory is like ParseCategory but panics on malformed input.
// Intended for package-level constants.
func MustParseCategory(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the registry form: upper-case and braced
func (c Category) String() string {
	return "{" + strings.ToUpper(uuid.UUID(c).String()) + "}"
}

// IsZero reports whether c is the nil GUID
func (c Category) IsZero() bool {
	return uuid.UUID(c) == uuid.Nil
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
