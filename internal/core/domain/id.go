package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes for generated entity identifiers.
const (
	UserIDPrefix    = "usr_"
	ProductIDPrefix = "prd_"
	OrderIDPrefix   = "ord_"
)

// NewID generates a prefixed, lowercase ULID.
// Format: {prefix}{ulid_lowercase}, e.g. prd_01hx...
func NewID(prefix string) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return prefix + strings.ToLower(id.String()), nil
}

// ValidID reports whether id carries the given prefix and a parsable ULID.
func ValidID(prefix, id string) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(strings.TrimPrefix(id, prefix)))
	return err == nil
}
