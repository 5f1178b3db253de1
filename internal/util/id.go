package util

import (
	"strings"

	"github.com/google/uuid"
)

// ID prefixes used for rows created by this service.
const (
	PrefixDocument = "doc"
	PrefixUser     = "usr"
	PrefixSession  = "jti"
)

// NewID returns a random UUIDv4 as 32 hex characters, optionally namespaced
// as "<prefix>_<hex>".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return raw
	}
	return prefix + "_" + raw
}
