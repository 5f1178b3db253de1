package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefixAndUniqueness(t *testing.T) {
	a := NewID(PrefixDocument)
	b := NewID(PrefixDocument)
	if !strings.HasPrefix(a, "doc_") {
		t.Fatalf("expected doc_ prefix, got %q", a)
	}
	if len(a) != len("doc_")+32 {
		t.Fatalf("unexpected id length %d for %q", len(a), a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if raw := NewID(""); strings.Contains(raw, "_") || len(raw) != 32 {
		t.Fatalf("unexpected unprefixed id %q", raw)
	}
}
