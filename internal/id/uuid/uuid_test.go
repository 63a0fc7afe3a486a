// Package uuid includes tests for the run ID generator.
package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
)

// TestGeneratorNewRunID ensures generated IDs are unique version 7 UUIDs.
func TestGeneratorNewRunID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1, err := gen.NewRunID()
	if err != nil {
		t.Fatalf("NewRunID() error = %v", err)
	}
	id2, err := gen.NewRunID()
	if err != nil {
		t.Fatalf("NewRunID() error = %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
	}
	if id1.Version() != 7 {
		t.Fatalf("expected version 7, got %d", id1.Version())
	}
}

// TestParseRunID accepts valid IDs and rejects garbage.
func TestParseRunID(t *testing.T) {
	t.Parallel()

	want := goUUID.New()
	got, err := ParseRunID(want.String())
	if err != nil {
		t.Fatalf("ParseRunID() error = %v", err)
	}
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Fatal("expected error for invalid id")
	}
}
