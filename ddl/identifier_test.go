package ddl

import (
	"errors"
	"testing"
)

func TestNewIdentifier(t *testing.T) {
	tests := []struct {
		in  string
		err bool
	}{
		{"valid_name_1", false},
		{"users", false},
		{"CamelCase", false},
		{"_leading", false},
		{"0start", false},
		{"bad-name!", true},
		{"", true},
		{"has space", true},
		{"semi;colon", true},
		{"quote\"d", true},
		{"café", true},
	}
	for _, tt := range tests {
		id, err := NewIdentifier(tt.in)
		if tt.err {
			if !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("NewIdentifier(%q) error = %v, want ErrInvalidIdentifier", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewIdentifier(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if id.String() != tt.in {
			t.Errorf("NewIdentifier(%q).String() = %q", tt.in, id.String())
		}
	}
}

func TestIdentifierCompare(t *testing.T) {
	a := MustIdentifier("a")
	b := MustIdentifier("b")
	upper := MustIdentifier("B")

	if a.Compare(b) >= 0 {
		t.Error("a should sort before b")
	}
	if b.Compare(a) <= 0 {
		t.Error("b should sort after a")
	}
	if a.Compare(MustIdentifier("a")) != 0 {
		t.Error("equal identifiers should compare as 0")
	}
	// byte order: uppercase sorts before lowercase
	if upper.Compare(a) >= 0 {
		t.Error("B should sort before a in byte order")
	}
	if a != MustIdentifier("a") {
		t.Error("identifiers with equal values should be ==")
	}
}

func TestIdentifierZeroValueRevalidate(t *testing.T) {
	var zero Identifier
	if err := zero.revalidate(); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("zero Identifier revalidate() = %v, want ErrInvalidIdentifier", err)
	}
}

func TestMustIdentifierPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustIdentifier should panic on invalid input")
		}
	}()
	MustIdentifier("no-dashes")
}
