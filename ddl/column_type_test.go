package ddl

import (
	"errors"
	"testing"
)

func TestColumnTypeKeyword(t *testing.T) {
	tests := []struct {
		typ  ColumnType
		want string
	}{
		{Boolean, "BOOL"},
		{Int, "INT"},
		{Float, "FLOAT"},
		{String, "VARCHAR"},
		{Timestamp, "TIMESTAMP"},
		{Uuid, "UUID"},
		{ColumnType(0), ""},
		{ColumnType(99), ""},
	}
	for _, tt := range tests {
		if got := tt.typ.Keyword(); got != tt.want {
			t.Errorf("%v.Keyword() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want ColumnType
		err  bool
	}{
		{"boolean", Boolean, false},
		{"BOOL", Boolean, false},
		{"int", Int, false},
		{"Float", Float, false},
		{"string", String, false},
		{"varchar", String, false},
		{" timestamp ", Timestamp, false},
		{"UUID", Uuid, false},
		{"jsonb", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColumnType(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownColumnType) {
				t.Errorf("ParseColumnType(%q) error = %v, want ErrUnknownColumnType", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColumnType(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColumnType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
