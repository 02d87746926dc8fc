package ddl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownColumnType is returned when rendering a ColumnType outside the
// supported set.
var ErrUnknownColumnType = errors.New("unknown column type")

// ColumnType is the closed set of supported column kinds.
type ColumnType int

const (
	Boolean ColumnType = iota + 1
	Int
	Float
	String
	Timestamp
	Uuid
)

var columnTypeKeywords = map[ColumnType]string{
	Boolean:   "BOOL",
	Int:       "INT",
	Float:     "FLOAT",
	String:    "VARCHAR",
	Timestamp: "TIMESTAMP",
	Uuid:      "UUID",
}

var columnTypeNames = map[ColumnType]string{
	Boolean:   "boolean",
	Int:       "int",
	Float:     "float",
	String:    "string",
	Timestamp: "timestamp",
	Uuid:      "uuid",
}

// ColumnTypes lists every supported type in declaration order.
func ColumnTypes() []ColumnType {
	return []ColumnType{Boolean, Int, Float, String, Timestamp, Uuid}
}

// Keyword returns the canonical SQL type keyword, or "" for an
// unsupported value.
func (t ColumnType) Keyword() string {
	return columnTypeKeywords[t]
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType accepts a type name ("string") or its SQL keyword
// ("VARCHAR"), case-insensitively.
func ParseColumnType(s string) (ColumnType, error) {
	want := strings.TrimSpace(s)
	for _, t := range ColumnTypes() {
		if strings.EqualFold(want, columnTypeNames[t]) || strings.EqualFold(want, columnTypeKeywords[t]) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColumnType, s)
}

func (t ColumnType) keyword() (string, error) {
	kw := t.Keyword()
	if kw == "" {
		return "", fmt.Errorf("%w: %d", ErrUnknownColumnType, int(t))
	}
	return kw, nil
}
