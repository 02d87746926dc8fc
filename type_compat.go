package main

import (
	"fmt"

	"github.com/Limetric/pgdelta/ddl"
)

// unknownType is the shared fallback for types a source cannot map.
func unknownType(source string, col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	if typeMap.UnknownAsString {
		return ddl.String, nil
	}
	return 0, fmt.Errorf("unsupported %s type %q", source, col.ColumnType)
}
