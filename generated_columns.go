package main

import "fmt"

func collectGeneratedColumnWarnings(schema *Schema) []string {
	if schema == nil {
		return nil
	}

	var warnings []string
	for _, t := range schema.Tables {
		for _, col := range t.Columns {
			if !col.Generated {
				continue
			}
			warnings = append(warnings, fmt.Sprintf(
				"generated column %s.%s is captured as a plain %s column; its expression is not recreated",
				t.SourceName, col.SourceName, col.ColumnType,
			))
		}
	}
	return warnings
}
