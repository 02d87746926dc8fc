package main

// Column is a column as reported by a live source, before it is mapped
// onto the ddl model.
type Column struct {
	SourceName string
	Name       string // normalized name used in the snapshot
	DataType   string // base type, lowercased, e.g. "varchar", "integer"
	ColumnType string // full declared type, e.g. "varchar(255)", "tinyint(1)"
	Nullable   bool
	PrimaryKey bool
	Generated  bool // value computed by the source; expression is not captured
}

// Table holds the introspected columns of one source table.
type Table struct {
	SourceName string
	Name       string
	Columns    []Column
}

// Schema holds all introspected tables of a source database.
type Schema struct {
	Name    string
	Tables  []Table
	Objects SourceObjects
}
