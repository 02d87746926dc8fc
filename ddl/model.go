package ddl

// Column is a single column of a table definition.
type Column struct {
	Name       Identifier
	Type       ColumnType
	PrimaryKey bool
	Nullable   bool
}

// TableDefinition describes one table. Column order is the declared
// order and only matters for CREATE TABLE; diffing ignores it.
//
// Column names are expected to be unique. The differ does not check this.
type TableDefinition struct {
	Name    Identifier
	Columns []Column
}

// Column returns the column with the given name.
func (t TableDefinition) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name.value == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the primary-key columns in declared order.
func (t TableDefinition) PrimaryKey() []Column {
	var pk []Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// DatabaseDefinition is a named set of tables with unique names.
type DatabaseDefinition struct {
	Name   string
	Tables []TableDefinition
}

// Table returns the table with the given name.
func (d DatabaseDefinition) Table(name string) (TableDefinition, bool) {
	for _, t := range d.Tables {
		if t.Name.value == name {
			return t, true
		}
	}
	return TableDefinition{}, false
}
