package ddl

// AlterColumnAction is one change applied to an existing column.
// Implemented by SetType and SetNullability.
type AlterColumnAction interface {
	SQL() (string, error)
	alterColumnAction()
}

// SetType changes a column's type.
type SetType struct {
	Type ColumnType
}

// SetNullability changes whether a column accepts NULL. Nullable=true
// drops the NOT NULL constraint.
type SetNullability struct {
	Nullable bool
}

func (SetType) alterColumnAction()        {}
func (SetNullability) alterColumnAction() {}

// AlterTableAction is one action inside an ALTER TABLE statement.
// Implemented by RenameTable, AddColumn, DropColumn and AlterColumn.
type AlterTableAction interface {
	SQL() (string, error)
	alterTableAction()
}

type RenameTable struct {
	NewName Identifier
}

type AddColumn struct {
	Column Column
}

type DropColumn struct {
	Name Identifier
}

// AlterColumn bundles every change to a single column. A type change is
// always listed before a nullability change.
type AlterColumn struct {
	Name    Identifier
	Actions []AlterColumnAction
}

func (RenameTable) alterTableAction() {}
func (AddColumn) alterTableAction()   {}
func (DropColumn) alterTableAction()  {}
func (AlterColumn) alterTableAction() {}

// MigrationAction is one table-level step of a Migration.
// Implemented by CreateTable, AlterTable and DropTable.
type MigrationAction interface {
	SQL() (string, error)
	migrationAction()
}

type CreateTable struct {
	Table TableDefinition
}

// AlterTable holds the actions for one table, addressed by the table's
// name before any rename in Actions takes effect.
type AlterTable struct {
	TableName Identifier
	Actions   []AlterTableAction
}

type DropTable struct {
	Name Identifier
}

func (CreateTable) migrationAction() {}
func (*AlterTable) migrationAction() {}
func (DropTable) migrationAction()   {}

// Migration is an ordered list of table-level actions, rendered as one
// script in exactly this order.
type Migration struct {
	Actions []MigrationAction
}

// Empty reports whether the migration has nothing to do.
func (m Migration) Empty() bool { return len(m.Actions) == 0 }
