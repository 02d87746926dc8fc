package ddl

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCreateTableSQL(t *testing.T) {
	ct := CreateTable{Table: TableDefinition{
		Name:    MustIdentifier("t"),
		Columns: []Column{{Name: MustIdentifier("id"), Type: Uuid, PrimaryKey: true}},
	}}

	got, err := ct.SQL()
	if err != nil {
		t.Fatalf("SQL() error: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS t ( id UUID PRIMARY KEY NOT NULL );"
	if got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
}

func TestCreateTableSQL_DeclaredOrder(t *testing.T) {
	ct := CreateTable{Table: TableDefinition{
		Name: MustIdentifier("new_table"),
		Columns: []Column{
			{Name: MustIdentifier("uuid_pk_nonnull"), Type: Uuid, PrimaryKey: true},
			col("string", String, true),
			col("bool_nonnull", Boolean, false),
			col("float_nonnull", Float, false),
			col("int", Int, true),
			col("create_timestamp", Timestamp, true),
		},
	}}

	got, err := ct.SQL()
	if err != nil {
		t.Fatalf("SQL() error: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS new_table ( " +
		"uuid_pk_nonnull UUID PRIMARY KEY NOT NULL, " +
		"string VARCHAR, " +
		"bool_nonnull BOOL NOT NULL, " +
		"float_nonnull FLOAT NOT NULL, " +
		"int INT, " +
		"create_timestamp TIMESTAMP );"
	if got != want {
		t.Errorf("SQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateTableSQL_NoColumns(t *testing.T) {
	got, err := CreateTable{Table: TableDefinition{Name: MustIdentifier("empty")}}.SQL()
	if err != nil {
		t.Fatalf("SQL() error: %v", err)
	}
	if got != "CREATE TABLE IF NOT EXISTS empty ();" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestAlterTableSQL_OneStatementPerAction(t *testing.T) {
	alter, err := DiffTable(baseTable(), changedTable())
	if err != nil {
		t.Fatal(err)
	}

	got, err := alter.SQL()
	if err != nil {
		t.Fatalf("SQL() error: %v", err)
	}
	want := []string{
		"ALTER TABLE IF EXISTS t ALTER COLUMN bool TYPE VARCHAR, ALTER COLUMN bool DROP NOT NULL;",
		"ALTER TABLE IF EXISTS t ALTER COLUMN int TYPE FLOAT;",
		"ALTER TABLE IF EXISTS t ADD COLUMN IF NOT EXISTS new_column VARCHAR NOT NULL;",
		"ALTER TABLE IF EXISTS t ALTER COLUMN string_nullable SET NOT NULL;",
		"ALTER TABLE IF EXISTS t DROP COLUMN IF EXISTS timestamp;",
	}
	if lines := strings.Split(got, "\n"); !reflect.DeepEqual(lines, want) {
		t.Errorf("SQL() =\n%s\nwant\n%s", got, strings.Join(want, "\n"))
	}
}

func TestAlterTableSQL_Rename(t *testing.T) {
	alter := &AlterTable{
		TableName: MustIdentifier("old"),
		Actions:   []AlterTableAction{RenameTable{NewName: MustIdentifier("new")}},
	}
	got, err := alter.SQL()
	if err != nil {
		t.Fatalf("SQL() error: %v", err)
	}
	if got != "ALTER TABLE IF EXISTS old RENAME TO new;" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestAlterTableSQL_RevalidatesTableName(t *testing.T) {
	alter := &AlterTable{Actions: []AlterTableAction{DropColumn{Name: MustIdentifier("a")}}}
	if _, err := alter.SQL(); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("SQL() error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestAlterColumnSQL(t *testing.T) {
	tests := []struct {
		name   string
		action AlterColumn
		want   string
	}{
		{
			"type only",
			AlterColumn{Name: MustIdentifier("n"), Actions: []AlterColumnAction{SetType{Type: Timestamp}}},
			"ALTER COLUMN n TYPE TIMESTAMP",
		},
		{
			"drop not null",
			AlterColumn{Name: MustIdentifier("n"), Actions: []AlterColumnAction{SetNullability{Nullable: true}}},
			"ALTER COLUMN n DROP NOT NULL",
		},
		{
			"set not null",
			AlterColumn{Name: MustIdentifier("n"), Actions: []AlterColumnAction{SetNullability{Nullable: false}}},
			"ALTER COLUMN n SET NOT NULL",
		},
		{
			"both",
			AlterColumn{Name: MustIdentifier("n"), Actions: []AlterColumnAction{SetType{Type: Int}, SetNullability{Nullable: false}}},
			"ALTER COLUMN n TYPE INT, ALTER COLUMN n SET NOT NULL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.action.SQL()
			if err != nil {
				t.Fatalf("SQL() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationSQL(t *testing.T) {
	users := TableDefinition{Name: MustIdentifier("users"), Columns: []Column{{Name: MustIdentifier("id"), Type: Int, PrimaryKey: true}}}
	m := Migration{Actions: []MigrationAction{
		DropTable{Name: MustIdentifier("legacy")},
		CreateTable{Table: users},
		&AlterTable{TableName: MustIdentifier("orders"), Actions: []AlterTableAction{
			AddColumn{Column: col("note", String, true)},
			DropColumn{Name: MustIdentifier("memo")},
		}},
	}}

	got, err := m.SQL()
	if err != nil {
		t.Fatalf("SQL() error: %v", err)
	}
	want := strings.Join([]string{
		"DROP TABLE IF EXISTS legacy;",
		"CREATE TABLE IF NOT EXISTS users ( id INT PRIMARY KEY NOT NULL );",
		"ALTER TABLE IF EXISTS orders ADD COLUMN IF NOT EXISTS note VARCHAR;",
		"ALTER TABLE IF EXISTS orders DROP COLUMN IF EXISTS memo;",
	}, "\n")
	if got != want {
		t.Errorf("SQL() =\n%s\nwant\n%s", got, want)
	}

	again, _ := m.SQL()
	if again != got {
		t.Error("rendering is not repeatable")
	}

	stmts, err := m.Statements()
	if err != nil {
		t.Fatalf("Statements() error: %v", err)
	}
	if len(stmts) != 4 || stmts[0] != "DROP TABLE IF EXISTS legacy" {
		t.Errorf("Statements() = %q", stmts)
	}
}

func TestMigrationSQL_Empty(t *testing.T) {
	got, err := Migration{}.SQL()
	if err != nil || got != "" {
		t.Errorf("empty Migration.SQL() = %q, %v", got, err)
	}
}

func TestMigrationSQL_FailsFast(t *testing.T) {
	m := Migration{Actions: []MigrationAction{
		DropTable{Name: MustIdentifier("ok")},
		CreateTable{Table: TableDefinition{Name: MustIdentifier("t"), Columns: []Column{{Type: Int}}}},
	}}
	got, err := m.SQL()
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("SQL() error = %v, want ErrInvalidIdentifier", err)
	}
	if got != "" {
		t.Errorf("partial SQL returned: %q", got)
	}
}

func TestColumnSQL_UnknownType(t *testing.T) {
	c := Column{Name: MustIdentifier("x"), Type: ColumnType(77)}
	if _, err := c.SQL(); !errors.Is(err, ErrUnknownColumnType) {
		t.Fatalf("SQL() error = %v, want ErrUnknownColumnType", err)
	}
	if _, err := (SetType{}).SQL(); !errors.Is(err, ErrUnknownColumnType) {
		t.Fatalf("SetType{}.SQL() error = %v, want ErrUnknownColumnType", err)
	}
}
