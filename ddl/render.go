package ddl

import (
	"fmt"
	"strings"
)

// SQL renders the column as "<name> <TYPE>[ PRIMARY KEY][ NOT NULL]".
func (c Column) SQL() (string, error) {
	if err := c.Name.revalidate(); err != nil {
		return "", fmt.Errorf("column: %w", err)
	}
	kw, err := c.Type.keyword()
	if err != nil {
		return "", fmt.Errorf("column %s: %w", c.Name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", c.Name, kw)
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	return b.String(), nil
}

func (a SetType) SQL() (string, error) {
	kw, err := a.Type.keyword()
	if err != nil {
		return "", err
	}
	return "TYPE " + kw, nil
}

func (a SetNullability) SQL() (string, error) {
	if a.Nullable {
		return "DROP NOT NULL", nil
	}
	return "SET NOT NULL", nil
}

func (a RenameTable) SQL() (string, error) {
	if err := a.NewName.revalidate(); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	return "RENAME TO " + a.NewName.value, nil
}

func (a AddColumn) SQL() (string, error) {
	col, err := a.Column.SQL()
	if err != nil {
		return "", err
	}
	return "ADD COLUMN IF NOT EXISTS " + col, nil
}

func (a DropColumn) SQL() (string, error) {
	if err := a.Name.revalidate(); err != nil {
		return "", fmt.Errorf("drop column: %w", err)
	}
	return "DROP COLUMN IF EXISTS " + a.Name.value, nil
}

// SQL renders one "ALTER COLUMN <name> <action>" clause per inner action,
// comma-joined.
func (a AlterColumn) SQL() (string, error) {
	if err := a.Name.revalidate(); err != nil {
		return "", fmt.Errorf("alter column: %w", err)
	}
	clauses := make([]string, 0, len(a.Actions))
	for _, action := range a.Actions {
		s, err := action.SQL()
		if err != nil {
			return "", fmt.Errorf("alter column %s: %w", a.Name, err)
		}
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s %s", a.Name, s))
	}
	return strings.Join(clauses, ", "), nil
}

// SQL renders one ALTER TABLE statement per action, newline-joined.
func (a *AlterTable) SQL() (string, error) {
	if err := a.TableName.revalidate(); err != nil {
		return "", fmt.Errorf("alter table: %w", err)
	}
	stmts := make([]string, 0, len(a.Actions))
	for _, action := range a.Actions {
		s, err := action.SQL()
		if err != nil {
			return "", fmt.Errorf("alter table %s: %w", a.TableName, err)
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE IF EXISTS %s %s;", a.TableName, s))
	}
	return strings.Join(stmts, "\n"), nil
}

// SQL renders CREATE TABLE IF NOT EXISTS with columns in declared order.
func (a CreateTable) SQL() (string, error) {
	if err := a.Table.Name.revalidate(); err != nil {
		return "", fmt.Errorf("create table: %w", err)
	}
	cols := make([]string, 0, len(a.Table.Columns))
	for _, c := range a.Table.Columns {
		s, err := c.SQL()
		if err != nil {
			return "", fmt.Errorf("create table %s: %w", a.Table.Name, err)
		}
		cols = append(cols, s)
	}
	if len(cols) == 0 {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ();", a.Table.Name), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ( %s );", a.Table.Name, strings.Join(cols, ", ")), nil
}

func (a DropTable) SQL() (string, error) {
	if err := a.Name.revalidate(); err != nil {
		return "", fmt.Errorf("drop table: %w", err)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", a.Name), nil
}

// SQL renders every action in order, newline-joined.
func (m Migration) SQL() (string, error) {
	parts := make([]string, 0, len(m.Actions))
	for _, action := range m.Actions {
		s, err := action.SQL()
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n"), nil
}

// Statements renders the migration as individual statements, one per
// executed command, without trailing semicolons.
func (m Migration) Statements() ([]string, error) {
	script, err := m.SQL()
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), ";")
		if line != "" {
			stmts = append(stmts, line)
		}
	}
	return stmts, nil
}
