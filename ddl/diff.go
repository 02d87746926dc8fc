package ddl

import "fmt"

func columnName(c Column) Identifier         { return c.Name }
func tableName(t TableDefinition) Identifier { return t.Name }
func compareIdentifiers(a, b Identifier) int { return a.Compare(b) }

// DiffTable computes the actions that turn before into after, two
// generations of the same logical table. It returns nil when the
// definitions are equivalent.
//
// A rename, if any, comes first. Column actions follow in ascending
// column-name order, not declaration order. All actions address the
// table by its original name.
func DiffTable(before, after TableDefinition) (*AlterTable, error) {
	var actions []AlterTableAction

	if before.Name != after.Name {
		actions = append(actions, RenameTable{NewName: after.Name})
	}

	err := mergeByKey(before.Columns, after.Columns, columnName, compareIdentifiers, mergeVisitor[Column]{
		onlyLeft: func(c Column) error {
			actions = append(actions, DropColumn{Name: c.Name})
			return nil
		},
		onlyRight: func(c Column) error {
			actions = append(actions, AddColumn{Column: c})
			return nil
		},
		both: func(old, cur Column) error {
			var changes []AlterColumnAction
			if old.Type != cur.Type {
				changes = append(changes, SetType{Type: cur.Type})
			}
			if old.Nullable != cur.Nullable {
				changes = append(changes, SetNullability{Nullable: cur.Nullable})
			}
			if len(changes) == 0 {
				return nil
			}
			name, err := NewIdentifier(cur.Name.value)
			if err != nil {
				return fmt.Errorf("alter column: %w", err)
			}
			actions = append(actions, AlterColumn{Name: name, Actions: changes})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("diff table %s: %w", before.Name, err)
	}

	if len(actions) == 0 {
		return nil, nil
	}

	table, err := NewIdentifier(before.Name.value)
	if err != nil {
		return nil, fmt.Errorf("diff table: %w", err)
	}
	return &AlterTable{TableName: table, Actions: actions}, nil
}

// DiffDatabase computes the migration from before to after. A nil before
// means nothing exists yet: every table of after is created, in declared
// order.
//
// Otherwise tables are matched by name: new tables are created, missing
// ones dropped, and common ones diffed with DiffTable. Actions appear in
// ascending table-name order. No reordering for foreign-key dependencies
// is attempted.
func DiffDatabase(before *DatabaseDefinition, after DatabaseDefinition) (Migration, error) {
	var m Migration

	if before == nil {
		for _, t := range after.Tables {
			m.Actions = append(m.Actions, CreateTable{Table: t})
		}
		return m, nil
	}

	err := mergeByKey(before.Tables, after.Tables, tableName, compareIdentifiers, mergeVisitor[TableDefinition]{
		onlyLeft: func(t TableDefinition) error {
			m.Actions = append(m.Actions, DropTable{Name: t.Name})
			return nil
		},
		onlyRight: func(t TableDefinition) error {
			m.Actions = append(m.Actions, CreateTable{Table: t})
			return nil
		},
		both: func(old, cur TableDefinition) error {
			alter, err := DiffTable(old, cur)
			if err != nil {
				return err
			}
			if alter != nil {
				m.Actions = append(m.Actions, alter)
			}
			return nil
		},
	})
	if err != nil {
		return Migration{}, fmt.Errorf("diff database %s: %w", after.Name, err)
	}
	return m, nil
}
