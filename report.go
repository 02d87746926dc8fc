package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Limetric/pgdelta/ddl"
	"github.com/fatih/color"
)

var (
	planAdd    = color.New(color.FgGreen)
	planDrop   = color.New(color.FgRed)
	planChange = color.New(color.FgYellow)
	planNote   = color.New(color.Faint)
)

// printPlan writes a human-readable summary of a migration, one line per
// table and one indented line per table action.
func printPlan(w io.Writer, m ddl.Migration) {
	if m.Empty() {
		planNote.Fprintln(w, "No changes. Schema is up to date.")
		return
	}

	var creates, alters, drops int
	for _, action := range m.Actions {
		switch a := action.(type) {
		case ddl.CreateTable:
			creates++
			planAdd.Fprintf(w, "+ table %s (%s)\n", a.Table.Name, pluralize(len(a.Table.Columns), "column"))
			for _, c := range a.Table.Columns {
				planAdd.Fprintf(w, "    + %s\n", describeColumn(c))
			}
		case *ddl.AlterTable:
			alters++
			planChange.Fprintf(w, "~ table %s\n", a.TableName)
			for _, ta := range a.Actions {
				printTableAction(w, ta)
			}
		case ddl.DropTable:
			drops++
			planDrop.Fprintf(w, "- table %s\n", a.Name)
		}
	}
	fmt.Fprintf(w, "\nPlan: %d to create, %d to alter, %d to drop.\n", creates, alters, drops)
}

func printTableAction(w io.Writer, action ddl.AlterTableAction) {
	switch a := action.(type) {
	case ddl.RenameTable:
		planChange.Fprintf(w, "    → rename to %s\n", a.NewName)
	case ddl.AddColumn:
		planAdd.Fprintf(w, "    + %s\n", describeColumn(a.Column))
	case ddl.DropColumn:
		planDrop.Fprintf(w, "    - %s\n", a.Name)
	case ddl.AlterColumn:
		changes := make([]string, 0, len(a.Actions))
		for _, ca := range a.Actions {
			switch c := ca.(type) {
			case ddl.SetType:
				changes = append(changes, "type "+c.Type.Keyword())
			case ddl.SetNullability:
				if c.Nullable {
					changes = append(changes, "nullable")
				} else {
					changes = append(changes, "not null")
				}
			}
		}
		planChange.Fprintf(w, "    ~ %s: %s\n", a.Name, strings.Join(changes, ", "))
	}
}

func describeColumn(c ddl.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", c.Name, c.Type.Keyword())
	if c.PrimaryKey {
		b.WriteString(" primary key")
	}
	if !c.Nullable {
		b.WriteString(" not null")
	}
	return b.String()
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// logWarnings prints each warning with the WARN prefix used across the CLI.
func logWarnings(logf func(string, ...any), warnings []string) {
	for _, w := range warnings {
		logf("  WARN: %s", w)
	}
}
