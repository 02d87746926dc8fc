package main

import (
	"context"
	"database/sql"
	"fmt"
	"unicode"

	"github.com/Limetric/pgdelta/ddl"
)

// pgReservedWords are PostgreSQL reserved words. Identifiers are rendered
// unquoted, so a table or column with one of these names produces DDL the
// server will reject.
var pgReservedWords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "authorization": true, "between": true,
	"binary": true, "both": true, "case": true, "cast": true, "check": true,
	"collate": true, "column": true, "constraint": true, "create": true, "cross": true,
	"current_date": true, "current_role": true, "current_time": true,
	"current_timestamp": true, "current_user": true, "default": true, "deferrable": true,
	"desc": true, "distinct": true, "do": true, "else": true, "end": true, "except": true,
	"false": true, "fetch": true, "for": true, "foreign": true, "freeze": true,
	"from": true, "full": true, "grant": true, "group": true, "having": true,
	"ilike": true, "in": true, "initially": true, "inner": true, "intersect": true,
	"into": true, "is": true, "isnull": true, "join": true, "lateral": true,
	"leading": true, "left": true, "like": true, "limit": true, "localtime": true,
	"localtimestamp": true, "natural": true, "not": true, "notnull": true, "null": true,
	"offset": true, "on": true, "only": true, "or": true, "order": true, "outer": true,
	"overlaps": true, "placing": true, "primary": true, "references": true,
	"returning": true, "right": true, "select": true, "session_user": true,
	"similar": true, "some": true, "symmetric": true, "table": true, "then": true,
	"to": true, "trailing": true, "true": true, "union": true, "unique": true,
	"user": true, "using": true, "variadic": true, "verbose": true, "when": true,
	"where": true, "window": true, "with": true,
}

func isPGReservedWord(name string) bool {
	return pgReservedWords[toLowerASCII(name)]
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// collectReservedWordWarnings lists tables and columns whose names are
// PostgreSQL reserved words.
func collectReservedWordWarnings(def *ddl.DatabaseDefinition) []string {
	if def == nil {
		return nil
	}
	var warnings []string
	for _, t := range def.Tables {
		if isPGReservedWord(t.Name.String()) {
			warnings = append(warnings, fmt.Sprintf("table %s: name is a PostgreSQL reserved word", t.Name))
		}
		for _, c := range t.Columns {
			if isPGReservedWord(c.Name.String()) {
				warnings = append(warnings, fmt.Sprintf("%s.%s: name is a PostgreSQL reserved word", t.Name, c.Name))
			}
		}
	}
	return warnings
}

// collectNullablePrimaryKeyWarnings lists primary-key columns declared
// nullable. The model allows it; PostgreSQL will force NOT NULL anyway.
func collectNullablePrimaryKeyWarnings(def *ddl.DatabaseDefinition) []string {
	if def == nil {
		return nil
	}
	var warnings []string
	for _, t := range def.Tables {
		for _, c := range t.Columns {
			if c.PrimaryKey && c.Nullable {
				warnings = append(warnings, fmt.Sprintf("%s.%s: primary key column is declared nullable", t.Name, c.Name))
			}
		}
	}
	return warnings
}

// collectMixedCaseIdentifiers lists tables and columns whose names contain
// upper-case letters. PostgreSQL stores unquoted names folded to lower case.
func collectMixedCaseIdentifiers(def *ddl.DatabaseDefinition) []string {
	if def == nil {
		return nil
	}
	var names []string
	for _, t := range def.Tables {
		if name := t.Name.String(); toLowerASCII(name) != name {
			names = append(names, fmt.Sprintf("table %s (stored as %s)", name, toLowerASCII(name)))
		}
		for _, c := range t.Columns {
			if name := c.Name.String(); toLowerASCII(name) != name {
				names = append(names, fmt.Sprintf("%s.%s (stored as %s)", t.Name, name, toLowerASCII(name)))
			}
		}
	}
	return names
}

// toSnakeCase converts camelCase to snake_case, keeping acronyms together.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var result []rune
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			result = append(result, r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				result = append(result, '_')
			}
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// collectStringRows is a helper to collect single-column string results.
func collectStringRows(ctx context.Context, db *sql.DB, query string, args []any, out *[]string) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		*out = append(*out, v)
	}
	return rows.Err()
}
