// Package crud renders parameterised SELECT, INSERT, UPDATE and DELETE
// statements for a ddl.TableDefinition.
package crud

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/Limetric/pgdelta/ddl"
)

// ErrNoPrimaryKey is returned by the by-key queries for tables that
// declare no primary-key column.
var ErrNoPrimaryKey = errors.New("table has no primary key")

// Query is a rendered statement plus the columns bound to its
// placeholders, in placeholder order.
type Query struct {
	SQL    string
	Params []ddl.Identifier
}

// Builder renders queries for one placeholder dialect.
type Builder struct {
	qb sq.StatementBuilderType
}

// NewBuilder returns a Builder for dialect: "postgres" uses $n
// placeholders, "mysql" and "sqlite" use ?.
func NewBuilder(dialect string) (*Builder, error) {
	var ph sq.PlaceholderFormat
	switch dialect {
	case "postgres", "postgresql":
		ph = sq.Dollar
	case "mysql", "sqlite", "sqlite3":
		ph = sq.Question
	default:
		return nil, fmt.Errorf("unsupported dialect %q (must be postgres, mysql or sqlite)", dialect)
	}
	return &Builder{qb: sq.StatementBuilder.PlaceholderFormat(ph)}, nil
}

// Select lists every column, table-qualified, in declared order.
func (b *Builder) Select(t ddl.TableDefinition) (Query, error) {
	cols, err := qualifiedColumns(t)
	if err != nil {
		return Query{}, err
	}
	sql, _, err := b.qb.Select(cols...).From(t.Name.String()).ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("select %s: %w", t.Name, err)
	}
	return Query{SQL: sql}, nil
}

// SelectByPrimaryKey is Select filtered on every primary-key column.
func (b *Builder) SelectByPrimaryKey(t ddl.TableDefinition) (Query, error) {
	cols, err := qualifiedColumns(t)
	if err != nil {
		return Query{}, err
	}
	where, params, err := primaryKeyFilter(t)
	if err != nil {
		return Query{}, err
	}
	sql, _, err := b.qb.Select(cols...).From(t.Name.String()).Where(where).ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("select %s: %w", t.Name, err)
	}
	return Query{SQL: sql, Params: params}, nil
}

// Insert binds every column in declared order.
func (b *Builder) Insert(t ddl.TableDefinition) (Query, error) {
	if err := checkTable(t); err != nil {
		return Query{}, err
	}
	names := make([]string, len(t.Columns))
	params := make([]ddl.Identifier, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name.String()
		params[i] = c.Name
	}
	sql, _, err := b.qb.Insert(t.Name.String()).Columns(names...).Values(make([]any, len(names))...).ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return Query{SQL: sql, Params: params}, nil
}

// UpdateByPrimaryKey sets every non-key column, then filters on the key.
func (b *Builder) UpdateByPrimaryKey(t ddl.TableDefinition) (Query, error) {
	where, keyParams, err := primaryKeyFilter(t)
	if err != nil {
		return Query{}, err
	}
	ub := b.qb.Update(t.Name.String())
	var params []ddl.Identifier
	for _, c := range t.Columns {
		if c.PrimaryKey {
			continue
		}
		ub = ub.Set(c.Name.String(), nil)
		params = append(params, c.Name)
	}
	if len(params) == 0 {
		return Query{}, fmt.Errorf("update %s: no non-key columns to set", t.Name)
	}
	sql, _, err := ub.Where(where).ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("update %s: %w", t.Name, err)
	}
	return Query{SQL: sql, Params: append(params, keyParams...)}, nil
}

func (b *Builder) DeleteByPrimaryKey(t ddl.TableDefinition) (Query, error) {
	where, params, err := primaryKeyFilter(t)
	if err != nil {
		return Query{}, err
	}
	sql, _, err := b.qb.Delete(t.Name.String()).Where(where).ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("delete %s: %w", t.Name, err)
	}
	return Query{SQL: sql, Params: params}, nil
}

func checkTable(t ddl.TableDefinition) error {
	if _, err := ddl.NewIdentifier(t.Name.String()); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	for _, c := range t.Columns {
		if _, err := ddl.NewIdentifier(c.Name.String()); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	return nil
}

func qualifiedColumns(t ddl.TableDefinition) ([]string, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = t.Name.String() + "." + c.Name.String()
	}
	return cols, nil
}

// primaryKeyFilter builds "a = ? AND b = ?" over the key columns. sq.Eq
// sorts its keys, so an explicit And keeps declared order.
func primaryKeyFilter(t ddl.TableDefinition) (sq.Sqlizer, []ddl.Identifier, error) {
	if err := checkTable(t); err != nil {
		return nil, nil, err
	}
	pk := t.PrimaryKey()
	if len(pk) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, ErrNoPrimaryKey)
	}
	and := make(sq.And, len(pk))
	params := make([]ddl.Identifier, len(pk))
	for i, c := range pk {
		and[i] = sq.Expr(c.Name.String()+" = ?", nil)
		params[i] = c.Name
	}
	return and, params, nil
}

// Describe renders every query for t as a commented script. By-key
// queries are omitted for tables without a primary key.
func (b *Builder) Describe(t ddl.TableDefinition) (string, error) {
	type entry struct {
		label string
		fn    func(ddl.TableDefinition) (Query, error)
	}
	entries := []entry{
		{"select", b.Select},
		{"select by key", b.SelectByPrimaryKey},
		{"insert", b.Insert},
		{"update by key", b.UpdateByPrimaryKey},
		{"delete by key", b.DeleteByPrimaryKey},
	}

	var sb strings.Builder
	for _, e := range entries {
		q, err := e.fn(t)
		if errors.Is(err, ErrNoPrimaryKey) {
			continue
		}
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "-- %s %s\n%s;\n", t.Name, e.label, q.SQL)
	}
	return sb.String(), nil
}
