package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Limetric/pgdelta/ddl"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type sqliteSourceDB struct{}

func (s *sqliteSourceDB) Name() string { return "SQLite" }

func (s *sqliteSourceDB) OpenDB(dsn string) (*sql.DB, error) {
	uri, err := sqliteReadOnlyURI(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *sqliteSourceDB) ExtractDBName(dsn string) (string, error) {
	path := dsn
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err == nil {
			path = u.Path
			if path == "" {
				path = u.Opaque
			}
		} else {
			path = strings.TrimPrefix(dsn, "file:")
		}
		if idx := strings.IndexByte(path, '?'); idx >= 0 {
			path = path[:idx]
		}
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if base == "" || base == "." || base == "/" {
		return "sqlite", nil
	}
	return base, nil
}

func (s *sqliteSourceDB) IntrospectSchema(ctx context.Context, opts introspectOptions) (*Schema, error) {
	db, err := s.OpenDB(opts.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return s.introspectSchema(ctx, db)
}

func (s *sqliteSourceDB) MapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	return sqliteMapType(col, typeMap)
}

func (s *sqliteSourceDB) QuoteIdentifier(name string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, "\"", "\"\""))
}

func (s *sqliteSourceDB) MaxWorkers() int { return 1 }

// --- DSN handling ---

func sqliteReadOnlyURI(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("sqlite dsn is empty")
	}
	if dsn == ":memory:" || dsn == "file::memory:" ||
		strings.Contains(dsn, "mode=memory") {
		return "", fmt.Errorf("in-memory SQLite databases are not supported (each sql.Open gets a separate DB)")
	}

	if !strings.HasPrefix(dsn, "file:") {
		return "file:" + dsn + "?mode=ro", nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse sqlite URI: %w", err)
	}
	q := u.Query()
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// --- Schema introspection ---

func (s *sqliteSourceDB) introspectSchema(ctx context.Context, db *sql.DB) (*Schema, error) {
	var names []string
	if err := collectStringRows(ctx, db,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
		nil, &names); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols, err := s.introspectColumns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("introspect columns for %s: %w", name, err)
		}
		tables = append(tables, Table{SourceName: name, Columns: cols})
	}

	var objs SourceObjects
	if err := collectStringRows(ctx, db, "SELECT name FROM sqlite_master WHERE type='view' ORDER BY name", nil, &objs.Views); err != nil {
		return nil, fmt.Errorf("introspect views: %w", err)
	}
	if err := collectStringRows(ctx, db, "SELECT name FROM sqlite_master WHERE type='trigger' ORDER BY name", nil, &objs.Triggers); err != nil {
		return nil, fmt.Errorf("introspect triggers: %w", err)
	}
	return &Schema{Tables: tables, Objects: objs}, nil
}

func (s *sqliteSourceDB) introspectColumns(ctx context.Context, db *sql.DB, tableName string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_xinfo("+s.QuoteIdentifier(tableName)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var cid, pk, notnull, hidden int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notnull, &dflt, &pk, &hidden); err != nil {
			return nil, err
		}
		// hidden: 0=normal, 1=hidden (virtual table), 2=generated virtual, 3=generated stored
		if hidden == 1 {
			continue
		}
		cols = append(cols, Column{
			SourceName: name,
			DataType:   strings.ToLower(normalizeAffinity(colType)),
			ColumnType: strings.ToLower(colType),
			Nullable:   notnull == 0 && pk == 0,
			PrimaryKey: pk > 0,
			Generated:  hidden == 2 || hidden == 3,
		})
	}
	return cols, rows.Err()
}

// normalizeAffinity extracts the base type name for SQLite's flexible type system.
func normalizeAffinity(declaredType string) string {
	dt := strings.TrimSpace(declaredType)
	if dt == "" {
		return "blob" // no declared type = BLOB affinity
	}
	if idx := strings.IndexByte(dt, '('); idx >= 0 {
		dt = dt[:idx]
	}
	return strings.TrimSpace(dt)
}

// --- Type mapping ---

func sqliteMapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	switch strings.ToUpper(normalizeAffinity(col.ColumnType)) {
	case "INTEGER", "INT", "SMALLINT", "TINYINT", "MEDIUMINT", "BIGINT":
		return ddl.Int, nil
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC", "DECIMAL":
		return ddl.Float, nil
	case "TEXT", "VARCHAR", "CHAR", "CLOB", "NVARCHAR", "NCHAR":
		return ddl.String, nil
	case "BOOLEAN", "BOOL":
		return ddl.Boolean, nil
	case "DATETIME", "TIMESTAMP":
		return ddl.Timestamp, nil
	case "UUID":
		return ddl.Uuid, nil
	default:
		return unknownType("SQLite", col, typeMap)
	}
}
