package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Limetric/pgdelta/ddl"
	"github.com/go-sql-driver/mysql"
)

type mysqlSourceDB struct{}

func (m *mysqlSourceDB) Name() string { return "MySQL" }

func (m *mysqlSourceDB) OpenDB(dsn string) (*sql.DB, error) {
	readDSN, err := mysqlDSNWithReadOptions(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", readDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

func (m *mysqlSourceDB) ExtractDBName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("cannot extract database name from DSN: empty name")
	}
	return cfg.DBName, nil
}

func (m *mysqlSourceDB) IntrospectSchema(ctx context.Context, opts introspectOptions) (*Schema, error) {
	dbName, err := m.ExtractDBName(opts.DSN)
	if err != nil {
		return nil, err
	}
	db, err := m.OpenDB(opts.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	db.SetMaxOpenConns(opts.Workers)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return introspectMySQLSchema(ctx, db, dbName)
}

func (m *mysqlSourceDB) MapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	return mysqlMapType(col, typeMap)
}

func (m *mysqlSourceDB) QuoteIdentifier(name string) string {
	return fmt.Sprintf("`%s`", strings.ReplaceAll(name, "`", "``"))
}

func (m *mysqlSourceDB) MaxWorkers() int { return 0 }

// --- Schema introspection ---

func introspectMySQLSchema(ctx context.Context, db *sql.DB, dbName string) (*Schema, error) {
	var names []string
	if err := collectStringRows(ctx, db,
		`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		 ORDER BY TABLE_NAME`,
		[]any{dbName}, &names); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	cols, err := introspectMySQLColumns(ctx, db, dbName)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, Table{SourceName: name, Columns: cols[name]})
	}

	objs, err := introspectMySQLSourceObjects(ctx, db, dbName)
	if err != nil {
		return nil, err
	}
	return &Schema{Tables: tables, Objects: *objs}, nil
}

func introspectMySQLSourceObjects(ctx context.Context, db *sql.DB, dbName string) (*SourceObjects, error) {
	objs := &SourceObjects{}
	args := []any{dbName}

	if err := collectStringRows(ctx, db, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.VIEWS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME
	`, args, &objs.Views); err != nil {
		return nil, fmt.Errorf("introspect views: %w", err)
	}
	if err := collectStringRows(ctx, db, `
		SELECT CONCAT(ROUTINE_TYPE, ' ', ROUTINE_NAME)
		FROM INFORMATION_SCHEMA.ROUTINES
		WHERE ROUTINE_SCHEMA = ?
		ORDER BY ROUTINE_TYPE, ROUTINE_NAME
	`, args, &objs.Routines); err != nil {
		return nil, fmt.Errorf("introspect routines: %w", err)
	}
	if err := collectStringRows(ctx, db, `
		SELECT TRIGGER_NAME
		FROM INFORMATION_SCHEMA.TRIGGERS
		WHERE TRIGGER_SCHEMA = ?
		ORDER BY TRIGGER_NAME
	`, args, &objs.Triggers); err != nil {
		return nil, fmt.Errorf("introspect triggers: %w", err)
	}
	return objs, nil
}

// introspectMySQLColumns reads every column of the database in one query,
// grouped by table name.
func introspectMySQLColumns(ctx context.Context, db *sql.DB, dbName string) (map[string][]Column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, COLUMN_TYPE,
		        IS_NULLABLE, COLUMN_KEY, EXTRA
		 FROM INFORMATION_SCHEMA.COLUMNS
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME, ORDINAL_POSITION`,
		dbName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTable := make(map[string][]Column)
	for rows.Next() {
		var table, nullable, key, extra string
		var c Column
		if err := rows.Scan(
			&table, &c.SourceName, &c.DataType, &c.ColumnType,
			&nullable, &key, &extra,
		); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		c.PrimaryKey = key == "PRI"
		c.Generated = isMySQLGeneratedExtra(extra)
		c.DataType = strings.ToLower(c.DataType)
		c.ColumnType = strings.ToLower(c.ColumnType)
		byTable[table] = append(byTable[table], c)
	}
	return byTable, rows.Err()
}

func isMySQLGeneratedExtra(extra string) bool {
	extra = strings.ToLower(extra)
	return strings.Contains(extra, "virtual generated") || strings.Contains(extra, "stored generated")
}

// --- Type mapping ---

func isBinary16Column(col Column) bool {
	return isMySQLTypeWithLength(col, "binary", 16)
}

func isTinyInt1Column(col Column) bool {
	return isMySQLTypeWithLength(col, "tinyint", 1)
}

func isMySQLTypeWithLength(col Column, baseType string, wantLength int64) bool {
	if col.DataType != baseType {
		return false
	}
	n, ok := mysqlColumnTypeLength(col.ColumnType, baseType)
	return ok && n == wantLength
}

func mysqlColumnTypeLength(columnType, baseType string) (int64, bool) {
	ct := strings.ToLower(strings.TrimSpace(columnType))
	prefix := baseType + "("
	if !strings.HasPrefix(ct, prefix) {
		return 0, false
	}
	rest := ct[len(prefix):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(rest[:end]), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func mysqlMapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	switch {
	case isBinary16Column(col) && typeMap.Binary16AsUUID:
		return ddl.Uuid, nil
	case isTinyInt1Column(col) && typeMap.TinyInt1AsBoolean:
		return ddl.Boolean, nil
	}

	switch col.DataType {
	case "bool", "boolean":
		return ddl.Boolean, nil
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		return ddl.Int, nil
	case "float", "double", "decimal", "numeric":
		return ddl.Float, nil
	case "char", "varchar", "tinytext", "text", "mediumtext", "longtext", "enum", "set":
		return ddl.String, nil
	case "timestamp", "datetime":
		return ddl.Timestamp, nil
	default:
		return unknownType("MySQL", col, typeMap)
	}
}
