package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Limetric/pgdelta/ddl"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type postgresSourceDB struct{}

func (p *postgresSourceDB) Name() string { return "PostgreSQL" }

func (p *postgresSourceDB) ExtractDBName(dsn string) (string, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return "", fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnConfig.Database == "" {
		return "", fmt.Errorf("cannot extract database name from DSN: empty name")
	}
	return cfg.ConnConfig.Database, nil
}

func (p *postgresSourceDB) IntrospectSchema(ctx context.Context, opts introspectOptions) (*Schema, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = int32(max(opts.Workers, 1))

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	namespace := opts.Schema
	if namespace == "" {
		namespace = "public"
	}
	return introspectPostgresSchema(ctx, pool, namespace, opts.Workers)
}

func (p *postgresSourceDB) MapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	return postgresMapType(col, typeMap)
}

func (p *postgresSourceDB) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (p *postgresSourceDB) MaxWorkers() int { return 0 }

// --- Schema introspection ---

func introspectPostgresSchema(ctx context.Context, pool *pgxpool.Pool, namespace string, workers int) (*Schema, error) {
	rows, err := pool.Query(ctx,
		`SELECT table_name::text FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	tables := make([]Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, name := range names {
		g.Go(func() error {
			cols, err := introspectPostgresColumns(gctx, pool, namespace, name)
			if err != nil {
				return fmt.Errorf("introspect columns for %s: %w", name, err)
			}
			tables[i] = Table{SourceName: name, Columns: cols}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	objs, err := introspectPostgresSourceObjects(ctx, pool, namespace)
	if err != nil {
		return nil, err
	}
	return &Schema{Tables: tables, Objects: *objs}, nil
}

func introspectPostgresSourceObjects(ctx context.Context, pool *pgxpool.Pool, namespace string) (*SourceObjects, error) {
	objs := &SourceObjects{}
	queries := []struct {
		what string
		sql  string
		out  *[]string
	}{
		{"views", `SELECT table_name::text FROM information_schema.views
			WHERE table_schema = $1 ORDER BY table_name`, &objs.Views},
		{"routines", `SELECT (routine_type || ' ' || routine_name)::text FROM information_schema.routines
			WHERE routine_schema = $1 ORDER BY routine_type, routine_name`, &objs.Routines},
		{"triggers", `SELECT DISTINCT trigger_name::text FROM information_schema.triggers
			WHERE trigger_schema = $1 ORDER BY trigger_name`, &objs.Triggers},
	}
	for _, q := range queries {
		rows, err := pool.Query(ctx, q.sql, namespace)
		if err != nil {
			return nil, fmt.Errorf("introspect %s: %w", q.what, err)
		}
		names, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("introspect %s: %w", q.what, err)
		}
		*q.out = names
	}
	return objs, nil
}

func introspectPostgresColumns(ctx context.Context, pool *pgxpool.Pool, namespace, tableName string) ([]Column, error) {
	rows, err := pool.Query(ctx,
		`SELECT c.column_name::text, c.data_type::text, c.udt_name::text, c.is_nullable::text,
		        c.is_generated::text,
		        EXISTS (
		            SELECT 1
		            FROM information_schema.table_constraints tc
		            JOIN information_schema.key_column_usage kcu
		              ON kcu.constraint_name = tc.constraint_name
		             AND kcu.table_schema = tc.table_schema
		             AND kcu.table_name = tc.table_name
		            WHERE tc.constraint_type = 'PRIMARY KEY'
		              AND tc.table_schema = c.table_schema
		              AND tc.table_name = c.table_name
		              AND kcu.column_name = c.column_name
		        ) AS is_pk
		 FROM information_schema.columns c
		 WHERE c.table_schema = $1 AND c.table_name = $2
		 ORDER BY c.ordinal_position`,
		namespace, tableName,
	)
	if err != nil {
		return nil, err
	}

	var cols []Column
	var name, dataType, udtName, nullable, generated string
	var pk bool
	_, err = pgx.ForEachRow(rows, []any{&name, &dataType, &udtName, &nullable, &generated, &pk}, func() error {
		cols = append(cols, Column{
			SourceName: name,
			DataType:   strings.ToLower(dataType),
			ColumnType: strings.ToLower(udtName),
			Nullable:   nullable == "YES",
			PrimaryKey: pk,
			Generated:  generated == "ALWAYS",
		})
		return nil
	})
	return cols, err
}

// --- Type mapping ---

func postgresMapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error) {
	switch col.ColumnType {
	case "bool":
		return ddl.Boolean, nil
	case "int2", "int4", "int8":
		return ddl.Int, nil
	case "float4", "float8", "numeric":
		return ddl.Float, nil
	case "varchar", "bpchar", "text", "citext":
		return ddl.String, nil
	case "timestamp", "timestamptz":
		return ddl.Timestamp, nil
	case "uuid":
		return ddl.Uuid, nil
	default:
		return unknownType("PostgreSQL", col, typeMap)
	}
}
