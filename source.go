package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/Limetric/pgdelta/ddl"
)

var errDuplicateName = errors.New("duplicate name")

// introspectOptions controls how a live source is read into a snapshot.
type introspectOptions struct {
	DSN         string
	Schema      string // PostgreSQL namespace; ignored by other sources
	Workers     int
	SnakeCase   bool
	Exclude     []string
	TypeMapping TypeMappingConfig
}

// SourceDB abstracts a live database that can be introspected into a
// "before" snapshot (PostgreSQL, MySQL, SQLite).
type SourceDB interface {
	// Name returns a human-readable name for the source ("MySQL", "SQLite").
	Name() string

	// ExtractDBName extracts a logical database name from the DSN.
	ExtractDBName(dsn string) (string, error)

	// IntrospectSchema reads all base tables and their columns.
	IntrospectSchema(ctx context.Context, opts introspectOptions) (*Schema, error)

	// MapType returns the column type for a source column.
	MapType(col Column, typeMap TypeMappingConfig) (ddl.ColumnType, error)

	// QuoteIdentifier quotes a source identifier for use in queries.
	QuoteIdentifier(name string) string

	// MaxWorkers returns the maximum number of parallel workers.
	// 0 means use the config value; >0 caps workers to this value.
	MaxWorkers() int
}

// newSourceDB returns a SourceDB implementation for the given source type.
func newSourceDB(sourceType string) (SourceDB, error) {
	switch sourceType {
	case "postgres":
		return &postgresSourceDB{}, nil
	case "mysql":
		return &mysqlSourceDB{}, nil
	case "sqlite":
		return &sqliteSourceDB{}, nil
	default:
		return nil, fmt.Errorf("unsupported source type %q (must be postgres, mysql or sqlite)", sourceType)
	}
}

// introspectDefinition reads a live source and maps it onto the ddl model.
func introspectDefinition(ctx context.Context, src SourceDB, opts introspectOptions) (*ddl.DatabaseDefinition, error) {
	dbName, err := src.ExtractDBName(opts.DSN)
	if err != nil {
		return nil, err
	}
	if limit := src.MaxWorkers(); limit > 0 && opts.Workers > limit {
		opts.Workers = limit
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	log.Printf("introspecting %s schema '%s'...", src.Name(), dbName)
	schema, err := src.IntrospectSchema(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}
	schema.Name = dbName

	normalizeSchemaNames(schema, opts.SnakeCase)
	schema.Tables = slices.DeleteFunc(schema.Tables, func(t Table) bool {
		return slices.Contains(opts.Exclude, t.Name) || slices.Contains(opts.Exclude, t.SourceName)
	})

	log.Printf("found %d tables", len(schema.Tables))
	for _, t := range schema.Tables {
		log.Printf("  %s → %s (%d cols)", t.SourceName, t.Name, len(t.Columns))
	}
	logWarnings(log.Printf, collectGeneratedColumnWarnings(schema))
	logWarnings(log.Printf, sourceObjectWarnings(schema.Objects))

	return buildDefinition(schema, src, opts.TypeMapping)
}

func normalizeSchemaNames(schema *Schema, snakeCase bool) {
	normalize := func(s string) string {
		if snakeCase {
			return toSnakeCase(s)
		}
		return s
	}
	for i := range schema.Tables {
		t := &schema.Tables[i]
		t.Name = normalize(t.SourceName)
		for j := range t.Columns {
			t.Columns[j].Name = normalize(t.Columns[j].SourceName)
		}
	}
}

// buildDefinition maps an introspected schema onto the ddl model. Every
// problem is collected so a single run reports all of them.
func buildDefinition(schema *Schema, src SourceDB, typeMap TypeMappingConfig) (*ddl.DatabaseDefinition, error) {
	def := &ddl.DatabaseDefinition{Name: schema.Name}
	var typeErrs, errs []string
	seenTables := make(map[string]bool, len(schema.Tables))
	for _, t := range schema.Tables {
		tableName, err := ddl.NewIdentifier(t.Name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("table %s: %v", t.SourceName, err))
			continue
		}
		if seenTables[t.Name] {
			errs = append(errs, fmt.Sprintf("table %s: %v", t.Name, errDuplicateName))
			continue
		}
		seenTables[t.Name] = true

		table := ddl.TableDefinition{Name: tableName}
		seenCols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			typ, err := src.MapType(c, typeMap)
			if err != nil {
				typeErrs = append(typeErrs, fmt.Sprintf("%s.%s (%s): %v", t.SourceName, c.SourceName, c.ColumnType, err))
				continue
			}
			colName, err := ddl.NewIdentifier(c.Name)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s.%s: %v", t.SourceName, c.SourceName, err))
				continue
			}
			if seenCols[c.Name] {
				errs = append(errs, fmt.Sprintf("%s.%s: %v", t.Name, c.Name, errDuplicateName))
				continue
			}
			seenCols[c.Name] = true

			table.Columns = append(table.Columns, ddl.Column{
				Name:       colName,
				Type:       typ,
				PrimaryKey: c.PrimaryKey,
				Nullable:   c.Nullable,
			})
		}
		def.Tables = append(def.Tables, table)
	}

	var problems []string
	if len(typeErrs) > 0 {
		problems = append(problems, "unsupported column types:\n  "+strings.Join(typeErrs, "\n  "))
	}
	if len(errs) > 0 {
		problems = append(problems, "invalid source schema:\n  "+strings.Join(errs, "\n  "))
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "\n"))
	}
	return def, nil
}
