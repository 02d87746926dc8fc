package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Limetric/pgdelta/ddl"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/zeebo/xxh3"
)

// migrationPlan is the computed difference between the current and the
// desired database definition.
type migrationPlan struct {
	Before     *ddl.DatabaseDefinition
	After      *ddl.DatabaseDefinition
	Migration  ddl.Migration
	Statements []string
	Script     string
	Checksum   string
	Warnings   []string
}

type applyOptions struct {
	DryRun bool
	Force  bool
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// scriptChecksum fingerprints a rendered migration script.
func scriptChecksum(script string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(script))
}

var errMixedCaseIdentifiers = errors.New("desired snapshot has upper-case names, which a live PostgreSQL catalog reports folded to lower case")

// buildPlan diffs before against after and renders the resulting script.
func buildPlan(before, after *ddl.DatabaseDefinition) (*migrationPlan, error) {
	if after == nil {
		return nil, errors.New("desired definition is required")
	}
	m, err := ddl.DiffDatabase(before, *after)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	script, err := m.SQL()
	if err != nil {
		return nil, fmt.Errorf("render migration: %w", err)
	}
	stmts, err := m.Statements()
	if err != nil {
		return nil, fmt.Errorf("render migration: %w", err)
	}

	plan := &migrationPlan{
		Before:     before,
		After:      after,
		Migration:  m,
		Statements: stmts,
		Script:     script,
		Checksum:   scriptChecksum(script),
	}
	plan.Warnings = append(plan.Warnings, collectReservedWordWarnings(after)...)
	plan.Warnings = append(plan.Warnings, collectNullablePrimaryKeyWarnings(after)...)
	for _, name := range collectMixedCaseIdentifiers(after) {
		plan.Warnings = append(plan.Warnings, name+": PostgreSQL folds unquoted names to lower case")
	}
	return plan, nil
}

// planFromConfig loads the desired snapshot and the "before" state named by
// cfg, then builds the plan.
func planFromConfig(ctx context.Context, cfg *MigrationConfig) (*migrationPlan, error) {
	after, err := loadSnapshot(cfg.resolvePath(cfg.Schema))
	if err != nil {
		return nil, err
	}

	var before *ddl.DatabaseDefinition
	if cfg.Previous != "" {
		before, err = loadSnapshot(cfg.resolvePath(cfg.Previous))
		if err != nil {
			return nil, err
		}
	} else {
		if cfg.Source.Type == "postgres" {
			if names := collectMixedCaseIdentifiers(after); len(names) > 0 {
				return nil, fmt.Errorf("%w:\n  %s", errMixedCaseIdentifiers, strings.Join(names, "\n  "))
			}
		}
		src, err := newSourceDB(cfg.Source.Type)
		if err != nil {
			return nil, err
		}
		before, err = introspectDefinition(ctx, src, cfg.introspectOptions())
		if err != nil {
			return nil, err
		}
	}
	return buildPlan(before, after)
}

func historyTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	checksum VARCHAR(16) NOT NULL,
	statements INT NOT NULL,
	script TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table)
}

func lastChecksumQuery(table string) (string, []any, error) {
	return psql.Select("checksum").From(table).OrderBy("id DESC").Limit(1).ToSql()
}

func historyInsertQuery(table string, plan *migrationPlan) (string, []any, error) {
	return psql.Insert(table).
		Columns("checksum", "statements", "script").
		Values(plan.Checksum, len(plan.Statements), plan.Script).
		ToSql()
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lastAppliedChecksum returns the checksum of the most recent history row,
// or "" when nothing has been applied yet.
func lastAppliedChecksum(ctx context.Context, db queryRower, table string) (string, error) {
	query, args, err := lastChecksumQuery(table)
	if err != nil {
		return "", err
	}
	var checksum string
	if err := db.QueryRow(ctx, query, args...).Scan(&checksum); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", table, err)
	}
	return checksum, nil
}

// applyPlan executes the plan against the target inside a single
// transaction, together with the hooks and the history row.
func applyPlan(ctx context.Context, cfg *MigrationConfig, plan *migrationPlan, opts applyOptions, out io.Writer) error {
	printPlan(out, plan.Migration)
	logWarnings(log.Printf, plan.Warnings)

	if opts.DryRun {
		if !plan.Migration.Empty() {
			fmt.Fprintf(out, "\n%s\n", plan.Script)
		}
		log.Printf("dry run: nothing applied")
		return nil
	}
	if plan.Migration.Empty() {
		return nil
	}

	conn, err := pgx.Connect(ctx, cfg.Target.DSN)
	if err != nil {
		return fmt.Errorf("connect target: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, historyTableDDL(cfg.HistoryTable)); err != nil {
		return fmt.Errorf("create %s: %w", cfg.HistoryTable, err)
	}
	last, err := lastAppliedChecksum(ctx, conn, cfg.HistoryTable)
	if err != nil {
		return err
	}
	if last == plan.Checksum && !opts.Force {
		log.Printf("migration %s already applied; use --force to apply it again", plan.Checksum)
		return nil
	}

	log.Printf("applying %d statements (checksum %s)...", len(plan.Statements), plan.Checksum)
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(context.Background())

	if err := execHookFiles(ctx, tx, cfg, cfg.Hooks.BeforeMigrate, "before_migrate"); err != nil {
		return err
	}
	for i, stmt := range plan.Statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w\nSQL: %s", i+1, err, stmt)
		}
	}

	query, args, err := historyInsertQuery(cfg.HistoryTable, plan)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	if err := execHookFiles(ctx, tx, cfg, cfg.Hooks.AfterMigrate, "after_migrate"); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("applied migration %s", plan.Checksum)
	return nil
}
