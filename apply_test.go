package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Limetric/pgdelta/ddl"
	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
)

type stubRow struct {
	value string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type stubRower struct {
	row   stubRow
	query string
}

func (s *stubRower) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	s.query = sql
	return s.row
}

func usersDefinition(extra ...ddl.Column) *ddl.DatabaseDefinition {
	cols := []ddl.Column{
		{Name: ddl.MustIdentifier("id"), Type: ddl.Uuid, PrimaryKey: true},
		{Name: ddl.MustIdentifier("email"), Type: ddl.String},
	}
	cols = append(cols, extra...)
	return &ddl.DatabaseDefinition{Name: "app", Tables: []ddl.TableDefinition{
		{Name: ddl.MustIdentifier("users"), Columns: cols},
	}}
}

func TestScriptChecksum(t *testing.T) {
	a := scriptChecksum("CREATE TABLE IF NOT EXISTS t ();")
	b := scriptChecksum("CREATE TABLE IF NOT EXISTS t ();")
	c := scriptChecksum("DROP TABLE IF EXISTS t;")

	if a != b {
		t.Errorf("checksum not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("different scripts share checksum %s", a)
	}
	if len(a) != 16 {
		t.Errorf("checksum %q has length %d, want 16", a, len(a))
	}
}

func TestBuildPlan_FromEmpty(t *testing.T) {
	plan, err := buildPlan(nil, usersDefinition())
	if err != nil {
		t.Fatalf("buildPlan() error: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS users ( id UUID PRIMARY KEY NOT NULL, email VARCHAR NOT NULL );"
	if plan.Script != want {
		t.Errorf("Script = %q, want %q", plan.Script, want)
	}
	if len(plan.Statements) != 1 {
		t.Errorf("Statements = %q", plan.Statements)
	}
	if plan.Checksum != scriptChecksum(want) {
		t.Errorf("Checksum = %s", plan.Checksum)
	}
}

func TestBuildPlan_AlterAndWarnings(t *testing.T) {
	after := usersDefinition(ddl.Column{Name: ddl.MustIdentifier("order"), Type: ddl.Int, Nullable: true})
	plan, err := buildPlan(usersDefinition(), after)
	if err != nil {
		t.Fatalf("buildPlan() error: %v", err)
	}
	wantStmts := []string{"ALTER TABLE IF EXISTS users ADD COLUMN IF NOT EXISTS order INT"}
	if !reflect.DeepEqual(plan.Statements, wantStmts) {
		t.Errorf("Statements = %q, want %q", plan.Statements, wantStmts)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "users.order") {
		t.Errorf("Warnings = %q", plan.Warnings)
	}
}

func TestBuildPlan_Unchanged(t *testing.T) {
	plan, err := buildPlan(usersDefinition(), usersDefinition())
	if err != nil {
		t.Fatalf("buildPlan() error: %v", err)
	}
	if !plan.Migration.Empty() || plan.Script != "" || len(plan.Statements) != 0 {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}

func TestBuildPlan_RequiresDesired(t *testing.T) {
	if _, err := buildPlan(nil, nil); err == nil {
		t.Fatal("expected error for nil desired definition")
	}
}

func TestHistoryQueries(t *testing.T) {
	query, args, err := lastChecksumQuery("pgdelta_migrations")
	if err != nil {
		t.Fatal(err)
	}
	if query != "SELECT checksum FROM pgdelta_migrations ORDER BY id DESC LIMIT 1" || len(args) != 0 {
		t.Errorf("lastChecksumQuery() = %q %v", query, args)
	}

	plan := &migrationPlan{Checksum: "00000000deadbeef", Statements: []string{"a", "b"}, Script: "a;\nb;"}
	query, args, err = historyInsertQuery("pgdelta_migrations", plan)
	if err != nil {
		t.Fatal(err)
	}
	if query != "INSERT INTO pgdelta_migrations (checksum,statements,script) VALUES ($1,$2,$3)" {
		t.Errorf("historyInsertQuery() = %q", query)
	}
	if !reflect.DeepEqual(args, []any{"00000000deadbeef", 2, "a;\nb;"}) {
		t.Errorf("historyInsertQuery() args = %v", args)
	}

	if ddlSQL := historyTableDDL("schema_history"); !strings.HasPrefix(ddlSQL, "CREATE TABLE IF NOT EXISTS schema_history (") {
		t.Errorf("historyTableDDL() = %q", ddlSQL)
	}
}

func TestLastAppliedChecksum(t *testing.T) {
	ctx := context.Background()

	db := &stubRower{row: stubRow{value: "0123456789abcdef"}}
	got, err := lastAppliedChecksum(ctx, db, "pgdelta_migrations")
	if err != nil || got != "0123456789abcdef" {
		t.Errorf("lastAppliedChecksum() = %q, %v", got, err)
	}
	if !strings.Contains(db.query, "FROM pgdelta_migrations") {
		t.Errorf("query = %q", db.query)
	}

	got, err = lastAppliedChecksum(ctx, &stubRower{row: stubRow{err: pgx.ErrNoRows}}, "pgdelta_migrations")
	if err != nil || got != "" {
		t.Errorf("lastAppliedChecksum(no rows) = %q, %v", got, err)
	}

	_, err = lastAppliedChecksum(ctx, &stubRower{row: stubRow{err: errors.New("permission denied")}}, "pgdelta_migrations")
	if err == nil {
		t.Error("expected scan error to propagate")
	}
}

func TestPlanFromConfig_PreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("schema.prev.toml", usersSnapshotTOML)
	write("schema.toml", strings.Replace(usersSnapshotTOML, `type = "VARCHAR"`, `type = "VARCHAR"
  nullable = true`, 1))

	cfg := &MigrationConfig{Schema: "schema.toml", Previous: "schema.prev.toml", configDir: dir}
	plan, err := planFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("planFromConfig() error: %v", err)
	}
	want := []string{"ALTER TABLE IF EXISTS users ALTER COLUMN email DROP NOT NULL"}
	if !reflect.DeepEqual(plan.Statements, want) {
		t.Errorf("Statements = %q, want %q", plan.Statements, want)
	}
}

func TestBuildPlan_MixedCaseWarnings(t *testing.T) {
	after := &ddl.DatabaseDefinition{Name: "app", Tables: []ddl.TableDefinition{{
		Name:    ddl.MustIdentifier("Users"),
		Columns: []ddl.Column{{Name: ddl.MustIdentifier("UserId"), Type: ddl.Int, PrimaryKey: true}},
	}}}
	plan, err := buildPlan(nil, after)
	if err != nil {
		t.Fatalf("buildPlan() error: %v", err)
	}
	got := strings.Join(plan.Warnings, "\n")
	for _, want := range []string{"table Users (stored as users)", "Users.UserId (stored as userid)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Warnings = %q, want one containing %q", plan.Warnings, want)
		}
	}
}

func TestPlanFromConfig_MixedCaseAgainstLiveTarget(t *testing.T) {
	// The live catalog reports Users as users, so a diff would create Users
	// as a no-op and then drop users.
	live := &ddl.DatabaseDefinition{Name: "app", Tables: []ddl.TableDefinition{{
		Name:    ddl.MustIdentifier("users"),
		Columns: []ddl.Column{{Name: ddl.MustIdentifier("userid"), Type: ddl.Int, PrimaryKey: true}},
	}}}
	desired := `
[[tables]]
name = "Users"
  [[tables.columns]]
  name = "UserId"
  type = "INT"
  primary_key = true
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.toml"), []byte(desired), 0644); err != nil {
		t.Fatal(err)
	}
	after, err := loadSnapshot(filepath.Join(dir, "schema.toml"))
	if err != nil {
		t.Fatal(err)
	}
	plan, err := buildPlan(live, after)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(plan.Script, "DROP TABLE IF EXISTS users;") {
		t.Fatalf("Script = %q, expected the folded table to be dropped", plan.Script)
	}

	cfg := &MigrationConfig{
		Schema:       "schema.toml",
		HistoryTable: defaultHistoryTable,
		Workers:      1,
		Source:       SourceConfig{Type: "postgres", DSN: "postgres://pgdelta@127.0.0.1:1/none?connect_timeout=1"},
		configDir:    dir,
	}
	_, err = planFromConfig(context.Background(), cfg)
	if !errors.Is(err, errMixedCaseIdentifiers) {
		t.Fatalf("planFromConfig() error = %v, want errMixedCaseIdentifiers", err)
	}
	if !strings.Contains(err.Error(), "table Users (stored as users)") {
		t.Errorf("error = %q, want it to name the table", err)
	}

	// A previous snapshot uses the declared names, so no folding happens.
	if err := os.WriteFile(filepath.Join(dir, "schema.prev.toml"), []byte(desired), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Previous = "schema.prev.toml"
	plan, err = planFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("planFromConfig(previous) error: %v", err)
	}
	if !plan.Migration.Empty() {
		t.Errorf("Script = %q, want no changes", plan.Script)
	}
}

func TestApplyPlan_DryRun(t *testing.T) {
	color.NoColor = true

	plan, err := buildPlan(nil, usersDefinition())
	if err != nil {
		t.Fatal(err)
	}
	// The DSN is never dialed in dry-run mode.
	cfg := &MigrationConfig{Target: TargetConfig{DSN: "postgres://invalid:1/none"}, HistoryTable: defaultHistoryTable}

	var out bytes.Buffer
	if err := applyPlan(context.Background(), cfg, plan, applyOptions{DryRun: true}, &out); err != nil {
		t.Fatalf("applyPlan(dry run) error: %v", err)
	}
	if !strings.Contains(out.String(), "+ table users (2 columns)") {
		t.Errorf("output missing plan:\n%s", out.String())
	}
	if !strings.Contains(out.String(), plan.Script) {
		t.Errorf("output missing script:\n%s", out.String())
	}
}
