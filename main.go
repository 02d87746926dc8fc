package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Limetric/pgdelta/crud"
	"github.com/Limetric/pgdelta/ddl"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "pgdelta",
	Short:         "Declarative PostgreSQL schema migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	diffShowPlan bool

	snapshotType      string
	snapshotDSN       string
	snapshotNamespace string
	snapshotOutput    string
	snapshotSnakeCase bool
	snapshotExclude   []string
	snapshotTypeMap   TypeMappingConfig

	queriesTable   string
	queriesDialect string

	applyDryRun bool
	applyForce  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <before> <after>",
	Short: "Print the migration between two snapshot files",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

var createCmd = &cobra.Command{
	Use:   "create <schema>",
	Short: "Print the migration that creates a snapshot from an empty database",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Introspect a live database and write a snapshot file",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var queriesCmd = &cobra.Command{
	Use:   "queries <schema>",
	Short: "Print SELECT/INSERT/UPDATE/DELETE statements for each table",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueries,
}

var applyCmd = &cobra.Command{
	Use:   "apply <config.toml>",
	Short: "Apply the desired schema to the target database",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pgdelta %s\n", versionString())
	},
}

func init() {
	rootCmd.Version = versionString()

	diffCmd.Flags().BoolVar(&diffShowPlan, "plan", false, "print a summary of the changes instead of SQL")

	snapshotCmd.Flags().StringVar(&snapshotType, "type", "postgres", "source type: postgres, mysql or sqlite")
	snapshotCmd.Flags().StringVar(&snapshotDSN, "dsn", "", "source connection string (default: $DATABASE_URL)")
	snapshotCmd.Flags().StringVar(&snapshotNamespace, "schema", "", "PostgreSQL schema to read (default: public)")
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "output file, .toml/.yaml/.yml (default: TOML on stdout)")
	snapshotCmd.Flags().BoolVar(&snapshotSnakeCase, "snake-case", false, "convert table and column names to snake_case")
	snapshotCmd.Flags().StringSliceVar(&snapshotExclude, "exclude", nil, "tables to leave out")
	snapshotCmd.Flags().BoolVar(&snapshotTypeMap.TinyInt1AsBoolean, "tinyint1-as-boolean", false, "map MySQL tinyint(1) to boolean")
	snapshotCmd.Flags().BoolVar(&snapshotTypeMap.Binary16AsUUID, "binary16-as-uuid", false, "map MySQL binary(16) to uuid")
	snapshotCmd.Flags().BoolVar(&snapshotTypeMap.UnknownAsString, "unknown-as-string", false, "map unsupported types to string instead of failing")

	queriesCmd.Flags().StringVar(&queriesTable, "table", "", "only print queries for this table")
	queriesCmd.Flags().StringVar(&queriesDialect, "dialect", "postgres", "placeholder dialect: postgres, mysql or sqlite")

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "print the plan and SQL without applying")
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "apply even if the same script was recorded last")

	rootCmd.AddCommand(diffCmd, createCmd, snapshotCmd, queriesCmd, applyCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	after, err := loadSnapshot(args[1])
	if err != nil {
		return err
	}
	plan, err := buildPlan(before, after)
	if err != nil {
		return err
	}
	return writePlan(cmd.OutOrStdout(), plan, diffShowPlan)
}

func runCreate(cmd *cobra.Command, args []string) error {
	after, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	plan, err := buildPlan(nil, after)
	if err != nil {
		return err
	}
	return writePlan(cmd.OutOrStdout(), plan, false)
}

func writePlan(w io.Writer, plan *migrationPlan, summary bool) error {
	logWarnings(log.Printf, plan.Warnings)
	if summary {
		printPlan(w, plan.Migration)
		return nil
	}
	if plan.Script == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, plan.Script)
	return err
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	dsn := resolveDSN(snapshotDSN, "DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("--dsn is required (or set DATABASE_URL)")
	}
	src, err := newSourceDB(snapshotType)
	if err != nil {
		return err
	}

	format := "toml"
	if snapshotOutput != "" {
		if format, err = snapshotFormat(snapshotOutput); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	def, err := introspectDefinition(ctx, src, introspectOptions{
		DSN:         dsn,
		Schema:      snapshotNamespace,
		Workers:     defaultWorkers(),
		SnakeCase:   snapshotSnakeCase,
		Exclude:     snapshotExclude,
		TypeMapping: snapshotTypeMap,
	})
	if err != nil {
		return err
	}
	logWarnings(log.Printf, collectReservedWordWarnings(def))

	if snapshotOutput == "" {
		return writeSnapshot(cmd.OutOrStdout(), def, format)
	}
	f, err := os.Create(snapshotOutput)
	if err != nil {
		return fmt.Errorf("create %s: %w", snapshotOutput, err)
	}
	if err := writeSnapshot(f, def, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", snapshotOutput, err)
	}
	log.Printf("wrote %s (%d tables) in %s", snapshotOutput, len(def.Tables), time.Since(start).Round(time.Millisecond))
	return nil
}

func runQueries(cmd *cobra.Command, args []string) error {
	def, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	b, err := crud.NewBuilder(queriesDialect)
	if err != nil {
		return err
	}

	tables := def.Tables
	if queriesTable != "" {
		t, ok := def.Table(queriesTable)
		if !ok {
			return fmt.Errorf("table %q not found in %s", queriesTable, args[0])
		}
		tables = []ddl.TableDefinition{t}
	}

	var out []string
	for _, t := range tables {
		script, err := b.Describe(t)
		if err != nil {
			return err
		}
		if len(t.PrimaryKey()) == 0 {
			log.Printf("  WARN: table %s has no primary key; by-key queries skipped", t.Name)
		}
		out = append(out, script)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), strings.Join(out, "\n"))
	return err
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	start := time.Now()

	log.Printf("pgdelta %s", versionString())
	before := cfg.Previous
	if before == "" {
		before = cfg.Source.Type + " source"
	}
	log.Printf("config: schema=%s before=%s history_table=%s snake_case_identifiers=%t",
		cfg.Schema, before, cfg.HistoryTable, cfg.SnakeCaseIdentifiers)

	plan, err := planFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := applyPlan(ctx, cfg, plan, applyOptions{DryRun: applyDryRun, Force: applyForce}, cmd.OutOrStdout()); err != nil {
		return err
	}
	log.Printf("done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
