package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Limetric/pgdelta/ddl"
	"github.com/joho/godotenv"
)

const defaultHistoryTable = "pgdelta_migrations"

// MigrationConfig holds the full TOML-driven apply configuration.
type MigrationConfig struct {
	Schema               string            `toml:"schema"`   // desired snapshot file
	Previous             string            `toml:"previous"` // optional "before" snapshot file
	EnvFile              string            `toml:"env_file"`
	HistoryTable         string            `toml:"history_table"`
	SnakeCaseIdentifiers bool              `toml:"snake_case_identifiers"`
	Workers              int               `toml:"workers"`
	Source               SourceConfig      `toml:"source"`
	Target               TargetConfig      `toml:"target"`
	Hooks                HooksConfig       `toml:"hooks"`
	TypeMapping          TypeMappingConfig `toml:"type_mapping"`

	// configDir is the directory containing the TOML file, used to resolve relative paths.
	configDir string
}

// SourceConfig identifies the live database read as the "before" snapshot.
type SourceConfig struct {
	Type    string   `toml:"type"` // "postgres", "mysql" or "sqlite"
	DSN     string   `toml:"dsn"`
	DSNEnv  string   `toml:"dsn_env"`
	Schema  string   `toml:"schema"` // PostgreSQL namespace (default: "public")
	Exclude []string `toml:"exclude"`
}

type TargetConfig struct {
	DSN    string `toml:"dsn"`
	DSNEnv string `toml:"dsn_env"`
}

type HooksConfig struct {
	BeforeMigrate []string `toml:"before_migrate"`
	AfterMigrate  []string `toml:"after_migrate"`
}

// TypeMappingConfig controls how source types without an exact
// counterpart are mapped onto column types.
type TypeMappingConfig struct {
	TinyInt1AsBoolean bool `toml:"tinyint1_as_boolean"`
	Binary16AsUUID    bool `toml:"binary16_as_uuid"`
	UnknownAsString   bool `toml:"unknown_as_string"`
}

// loadConfig reads a TOML config file and returns a MigrationConfig with defaults applied.
func loadConfig(path string) (*MigrationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := MigrationConfig{
		HistoryTable: defaultHistoryTable,
		Target:       TargetConfig{DSNEnv: "DATABASE_URL"},
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.resolvePath(cfg.EnvFile)); err != nil {
			return nil, fmt.Errorf("load env_file: %w", err)
		}
	}

	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers()
	}

	cfg.Schema = strings.TrimSpace(cfg.Schema)
	if cfg.Schema == "" {
		return nil, fmt.Errorf("schema is required")
	}

	cfg.HistoryTable = strings.TrimSpace(cfg.HistoryTable)
	if cfg.HistoryTable == "" {
		cfg.HistoryTable = defaultHistoryTable
	}
	if _, err := ddl.NewIdentifier(cfg.HistoryTable); err != nil {
		return nil, fmt.Errorf("history_table: %w", err)
	}

	cfg.Target.DSN = resolveDSN(cfg.Target.DSN, cfg.Target.DSNEnv)
	if cfg.Target.DSN == "" {
		return nil, fmt.Errorf("target.dsn is required (set it or the %s environment variable)", envName(cfg.Target.DSNEnv))
	}

	hasSource := cfg.Source.Type != "" || cfg.Source.DSN != "" || cfg.Source.DSNEnv != ""
	if cfg.Previous != "" && hasSource {
		return nil, fmt.Errorf("previous and [source] are mutually exclusive")
	}
	if cfg.Previous != "" {
		return &cfg, nil
	}

	// Without a previous snapshot the "before" state is read from a live
	// database; by default the target itself.
	if cfg.Source.Type == "" {
		cfg.Source.Type = "postgres"
	}
	switch cfg.Source.Type {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("source.type must be one of: postgres, mysql, sqlite")
	}
	cfg.Source.DSN = resolveDSN(cfg.Source.DSN, cfg.Source.DSNEnv)
	if cfg.Source.DSN == "" {
		if cfg.Source.Type != "postgres" {
			return nil, fmt.Errorf("source.dsn is required for %s sources", cfg.Source.Type)
		}
		cfg.Source.DSN = cfg.Target.DSN
	}
	if cfg.Source.Type == "sqlite" {
		cfg.Source.DSN = cfg.resolvePath(cfg.Source.DSN)
	}
	if cfg.Source.Schema != "" && cfg.Source.Type != "postgres" {
		return nil, fmt.Errorf("source.schema is a PostgreSQL-only option")
	}
	if cfg.Source.Type != "mysql" && (cfg.TypeMapping.TinyInt1AsBoolean || cfg.TypeMapping.Binary16AsUUID) {
		return nil, fmt.Errorf("type_mapping.tinyint1_as_boolean and binary16_as_uuid are MySQL-only options")
	}

	return &cfg, nil
}

// introspectOptions builds the options used to read the live "before" snapshot.
func (c *MigrationConfig) introspectOptions() introspectOptions {
	exclude := append([]string{c.HistoryTable}, c.Source.Exclude...)
	return introspectOptions{
		DSN:         c.Source.DSN,
		Schema:      c.Source.Schema,
		Workers:     c.Workers,
		SnakeCase:   c.SnakeCaseIdentifiers,
		Exclude:     exclude,
		TypeMapping: c.TypeMapping,
	}
}

// resolvePath resolves a path relative to the config file directory.
func (c *MigrationConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}

func resolveDSN(dsn, env string) string {
	if dsn = strings.TrimSpace(dsn); dsn != "" {
		return dsn
	}
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

func envName(env string) string {
	if env == "" {
		return "dsn_env"
	}
	return env
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}
