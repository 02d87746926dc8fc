package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Limetric/pgdelta/ddl"
	"gopkg.in/yaml.v3"
)

// snapshotFile is the on-disk form of a database definition.
type snapshotFile struct {
	Name   string          `toml:"name" yaml:"name"`
	Tables []snapshotTable `toml:"tables" yaml:"tables"`
}

type snapshotTable struct {
	Name    string           `toml:"name" yaml:"name"`
	Columns []snapshotColumn `toml:"columns" yaml:"columns"`
}

type snapshotColumn struct {
	Name       string `toml:"name" yaml:"name"`
	Type       string `toml:"type" yaml:"type"`
	PrimaryKey bool   `toml:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Nullable   bool   `toml:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// snapshotFormat picks the codec from the file extension.
func snapshotFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("snapshot %s: unsupported extension (want .toml, .yaml or .yml)", path)
	}
}

// loadSnapshot reads and validates a snapshot file.
func loadSnapshot(path string) (*ddl.DatabaseDefinition, error) {
	format, err := snapshotFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	def, err := parseSnapshot(data, format)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

func parseSnapshot(data []byte, format string) (*ddl.DatabaseDefinition, error) {
	var file snapshotFile
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown snapshot keys: %s", strings.Join(keys, ", "))
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
	return file.definition()
}

// definition validates every name and type, reporting all problems at once.
func (f snapshotFile) definition() (*ddl.DatabaseDefinition, error) {
	def := &ddl.DatabaseDefinition{Name: f.Name}
	var errs []error
	seenTables := make(map[string]bool, len(f.Tables))
	for ti, st := range f.Tables {
		tableName, err := ddl.NewIdentifier(st.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("tables[%d]: %w", ti, err))
			continue
		}
		if seenTables[st.Name] {
			errs = append(errs, fmt.Errorf("table %s: %w", st.Name, errDuplicateName))
			continue
		}
		seenTables[st.Name] = true

		table := ddl.TableDefinition{Name: tableName}
		seenCols := make(map[string]bool, len(st.Columns))
		for ci, sc := range st.Columns {
			colName, err := ddl.NewIdentifier(sc.Name)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.columns[%d]: %w", st.Name, ci, err))
				continue
			}
			if seenCols[sc.Name] {
				errs = append(errs, fmt.Errorf("%s.%s: %w", st.Name, sc.Name, errDuplicateName))
				continue
			}
			seenCols[sc.Name] = true

			typ, err := ddl.ParseColumnType(sc.Type)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", st.Name, sc.Name, err))
				continue
			}
			table.Columns = append(table.Columns, ddl.Column{
				Name:       colName,
				Type:       typ,
				PrimaryKey: sc.PrimaryKey,
				Nullable:   sc.Nullable,
			})
		}
		def.Tables = append(def.Tables, table)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return def, nil
}

func snapshotFromDefinition(def *ddl.DatabaseDefinition) snapshotFile {
	file := snapshotFile{Name: def.Name}
	for _, t := range def.Tables {
		st := snapshotTable{Name: t.Name.String()}
		for _, c := range t.Columns {
			st.Columns = append(st.Columns, snapshotColumn{
				Name:       c.Name.String(),
				Type:       c.Type.String(),
				PrimaryKey: c.PrimaryKey,
				Nullable:   c.Nullable,
			})
		}
		file.Tables = append(file.Tables, st)
	}
	return file
}

// writeSnapshot encodes def in the given format ("toml" or "yaml").
func writeSnapshot(w io.Writer, def *ddl.DatabaseDefinition, format string) error {
	file := snapshotFromDefinition(def)
	switch format {
	case "toml":
		if err := toml.NewEncoder(w).Encode(file); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported snapshot format %q (must be toml or yaml)", format)
	}
	return nil
}
