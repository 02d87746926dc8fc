package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlExecutor is satisfied by pgx.Tx, *pgx.Conn and *pgxpool.Pool.
type sqlExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// execHookFiles reads each SQL file, expands {{history_table}}, and
// executes every statement.
func execHookFiles(ctx context.Context, exec sqlExecutor, cfg *MigrationConfig, files []string, phase string) error {
	if len(files) == 0 {
		return nil
	}
	log.Printf("  running %s hooks (%d files)...", phase, len(files))

	for _, f := range files {
		stmts, err := loadHookFile(cfg, f)
		if err != nil {
			return fmt.Errorf("hook %s: %w", phase, err)
		}

		log.Printf("    %s: %d statements", f, len(stmts))
		for i, stmt := range stmts {
			if _, err := exec.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("hook %s: %s: statement %d: %w\nSQL: %s", phase, f, i+1, err, stmt)
			}
		}
	}
	return nil
}

func loadHookFile(cfg *MigrationConfig, f string) ([]string, error) {
	data, err := os.ReadFile(cfg.resolvePath(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f, err)
	}
	sql := strings.ReplaceAll(string(data), "{{history_table}}", cfg.HistoryTable)
	return splitStatements(sql), nil
}

// splitStatements splits SQL text on semicolons, ignoring empty entries
// and semicolons inside quotes, comments and dollar-quoted bodies.
func splitStatements(sql string) []string {
	var stmts []string
	start := 0
	emit := func(end int) {
		if s := strings.TrimSpace(sql[start:end]); s != "" {
			stmts = append(stmts, s)
		}
	}

	for i := 0; i < len(sql); {
		switch {
		case strings.HasPrefix(sql[i:], "--"):
			i = skipPast(sql, i+2, "\n")
		case strings.HasPrefix(sql[i:], "/*"):
			i = skipBlockComment(sql, i)
		case sql[i] == '\'' && isEscapeStringOpener(sql, i):
			i = skipEscapeString(sql, i)
		case sql[i] == '\'', sql[i] == '"':
			i = skipQuoted(sql, i)
		case sql[i] == '$':
			if tag, ok := parseDollarTag(sql, i); ok {
				i = skipPast(sql, i+len(tag), tag)
			} else {
				i++
			}
		case sql[i] == ';':
			emit(i)
			i++
			start = i
		default:
			i++
		}
	}
	emit(len(sql))
	return stmts
}

// skipPast returns the index just after the first term at or after from.
func skipPast(sql string, from int, term string) int {
	idx := strings.Index(sql[from:], term)
	if idx < 0 {
		return len(sql)
	}
	return from + idx + len(term)
}

// skipQuoted skips a '...' literal or "..." identifier; doubled quotes escape.
func skipQuoted(sql string, i int) int {
	q := sql[i]
	for j := i + 1; j < len(sql); j++ {
		if sql[j] != q {
			continue
		}
		if j+1 < len(sql) && sql[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(sql)
}

// isEscapeStringOpener reports whether the quote at sql[i] starts an
// E'...' literal, where the E is not the tail of a longer word.
func isEscapeStringOpener(sql string, i int) bool {
	if i == 0 || (sql[i-1] != 'E' && sql[i-1] != 'e') {
		return false
	}
	return i == 1 || !isIdentByte(sql[i-2])
}

// skipEscapeString skips an E'...' literal; backslash escapes the next byte
// and doubled quotes still escape.
func skipEscapeString(sql string, i int) int {
	for j := i + 1; j < len(sql); j++ {
		switch sql[j] {
		case '\\':
			j++
		case '\'':
			if j+1 < len(sql) && sql[j+1] == '\'' {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(sql)
}

// skipBlockComment skips a possibly nested /* ... */ comment.
func skipBlockComment(sql string, i int) int {
	depth := 0
	for i < len(sql) {
		switch {
		case strings.HasPrefix(sql[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(sql[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return i
}

// parseDollarTag recognizes $$ and $tag$ openers at sql[i].
func parseDollarTag(sql string, i int) (string, bool) {
	if i+1 < len(sql) && sql[i+1] == '$' {
		return "$$", true
	}
	j := i + 1
	if j >= len(sql) || !isDollarTagStart(sql[j]) {
		return "", false
	}
	for j < len(sql) && (isDollarTagStart(sql[j]) || (sql[j] >= '0' && sql[j] <= '9')) {
		j++
	}
	if j < len(sql) && sql[j] == '$' {
		return sql[i : j+1], true
	}
	return "", false
}

func isDollarTagStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isDollarTagStart(c) || (c >= '0' && c <= '9') || c == '$'
}
