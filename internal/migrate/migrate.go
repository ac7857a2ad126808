package migrate

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const downMarker = "-- +migrate Down"

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Up applies every *.sql file in migrations that is not yet recorded in
// schema_migrations, in file name order. It returns the names applied.
func Up(ctx context.Context, db DB, migrations fs.FS, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	var applied []string
	for _, filename := range files {
		var exists bool
		if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			return applied, fmt.Errorf("read migration state: %w", err)
		}
		if exists {
			logger.Debug("migration already applied", zap.String("file", filename))
			continue
		}
		content, err := fs.ReadFile(migrations, filename)
		if err != nil {
			return applied, err
		}
		if err := apply(ctx, db, string(content)); err != nil {
			return applied, fmt.Errorf("apply %s: %w", filename, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			return applied, fmt.Errorf("record %s: %w", filename, err)
		}
		logger.Info("migration applied", zap.String("file", filename))
		applied = append(applied, filename)
	}
	return applied, nil
}

func apply(ctx context.Context, db DB, content string) error {
	for _, stmt := range splitSQL(upSection(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// upSection drops everything after the down marker.
func upSection(content string) string {
	up, _, _ := strings.Cut(content, downMarker)
	return up
}

// splitSQL breaks a script into statements on lines containing ';'. Comment
// lines are skipped. Statements must not embed ';' mid-line inside bodies.
func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.Contains(line, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
