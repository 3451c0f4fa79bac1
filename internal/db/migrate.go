package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Migration is a single forward-only SQL file.
type Migration struct {
	Name    string
	Applied bool
}

// Migrator applies the SQL files found in Dir in lexical order and records each
// in schema_migrations.
type Migrator struct {
	Pool Pool
	Dir  string
	Out  io.Writer
}

// Status lists every migration file and whether it has been applied.
func (m Migrator) Status(ctx context.Context) ([]Migration, error) {
	names, err := sqlFiles(m.Dir)
	if err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		_, ok := applied[name]
		out = append(out, Migration{Name: name, Applied: ok})
	}
	return out, nil
}

// Up applies all pending migrations and returns the names it applied.
func (m Migrator) Up(ctx context.Context) ([]string, error) {
	pending, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, migration := range pending {
		if migration.Applied {
			continue
		}

		contents, err := os.ReadFile(filepath.Join(m.Dir, migration.Name))
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", migration.Name, err)
		}

		err = InTx(ctx, m.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(contents)); err != nil {
				return fmt.Errorf("apply migration %s: %w", migration.Name, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, migration.Name); err != nil {
				return fmt.Errorf("record migration %s: %w", migration.Name, err)
			}
			return nil
		})
		if err != nil {
			return done, err
		}

		m.printf("applied migration %s\n", migration.Name)
		done = append(done, migration.Name)
	}

	if len(done) == 0 {
		m.printf("no migrations to apply\n")
	}
	return done, nil
}

// ApplySeed executes a seed file from dir. name may omit the "_seed.sql" suffix.
func ApplySeed(ctx context.Context, pool Pool, dir, name string) error {
	if !strings.HasSuffix(name, ".sql") {
		name = fmt.Sprintf("%s_seed.sql", name)
	}

	contents, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", name, err)
	}

	return InTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply seed %s: %w", name, err)
		}
		return nil
	})
}

func (m Migrator) applied(ctx context.Context) (map[string]struct{}, error) {
	conn, err := m.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
                version TEXT PRIMARY KEY,
                applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

func (m Migrator) printf(format string, args ...any) {
	if m.Out == nil {
		return
	}
	fmt.Fprintf(m.Out, format, args...)
}

func sqlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
