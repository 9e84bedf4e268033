package sqliteutil

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// OpenDB opens (creating if needed) the sqlite database at path and applies
// every pending migration in migrations. path may be ":memory:".
func OpenDB(ctx context.Context, path string, migrations fs.FS) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer, a single connection also keeps
	// ":memory:" databases from being opened more than once.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	err = Migrate(ctx, db, migrations)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies every pending migration in migrations to db.
func Migrate(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		slog.Debug("applied migration", "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
