package testutil

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/bibhubhatta/wecare/lib/sqliteutil"
)

// OpenDB opens an in-memory sqlite database with migrations applied, it is
// closed when the test finishes.
func OpenDB(t testing.TB, migrations fs.FS) *sql.DB {
	db, err := sqliteutil.OpenDB(context.Background(), ":memory:", migrations)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
