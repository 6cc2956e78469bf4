// Package storetest provides migrated stores for tests in other packages.
package storetest

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/jobgraph/internal/store"
)

// New opens a migrated store that lives for the duration of t.
// TEST_DATABASE_URL selects PostgreSQL; the default is in-memory SQLite.
func New(t testing.TB) *store.GormStore {
	t.Helper()
	opts := store.OpenOptions{Driver: store.DriverSQLite, DSN: ":memory:"}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		opts = store.OpenOptions{Driver: store.DriverPostgres, DSN: dsn}
	}
	db, err := store.Open(opts)
	require.NoError(t, err, "open test db")
	s := store.NewGormStore(db)
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	t.Cleanup(func() { _ = store.Close(db) })

	if opts.Driver == store.DriverPostgres {
		cleanup := func() {
			db.Exec("DELETE FROM jobs")
			db.Exec("DELETE FROM users")
		}
		cleanup()
		t.Cleanup(cleanup)
	}
	return s
}

// Count returns the number of stored records of kind.
func Count(t testing.TB, s store.Store, kind store.Kind) int {
	t.Helper()
	recs, err := s.FindAll(context.Background(), kind, nil, store.NoLimit)
	require.NoError(t, err)
	return len(recs)
}
