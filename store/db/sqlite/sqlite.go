package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/orcha/internal/profile"
	"github.com/hrygo/orcha/store"
)

// ============================================================================
// SQLITE SUPPORT
// ============================================================================
// One row per user in the calendar table. The events column holds the
// whole serialized calendar and is rewritten on every mutation.
// ============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS calendar (
	user_id TEXT NOT NULL PRIMARY KEY,
	events TEXT NOT NULL,
	updated_ts BIGINT NOT NULL
);`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at profile.DSN and ensures the schema exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("sqlite", withPragmas(profile.DSN))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to migrate calendar schema")
	}

	return &DB{db: db, profile: profile}, nil
}

// pragmas make concurrent writers wait instead of failing with SQLITE_BUSY.
const pragmas = "_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"

// withPragmas appends the connection pragmas, keeping any query the DSN already has.
func withPragmas(dsn string) string {
	switch {
	case !strings.Contains(dsn, "?"):
		return dsn + "?" + pragmas
	case strings.HasSuffix(dsn, "?"), strings.HasSuffix(dsn, "&"):
		return dsn + pragmas
	default:
		return dsn + "&" + pragmas
	}
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}
