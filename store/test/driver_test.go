package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orcha/internal/profile"
	"github.com/hrygo/orcha/store"
	"github.com/hrygo/orcha/store/db"
	"github.com/hrygo/orcha/store/db/file"
	"github.com/hrygo/orcha/store/db/memory"
)

type driverFactory func(t *testing.T) store.Driver

func drivers() map[string]driverFactory {
	return map[string]driverFactory{
		"memory": func(t *testing.T) store.Driver {
			return memory.NewDB()
		},
		"file": func(t *testing.T) store.Driver {
			d, err := file.Open(filepath.Join(t.TempDir(), "calendar"))
			require.NoError(t, err)
			return d
		},
		"sqlite": func(t *testing.T) store.Driver {
			p := &profile.Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
			require.NoError(t, p.Validate())
			d, err := db.NewDBDriver(p)
			require.NoError(t, err)
			return d
		},
	}
}

func TestDriver_Conformance(t *testing.T) {
	ctx := context.Background()

	for name, factory := range drivers() {
		t.Run(name, func(t *testing.T) {
			d := factory(t)
			defer d.Close()

			ids, err := d.ListRecords(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			data, err := d.ReadRecord(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, data)

			require.NoError(t, d.WriteRecord(ctx, "2", []byte(`[]`)))
			require.NoError(t, d.WriteRecord(ctx, "1", []byte(`[{"id":"a"}]`)))
			require.NoError(t, d.WriteRecord(ctx, "1", []byte(`[{"id":"b"}]`)))

			ids, err = d.ListRecords(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "2"}, ids)

			data, err = d.ReadRecord(ctx, "1")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"b"}]`, string(data))

			require.NoError(t, d.DeleteRecord(ctx, "2"))
			require.NoError(t, d.DeleteRecord(ctx, "2"))
			ids, err = d.ListRecords(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"1"}, ids)
		})
	}
}

func TestFileDriver_EscapesUserIDs(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "calendar")
	d, err := file.Open(dir)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.WriteRecord(ctx, "../evil/user_1", []byte(`[]`)))

	matches, err := filepath.Glob(filepath.Join(dir, "*_calendar.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	ids, err := d.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"../evil/user_1"}, ids)
}

func TestFileDriver_RejectsSecondInstance(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "calendar")

	first, err := file.Open(dir)
	require.NoError(t, err)

	_, err = file.Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")

	require.NoError(t, first.Close())
	second, err := file.Open(dir)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestFileDriver_TakesOverStaleLock(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "calendar")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	// Left behind by a holder that was killed before it could clean up.
	lockPath := filepath.Join(dir, "LOCK")
	require.NoError(t, os.WriteFile(lockPath, []byte("2147483646\n"), 0o600))

	d, err := file.Open(dir)
	require.NoError(t, err)
	require.NoError(t, d.WriteRecord(ctx, "alice", []byte(`[]`)))

	data, err := os.ReadFile(lockPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))

	_, err = file.Open(dir)
	assert.Error(t, err, "a live holder still excludes")
	require.NoError(t, d.Close())
	require.NoError(t, d.Close(), "close is idempotent")
}

func TestSqliteDriver_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())

	d, err := db.NewDBDriver(p)
	require.NoError(t, err)
	require.NoError(t, d.WriteRecord(ctx, "42", []byte(`[{"id":"x"}]`)))
	require.NoError(t, d.Close())

	reopened, err := db.NewDBDriver(p)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.ReadRecord(ctx, "42")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x"}]`, string(data))
}

func TestNewDBDriver_UnknownDriver(t *testing.T) {
	_, err := db.NewDBDriver(&profile.Profile{Driver: "mysql"})
	require.Error(t, err)
}
