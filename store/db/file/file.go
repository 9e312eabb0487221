// Package file stores one JSON document per user under a directory.
package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/orcha/internal/profile"
	"github.com/hrygo/orcha/store"
)

const (
	recordSuffix = "_calendar.json"
	lockFileName = "LOCK"
)

// DB is a directory of per-user calendar files.
//
// Opening a directory takes an exclusive advisory lock on its LOCK file; a
// second engine instance on the same directory fails instead of silently
// sharing it. The kernel drops the lock when the holder exits, so a LOCK
// file left behind by a crash does not block the next start.
type DB struct {
	dir  string
	lock *os.File
	mu   sync.Mutex
}

// NewDB opens the calendar directory at profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	return Open(profile.DSN)
}

// Open opens (creating if needed) the calendar directory at dir.
func Open(dir string) (*DB, error) {
	if dir == "" {
		return nil, errors.New("calendar directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create calendar directory %s", dir)
	}

	lockPath := filepath.Join(dir, lockFileName)
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open calendar lock")
	}
	if err := lockFile(lock); err != nil {
		_ = lock.Close()
		if errors.Is(err, errLocked) {
			return nil, errors.Errorf("calendar directory %s is in use by another instance", dir)
		}
		return nil, errors.Wrap(err, "failed to acquire calendar lock")
	}

	// The pid is informational; the lock itself is what excludes.
	if err := lock.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(lock, "%d\n", os.Getpid())
	}

	return &DB{dir: dir, lock: lock}, nil
}

// Close releases the directory lock. The LOCK file itself stays in place.
func (d *DB) Close() error {
	if d.lock == nil {
		return nil
	}
	err := unlockFile(d.lock)
	if cerr := d.lock.Close(); err == nil {
		err = cerr
	}
	d.lock = nil
	if err != nil {
		return errors.Wrap(err, "failed to release calendar lock")
	}
	return nil
}

func (d *DB) ListRecords(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read calendar directory %s", d.dir)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, recordSuffix))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (d *DB) ReadRecord(_ context.Context, userID string) ([]byte, error) {
	data, err := os.ReadFile(d.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read calendar for user %s", userID)
	}
	return data, nil
}

// WriteRecord writes through a temp file and rename so readers never see a partial record.
func (d *DB) WriteRecord(_ context.Context, userID string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write calendar for user %s", userID)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpName, d.path(userID)); err != nil {
		return errors.Wrapf(err, "failed to replace calendar for user %s", userID)
	}
	return nil
}

func (d *DB) DeleteRecord(_ context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.path(userID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete calendar for user %s", userID)
	}
	return nil
}

// path maps a user id to its record file; ids are escaped so they cannot leave the directory.
func (d *DB) path(userID string) string {
	return filepath.Join(d.dir, url.PathEscape(userID)+recordSuffix)
}
