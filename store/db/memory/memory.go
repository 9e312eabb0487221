// Package memory provides an in-process calendar driver for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hrygo/orcha/store"
)

// DB keeps calendar records in a map.
type DB struct {
	mu      sync.RWMutex
	records map[string][]byte

	// FailWrites makes every WriteRecord call fail with WriteErr.
	FailWrites bool
	WriteErr   error
	writes     int
}

// NewDB creates an empty in-memory driver.
func NewDB() *DB {
	return &DB{records: make(map[string][]byte)}
}

var _ store.Driver = (*DB)(nil)

func (d *DB) Close() error {
	return nil
}

func (d *DB) ListRecords(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.records))
	for id := range d.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (d *DB) ReadRecord(_ context.Context, userID string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	data, ok := d.records[userID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (d *DB) WriteRecord(_ context.Context, userID string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailWrites {
		return d.WriteErr
	}
	d.records[userID] = append([]byte(nil), data...)
	d.writes++
	return nil
}

func (d *DB) DeleteRecord(_ context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.records, userID)
	return nil
}

// Put seeds a raw record, bypassing encoding. Used to plant malformed data in tests.
func (d *DB) Put(userID string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[userID] = append([]byte(nil), data...)
}

// Writes returns the number of successful WriteRecord calls.
func (d *DB) Writes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.writes
}
