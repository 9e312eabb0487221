package store

import (
	"context"
)

// Driver is the persistence surface behind the calendar store.
// Each user owns exactly one record holding the serialized calendar;
// drivers never interpret its contents.
type Driver interface {
	Close() error

	// ListRecords returns the user ids that have a persisted record.
	ListRecords(ctx context.Context) ([]string, error)
	// ReadRecord returns the raw record for a user, or nil if none exists.
	ReadRecord(ctx context.Context, userID string) ([]byte, error)
	// WriteRecord replaces the user's record wholesale.
	WriteRecord(ctx context.Context, userID string, data []byte) error
	// DeleteRecord removes the user's record. Missing records are not an error.
	DeleteRecord(ctx context.Context, userID string) error
}
