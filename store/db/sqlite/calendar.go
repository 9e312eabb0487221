package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

func (d *DB) ListRecords(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT user_id FROM calendar ORDER BY user_id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query calendars")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan calendar row")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate calendar rows")
	}
	return ids, nil
}

func (d *DB) ReadRecord(ctx context.Context, userID string) ([]byte, error) {
	var events string
	err := d.db.QueryRowContext(ctx, `SELECT events FROM calendar WHERE user_id = `+placeholder(1), userID).Scan(&events)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read calendar")
	}
	return []byte(events), nil
}

func (d *DB) WriteRecord(ctx context.Context, userID string, data []byte) error {
	stmt := `INSERT INTO calendar (user_id, events, updated_ts)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT(user_id) DO UPDATE SET events = excluded.events, updated_ts = excluded.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, userID, string(data), time.Now().Unix()); err != nil {
		return errors.Wrap(err, "failed to write calendar")
	}
	return nil
}

func (d *DB) DeleteRecord(ctx context.Context, userID string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM calendar WHERE user_id = `+placeholder(1), userID); err != nil {
		return errors.Wrap(err, "failed to delete calendar")
	}
	return nil
}
