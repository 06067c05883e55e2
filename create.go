package tagstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/tagstore/dialect"
)

// CreateTag inserts tag as a new row, setting its modification sequence to
// the transaction's change id. Returns ErrAlreadyExists when the id or name
// collides with an existing tag in the mailbox.
func (s *Store) CreateTag(ctx context.Context, txn Txn, tag *Tag) (err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "create_tag", start, err) }(time.Now())

	if tag.ID <= 0 {
		return fmt.Errorf("create tag: id %d is reserved for system flags: %w", tag.ID, ErrInvalidRequest)
	}

	policy, err := marshalPolicy(tag.Policy)
	if err != nil {
		return err
	}

	tag.Sequence = txn.ChangeID
	query := `INSERT INTO ` + s.opts.tagTable + ` (mailbox_id, id, name, color, item_count, unread, listed, sequence, policy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.exec(ctx, txn.Conn, query,
		s.mailboxID, tag.ID, tag.Name, int64(tag.Color), tag.ItemCount, tag.UnreadCount,
		tag.Listed, tag.Sequence, nullString(policy),
	)
	if err != nil {
		if s.d.IsError(err, dialect.Duplicate) {
			return fmt.Errorf("create tag %d %q: %w: %w", tag.ID, tag.Name, ErrAlreadyExists, err)
		}
		return storageErr("create tag", err)
	}
	return nil
}

// GetTagByName returns the tag with the given name, or ErrNotFound.
//
// Case sensitivity follows the engine's native string collation: an exact
// binary match on SQLite and PostgreSQL, case-insensitive on MariaDB's
// default collations.
func (s *Store) GetTagByName(ctx context.Context, txn Txn, name string) (*Tag, error) {
	mb, args := s.mb("")
	query := `SELECT ` + tagColumns + ` FROM ` + s.opts.tagTable + ` WHERE ` + mb + `name = ?`
	args = append(args, name)

	tag, err := scanTag(s.queryRow(ctx, txn.Conn, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tag %q: %w", name, ErrNotFound)
		}
		return nil, storageErr("get tag by name", err)
	}
	return tag, nil
}

// GetAllTags returns every user tag (id > 0) in the mailbox, ordered by id.
// System flags are synthesized by the caller, not stored as rows. Used to
// rebuild the caller's in-memory tag cache.
func (s *Store) GetAllTags(ctx context.Context, txn Txn) ([]*Tag, error) {
	mb, args := s.mb("")
	query := `SELECT ` + tagColumns + ` FROM ` + s.opts.tagTable + ` WHERE ` + mb + `id > 0 ORDER BY id`

	rows, err := s.query(ctx, txn.Conn, query, args...)
	if err != nil {
		return nil, storageErr("get all tags", err)
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, storageErr("scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tags", err)
	}
	return tags, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
