package tagstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/tagstore/dialect"
)

// RenameTag renames tag, rewriting the denormalized tag_names token on every
// item currently associated with it.
//
// The persisted name is re-read inside the transaction first: it detects true
// no-ops and yields the authoritative old name, so a racing rename cannot
// leave stale tokens behind. Returns ErrAlreadyExists when newName collides
// with another tag, ErrNotFound when the tag vanished mid-transaction.
func (s *Store) RenameTag(ctx context.Context, txn Txn, tag *Tag, newName string) (err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "rename_tag", start, err) }(time.Now())

	if tag.ID <= 0 {
		return fmt.Errorf("rename tag: system flag %d: %w", tag.ID, ErrInvalidRequest)
	}

	// Step 1: authoritative old name, under the row lock where available.
	mb, args := s.mb("")
	query := `SELECT name FROM ` + s.opts.tagTable + ` WHERE ` + mb + `id = ?`
	if s.d.Supports(dialect.RowLocking) {
		query += " FOR UPDATE"
	}
	args = append(args, tag.ID)

	var oldName string
	if err := s.queryRow(ctx, txn.Conn, query, args...).Scan(&oldName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("rename tag %d: %w", tag.ID, ErrNotFound)
		}
		return storageErr("rename tag", err)
	}
	if oldName == newName {
		tag.Name = newName
		return nil
	}

	// Step 2: rename the tag row.
	mb, args = s.mb("")
	query = `UPDATE ` + s.opts.tagTable + ` SET name = ?, sequence = ? WHERE ` + mb + `id = ?`
	args = append([]any{newName, txn.ChangeID}, append(args, tag.ID)...)

	res, err := s.exec(ctx, txn.Conn, query, args...)
	if err != nil {
		if s.d.IsError(err, dialect.Duplicate) {
			return fmt.Errorf("rename tag %d to %q: %w: %w", tag.ID, newName, ErrAlreadyExists, err)
		}
		return storageErr("rename tag", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("rename tag rows affected", err)
	} else if n == 0 {
		return fmt.Errorf("rename tag %d: %w", tag.ID, ErrNotFound)
	}

	// Step 3: swap the delimited token on every associated item.
	if s.d.Supports(dialect.NulSafeText) {
		set := func(p string) string {
			return p + `tag_names = REPLACE(` + p + `tag_names, ?, ?), ` + p + `mod_metadata = ?, ` + p + `change_date = ?`
		}
		setArgs := []any{delimited(oldName), delimited(newName), txn.ChangeID, txn.time().Unix()}
		if err := s.updateAssociatedItems(ctx, txn, tag.ID, set, setArgs); err != nil {
			return err
		}
	} else if err := s.rewriteAssociatedNames(ctx, txn, tag.ID, func(names []string) []string {
		for i, n := range names {
			if n == oldName {
				names[i] = newName
			}
		}
		return names
	}); err != nil {
		return err
	}

	tag.Name = newName
	tag.Sequence = txn.ChangeID
	return nil
}

// DeleteTag removes tag, stripping its name from every associated item's
// tag_names column first. An item whose only tag was this one ends with a
// NULL column, never an empty string. The tagged_item rows are removed in the
// same transaction; system flags share that table without tag rows, so no
// foreign key exists to cascade through.
func (s *Store) DeleteTag(ctx context.Context, txn Txn, tag *Tag) (err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "delete_tag", start, err) }(time.Now())

	if tag.ID <= 0 {
		return fmt.Errorf("delete tag: system flag %d: %w", tag.ID, ErrInvalidRequest)
	}

	if s.d.Supports(dialect.NulSafeText) {
		tok := delimited(tag.Name)
		set := func(p string) string {
			return p + `tag_names = CASE WHEN ` + p + `tag_names = ? THEN NULL ELSE REPLACE(` + p + `tag_names, ?, ?) END, ` +
				p + `mod_metadata = ?, ` + p + `change_date = ?`
		}
		setArgs := []any{tok, tok, Delim, txn.ChangeID, txn.time().Unix()}
		if err := s.updateAssociatedItems(ctx, txn, tag.ID, set, setArgs); err != nil {
			return err
		}
	} else if err := s.rewriteAssociatedNames(ctx, txn, tag.ID, func(names []string) []string {
		next := names[:0]
		for _, n := range names {
			if n != tag.Name {
				next = append(next, n)
			}
		}
		return next
	}); err != nil {
		return err
	}

	mb, args := s.mb("")
	query := `DELETE FROM ` + s.opts.tagTable + ` WHERE ` + mb + `id = ?`
	args = append(args, tag.ID)

	res, err := s.exec(ctx, txn.Conn, query, args...)
	if err != nil {
		return storageErr("delete tag", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("delete tag rows affected", err)
	} else if n == 0 {
		return fmt.Errorf("delete tag %d: %w", tag.ID, ErrNotFound)
	}

	mb, args = s.mb("")
	query = `DELETE FROM ` + s.opts.taggedItemTable + ` WHERE ` + mb + `tag_id = ?`
	args = append(args, tag.ID)
	if _, err := s.exec(ctx, txn.Conn, query, args...); err != nil {
		return storageErr("delete tag associations", err)
	}
	return nil
}

// rewriteAssociatedNames loads tag_names for every item associated with
// tagID, applies rewrite to the decoded name list, and writes back the rows
// that changed. Used where the engine's string functions stop at the NUL
// delimiter and cannot rewrite tokens server-side.
func (s *Store) rewriteAssociatedNames(ctx context.Context, txn Txn, tagID int32, rewrite func([]string) []string) error {
	mbOuter, outerArgs := s.mb("")
	mbInner, innerArgs := s.mb("")
	query := `SELECT id, tag_names FROM ` + s.opts.itemTable + `
		WHERE ` + mbOuter + `id IN (SELECT item_id FROM ` + s.opts.taggedItemTable + ` WHERE ` + mbInner + `tag_id = ?)`
	args := append(append(append([]any{}, outerArgs...), innerArgs...), tagID)

	rows, err := s.query(ctx, txn.Conn, query, args...)
	if err != nil {
		return storageErr("update tagged items", err)
	}
	defer rows.Close()

	type change struct {
		id      int64
		encoded string
	}
	var changes []change
	for rows.Next() {
		var id int64
		var tagNames sql.NullString
		if err := rows.Scan(&id, &tagNames); err != nil {
			return storageErr("update tagged items", err)
		}
		if next := EncodeNames(rewrite(DecodeNames(tagNames.String))); next != tagNames.String {
			changes = append(changes, change{id, next})
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("update tagged items", err)
	}

	for _, c := range changes {
		mb, uargs := s.mb("")
		uq := `UPDATE ` + s.opts.itemTable + ` SET tag_names = ?, mod_metadata = ?, change_date = ? WHERE ` + mb + `id = ?`
		uargs = append([]any{nullString(c.encoded), txn.ChangeID, txn.time().Unix()}, append(uargs, c.id)...)
		if _, err := s.exec(ctx, txn.Conn, uq, uargs...); err != nil {
			return storageErr("update tagged items", err)
		}
	}
	return nil
}

// updateAssociatedItems applies the SET clause to every item associated with
// tagID, via a single multi-table UPDATE where the dialect supports it and a
// correlated subquery otherwise. set receives the item-column prefix to use
// ("mi." in the multi-table form).
func (s *Store) updateAssociatedItems(ctx context.Context, txn Txn, tagID int32, set func(prefix string) string, setArgs []any) error {
	var query string
	var args []any

	if s.d.Supports(dialect.MultiTableUpdate) {
		mb, mbArgs := s.mb("mi.")
		query = `UPDATE ` + s.opts.itemTable + ` mi, ` + s.opts.taggedItemTable + ` ti SET ` + set("mi.") + `
			WHERE ` + mb + `ti.mailbox_id = mi.mailbox_id AND ti.item_id = mi.id AND ti.tag_id = ?`
		args = append(append(append(args, setArgs...), mbArgs...), tagID)
	} else {
		mbOuter, outerArgs := s.mb("")
		mbInner, innerArgs := s.mb("")
		query = `UPDATE ` + s.opts.itemTable + ` SET ` + set("") + `
			WHERE ` + mbOuter + `id IN (SELECT item_id FROM ` + s.opts.taggedItemTable + ` WHERE ` + mbInner + `tag_id = ?)`
		args = append(append(append(append(args, setArgs...), outerArgs...), innerArgs...), tagID)
	}

	if _, err := s.exec(ctx, txn.Conn, query, args...); err != nil {
		return storageErr("update tagged items", err)
	}
	return nil
}

// PersistCounts writes tag's cached item and unread counts back to its row.
func (s *Store) PersistCounts(ctx context.Context, txn Txn, tag *Tag) error {
	mb, args := s.mb("")
	query := `UPDATE ` + s.opts.tagTable + ` SET item_count = ?, unread = ? WHERE ` + mb + `id = ?`
	args = append([]any{tag.ItemCount, tag.UnreadCount}, append(args, tag.ID)...)

	res, err := s.exec(ctx, txn.Conn, query, args...)
	if err != nil {
		return storageErr("persist counts", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("persist counts rows affected", err)
	} else if n == 0 {
		return fmt.Errorf("persist counts for tag %d: %w", tag.ID, ErrNotFound)
	}
	return nil
}

// SaveMetadata writes tag's color, listed flag, sequence, and retention
// policy back to its row. Pure field projection, no cross-table effects.
func (s *Store) SaveMetadata(ctx context.Context, txn Txn, tag *Tag) error {
	policy, err := marshalPolicy(tag.Policy)
	if err != nil {
		return err
	}

	mb, args := s.mb("")
	query := `UPDATE ` + s.opts.tagTable + ` SET color = ?, listed = ?, sequence = ?, policy = ? WHERE ` + mb + `id = ?`
	args = append([]any{int64(tag.Color), tag.Listed, tag.Sequence, nullString(policy)}, append(args, tag.ID)...)

	res, err := s.exec(ctx, txn.Conn, query, args...)
	if err != nil {
		return storageErr("save metadata", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("save metadata rows affected", err)
	} else if n == 0 {
		return fmt.Errorf("save metadata for tag %d: %w", tag.ID, ErrNotFound)
	}
	return nil
}
