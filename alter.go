package tagstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/tagstore/dialect"
)

// leafTypes are the item types that can carry tags and flags.
var leafTypes = []ItemType{TypeMessage, TypeContact, TypeDocument, TypeAppointment}

// AlterTagOnItems adds or removes one tag on a set of items, keeping the
// denormalized tag_names column, the flags bitmask, and the tagged_item join
// table in step within the caller's transaction.
//
// The item updates carry a state predicate, so applying a change the column
// already reflects touches no rows. The join-table sync runs for the full id
// set regardless, which lets a retried or replayed call converge association
// rows that a previous partial attempt left behind.
//
// The unread pseudo-flag only toggles the unread column and does not bump the
// item's modification sequence.
func (s *Store) AlterTagOnItems(ctx context.Context, txn Txn, tag *Tag, itemIDs []int64, add bool) (err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "alter_tag", start, err) }(time.Now())

	if len(itemIDs) == 0 {
		return nil
	}
	if tag.ID == 0 {
		return fmt.Errorf("alter tag: id 0: %w", ErrInvalidRequest)
	}

	for _, chunk := range chunkIDs(itemIDs, s.d.MaxInValues()) {
		if err := s.alterChunk(ctx, txn, tag, chunk, add); err != nil {
			return err
		}
		if err := s.syncAssociations(ctx, txn, tag.ID, chunk, add); err != nil {
			return err
		}
	}
	return nil
}

// alterChunk applies the item-column side of one add/remove chunk.
func (s *Store) alterChunk(ctx context.Context, txn Txn, tag *Tag, itemIDs []int64, add bool) error {
	if tag.ID > 0 && !s.d.Supports(dialect.NulSafeText) {
		return s.alterNamesClientSide(ctx, txn, tag, itemIDs, add)
	}

	var set string
	var setArgs []any
	var predicate string
	var predicateArgs []any

	switch {
	case tag.ID == FlagIDUnread:
		set = `unread = ?`
		setArgs = []any{add}
		predicate = ` AND unread = ?`
		predicateArgs = []any{!add}

	case tag.ID < 0:
		bit, err := flagBit(tag.ID)
		if err != nil {
			return err
		}
		if add {
			// Addition is safe arithmetic because the predicate
			// guarantees the bit is clear.
			set = `flags = flags + ?`
			predicate = ` AND ` + s.d.BitAnd("flags", "?") + ` = 0`
		} else {
			set = `flags = ` + s.d.BitAndNot("flags", "?")
			predicate = ` AND ` + s.d.BitAnd("flags", "?") + ` <> 0`
		}
		setArgs = []any{bit}
		predicateArgs = []any{bit}

	default:
		tok := delimited(tag.Name)
		pattern := "%" + dialect.EscapeLike(tok, s.d.LikeEscapeChar()) + "%"
		if add {
			set = `tag_names = CASE WHEN tag_names IS NULL THEN ? ELSE ` + s.d.Concat("tag_names", "?") + ` END`
			// The column keeps a trailing delimiter, so appending
			// "name\x00" preserves the grammar.
			setArgs = []any{tok, tag.Name + Delim}
			predicate = ` AND (tag_names IS NULL OR tag_names NOT LIKE ?` + s.d.LikeEscape() + `)`
		} else {
			set = `tag_names = CASE WHEN tag_names = ? THEN NULL ELSE REPLACE(tag_names, ?, ?) END`
			setArgs = []any{tok, tok, Delim}
			predicate = ` AND tag_names LIKE ?` + s.d.LikeEscape()
		}
		predicateArgs = []any{pattern}
	}

	if affectsModSeq(tag.ID) {
		set += `, mod_metadata = ?, change_date = ?`
		setArgs = append(setArgs, txn.ChangeID, txn.time().Unix())
	}

	mb, mbArgs := s.mb("")
	query := `UPDATE ` + s.opts.itemTable + ` SET ` + set + `
		WHERE ` + mb + `id IN (?) AND type IN (?)` + predicate

	args := append([]any{}, setArgs...)
	args = append(args, mbArgs...)
	args = append(args, itemIDs, leafTypes)
	args = append(args, predicateArgs...)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return storageErr("alter tag", err)
	}
	if _, err := s.exec(ctx, txn.Conn, query, inArgs...); err != nil {
		return storageErr("alter tag", err)
	}
	return nil
}

// alterNamesClientSide applies a user-tag add or remove by rewriting
// tag_names in Go, for engines whose string functions stop at the NUL
// delimiter and would treat the token operations as no-ops.
func (s *Store) alterNamesClientSide(ctx context.Context, txn Txn, tag *Tag, itemIDs []int64, add bool) error {
	mb, args := s.mb("")
	query := `SELECT id, tag_names FROM ` + s.opts.itemTable + ` WHERE ` + mb + `id IN (?) AND type IN (?)`
	args = append(args, itemIDs, leafTypes)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return storageErr("alter tag", err)
	}
	rows, err := s.query(ctx, txn.Conn, query, inArgs...)
	if err != nil {
		return storageErr("alter tag", err)
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
			return storageErr("alter tag", err)
		}
		if next, changed := applyName(tagNames.String, tag.Name, add); changed {
			changes = append(changes, change{id, next})
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("alter tag", err)
	}

	for _, c := range changes {
		mb, uargs := s.mb("")
		uq := `UPDATE ` + s.opts.itemTable + ` SET tag_names = ?, mod_metadata = ?, change_date = ? WHERE ` + mb + `id = ?`
		uargs = append([]any{nullString(c.encoded), txn.ChangeID, txn.time().Unix()}, append(uargs, c.id)...)
		if _, err := s.exec(ctx, txn.Conn, uq, uargs...); err != nil {
			return storageErr("alter tag", err)
		}
	}
	return nil
}

// syncAssociations converges the tagged_item rows for one chunk. Adds use the
// dialect's duplicate-tolerant insert form; removes delete whatever is there.
func (s *Store) syncAssociations(ctx context.Context, txn Txn, tagID int32, itemIDs []int64, add bool) error {
	if add {
		return s.insertAssociations(ctx, txn, tagID, itemIDs)
	}

	mb, args := s.mb("")
	query := `DELETE FROM ` + s.opts.taggedItemTable + ` WHERE ` + mb + `tag_id = ? AND item_id IN (?)`
	args = append(args, tagID, itemIDs)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return storageErr("remove tag associations", err)
	}
	if _, err := s.exec(ctx, txn.Conn, query, inArgs...); err != nil {
		return storageErr("remove tag associations", err)
	}
	return nil
}

// insertAssociations writes (tagID, itemID) join rows in one batched insert,
// silently skipping rows that already exist.
func (s *Store) insertAssociations(ctx context.Context, txn Txn, tagID int32, itemIDs []int64) error {
	var values strings.Builder
	args := make([]any, 0, len(itemIDs)*3)
	for i, id := range itemIDs {
		if i > 0 {
			values.WriteString(", ")
		}
		values.WriteString("(?, ?, ?)")
		args = append(args, s.mailboxID, tagID, id)
	}

	query := s.d.InsertIgnore(s.opts.taggedItemTable, "mailbox_id, tag_id, item_id", values.String())
	if _, err := s.exec(ctx, txn.Conn, query, args...); err != nil {
		return storageErr("insert tag associations", err)
	}
	return nil
}

// UpdateTagAssociations rewrites the tagged_item rows for one item from its
// in-memory state: the flags bitmask, the unread state, and the decoded tag
// names. It is the bulk-path counterpart to AlterTagOnItems, used when an
// item is imported or rewritten wholesale and its associations must be
// rebuilt rather than incrementally adjusted.
//
// Non-leaf items carry no associations; the call is a no-op for them. Tag
// names that match no tag row are skipped.
func (s *Store) UpdateTagAssociations(ctx context.Context, txn Txn, item *Item) (err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "update_associations", start, err) }(time.Now())

	if !item.Type.Leaf() {
		return nil
	}

	mb, args := s.mb("")
	query := `DELETE FROM ` + s.opts.taggedItemTable + ` WHERE ` + mb + `item_id = ?`
	args = append(args, item.ID)
	if _, err := s.exec(ctx, txn.Conn, query, args...); err != nil {
		return storageErr("clear tag associations", err)
	}

	tagIDs := flagIDsFromBitmask(item.Flags, item.Unread)
	if len(item.TagNames) > 0 {
		userIDs, err := s.tagIDsByName(ctx, txn, item.TagNames)
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, userIDs...)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	seen := make(map[int32]struct{}, len(tagIDs))
	var values strings.Builder
	insertArgs := make([]any, 0, len(tagIDs)*3)
	for _, id := range tagIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if len(insertArgs) > 0 {
			values.WriteString(", ")
		}
		values.WriteString("(?, ?, ?)")
		insertArgs = append(insertArgs, s.mailboxID, id, item.ID)
	}

	query = `INSERT INTO ` + s.opts.taggedItemTable + ` (mailbox_id, tag_id, item_id) VALUES ` + values.String()
	if _, err := s.exec(ctx, txn.Conn, query, insertArgs...); err != nil {
		return storageErr("insert tag associations", err)
	}
	return nil
}

// tagIDsByName resolves tag names to ids. Names without a tag row are
// silently dropped.
func (s *Store) tagIDsByName(ctx context.Context, txn Txn, names []string) ([]int32, error) {
	mb, args := s.mb("")
	query := `SELECT id FROM ` + s.opts.tagTable + ` WHERE ` + mb + `name IN (?)`
	args = append(args, names)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, storageErr("resolve tag names", err)
	}
	rows, err := s.query(ctx, txn.Conn, query, inArgs...)
	if err != nil {
		return nil, storageErr("resolve tag names", err)
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan tag id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("resolve tag names", err)
	}
	return ids, nil
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) <= size {
		return [][]int64{ids}
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	return append(chunks, ids)
}
