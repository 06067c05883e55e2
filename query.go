package tagstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// GetUnreadItemsForTag returns every unread item associated with tag, joined
// through the tagged_item table. Items in the trash and spam folders are
// excluded, matching how the cached unread totals are computed.
//
// Works for user tags and system flags alike, since both keep association
// rows.
func (s *Store) GetUnreadItemsForTag(ctx context.Context, txn Txn, tag *Tag) (items []*Item, err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "unread_items", start, err) }(time.Now())

	mb, args := s.mb("ti.")
	query := `SELECT ` + itemColumns + `
		FROM ` + s.opts.itemTable + ` mi
		JOIN ` + s.opts.taggedItemTable + ` ti ON ti.mailbox_id = mi.mailbox_id AND ti.item_id = mi.id
		WHERE ` + mb + `ti.tag_id = ? AND mi.unread = ? AND mi.folder_id NOT IN (?)`
	args = append(args, tag.ID, true, excludedFolderIDs)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, storageErr("unread items", err)
	}
	return s.queryItems(ctx, txn, "unread items", query, inArgs...)
}

// GetLeafNodesForPurge returns up to limit items associated with tag whose
// date falls strictly before cutoff, oldest first. Only leaf types are
// returned; folders and tag entities never age out. Used by retention sweeps
// to pick the next purge batch.
func (s *Store) GetLeafNodesForPurge(ctx context.Context, txn Txn, tag *Tag, cutoff time.Time, limit int) (items []*Item, err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "purge_candidates", start, err) }(time.Now())

	mb, args := s.mb("ti.")
	query := `SELECT ` + itemColumns + `
		FROM ` + s.opts.itemTable + ` mi
		JOIN ` + s.opts.taggedItemTable + ` ti ON ti.mailbox_id = mi.mailbox_id AND ti.item_id = mi.id
		WHERE ` + mb + `ti.tag_id = ? AND mi.date < ? AND mi.type IN (?)
		ORDER BY mi.date ` + s.d.Limit(false)
	args = append(args, tag.ID, cutoff.Unix(), leafTypes, limit)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, storageErr("purge candidates", err)
	}
	return s.queryItems(ctx, txn, "purge candidates", query, inArgs...)
}

// queryItems runs an item query and scans the result set.
func (s *Store) queryItems(ctx context.Context, txn Txn, op, query string, args ...any) ([]*Item, error) {
	rows, err := s.query(ctx, txn.Conn, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}

// RecalculateTagCounts recomputes item and unread counts for the given tags
// from the tagged_item table, repairing drift left by interrupted bulk
// operations. Counts follow the same visibility rules as the unread scan:
// leaf items only, trash and spam excluded.
//
// All counts in tags are zeroed first, then filled from the aggregate; user
// tag rows (id > 0) are persisted, system flags are updated in memory only.
func (s *Store) RecalculateTagCounts(ctx context.Context, txn Txn, tags map[int32]*Tag) (err error) {
	defer func(start time.Time) { s.metrics.record(ctx, "recalculate_counts", start, err) }(time.Now())

	for _, t := range tags {
		t.ItemCount = 0
		t.UnreadCount = 0
	}

	mb, args := s.mb("ti.")
	query := `SELECT ti.tag_id, COUNT(*), SUM(CASE WHEN mi.unread = ? THEN 1 ELSE 0 END)
		FROM ` + s.opts.taggedItemTable + ` ti
		JOIN ` + s.opts.itemTable + ` mi ON mi.mailbox_id = ti.mailbox_id AND mi.id = ti.item_id
		WHERE ` + mb + `mi.type IN (?) AND mi.folder_id NOT IN (?)
		GROUP BY ti.tag_id`
	args = append([]any{true}, args...)
	args = append(args, leafTypes, excludedFolderIDs)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return storageErr("recalculate counts", err)
	}
	rows, err := s.query(ctx, txn.Conn, query, inArgs...)
	if err != nil {
		return storageErr("recalculate counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tagID int32
		var itemCount, unreadCount int64
		if err := rows.Scan(&tagID, &itemCount, &unreadCount); err != nil {
			return storageErr("scan counts", err)
		}
		if t, ok := tags[tagID]; ok {
			t.ItemCount = itemCount
			t.UnreadCount = unreadCount
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("recalculate counts", err)
	}

	for _, t := range tags {
		if t.ID <= 0 {
			continue
		}
		if err := s.PersistCounts(ctx, txn, t); err != nil {
			return err
		}
	}
	return nil
}
