package tagstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSweeperPurgesExpiredItems(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, 7)
	txn := Txn{Conn: db, ChangeID: 1}

	expiring := &Tag{ID: 64, Name: "expiring", Policy: NewRetentionPolicy(time.Hour)}
	keeper := &Tag{ID: 65, Name: "keeper"}
	for _, tag := range []*Tag{expiring, keeper} {
		if err := s.CreateTag(ctx, txn, tag); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	old := time.Now().Add(-2 * time.Hour).Unix()
	fresh := time.Now().Unix()
	insertItem(t, db, 7, testItem{id: 100, date: old})
	insertItem(t, db, 7, testItem{id: 101, date: fresh})
	insertItem(t, db, 7, testItem{id: 102, date: old})
	if err := s.AlterTagOnItems(ctx, txn, expiring, []int64{100, 101}, true); err != nil {
		t.Fatalf("tag expiring: %v", err)
	}
	// Item 102 is old but its tag has no retention policy.
	if err := s.AlterTagOnItems(ctx, txn, keeper, []int64{102}, true); err != nil {
		t.Fatalf("tag keeper: %v", err)
	}

	purge := func(ctx context.Context, txn Txn, mailboxID int64, items []*Item) error {
		for _, it := range items {
			if _, err := txn.Conn.ExecContext(ctx,
				`DELETE FROM tagged_item WHERE mailbox_id = ? AND item_id = ?`, mailboxID, it.ID); err != nil {
				return err
			}
			if _, err := txn.Conn.ExecContext(ctx,
				`DELETE FROM mail_item WHERE mailbox_id = ? AND id = ?`, mailboxID, it.ID); err != nil {
				return err
			}
		}
		return nil
	}

	w, err := NewSweeper(db, s.Dialect(), purge, WithSweepBatchSize(10))
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	result, err := w.Sweep(ctx, []int64{7})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Purged != 1 {
		t.Errorf("expected 1 purged item, got %d", result.Purged)
	}
	if result.Mailboxes != 1 {
		t.Errorf("expected 1 mailbox swept, got %d", result.Mailboxes)
	}
	if result.Interrupted {
		t.Error("sweep should not report interruption")
	}

	remaining := func(id int64) bool {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM mail_item WHERE mailbox_id = 7 AND id = ?`, id).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n > 0
	}
	if remaining(100) {
		t.Error("expired item 100 should be purged")
	}
	if !remaining(101) {
		t.Error("fresh item 101 should survive")
	}
	if !remaining(102) {
		t.Error("item 102 has no retention policy and should survive")
	}
}

func TestSweeperPurgeFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, 7)
	txn := Txn{Conn: db, ChangeID: 1}

	tag := &Tag{ID: 64, Name: "expiring", Policy: NewRetentionPolicy(time.Hour)}
	if err := s.CreateTag(ctx, txn, tag); err != nil {
		t.Fatalf("create: %v", err)
	}
	insertItem(t, db, 7, testItem{id: 100, date: time.Now().Add(-2 * time.Hour).Unix()})
	if err := s.AlterTagOnItems(ctx, txn, tag, []int64{100}, true); err != nil {
		t.Fatalf("tag: %v", err)
	}

	boom := errors.New("purge backend down")
	purge := func(ctx context.Context, txn Txn, mailboxID int64, items []*Item) error {
		return boom
	}

	w, err := NewSweeper(db, s.Dialect(), purge)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	result, err := w.Sweep(ctx, []int64{7})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// The failing mailbox is logged and skipped, not fatal.
	if result.Mailboxes != 0 || result.Purged != 0 {
		t.Errorf("expected nothing swept, got %+v", result)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM mail_item WHERE mailbox_id = 7 AND id = 100`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Error("item should survive a failed sweep")
	}
}

func TestNewSweeperValidation(t *testing.T) {
	s, db := newTestStore(t, 7)
	purge := func(context.Context, Txn, int64, []*Item) error { return nil }

	if _, err := NewSweeper(nil, s.Dialect(), purge); err == nil {
		t.Error("expected error for nil db")
	}
	if _, err := NewSweeper(db, nil, purge); err == nil {
		t.Error("expected error for nil dialect")
	}
	if _, err := NewSweeper(db, s.Dialect(), nil); err == nil {
		t.Error("expected error for nil purge callback")
	}
}
