package tagstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/tagstore/dialect"
)

// Conn is the caller-supplied connection or transaction the store issues
// statements through. Both *sqlx.DB and *sqlx.Tx satisfy it; mutating
// operations expect a transaction, since commit and rollback belong to the
// caller.
type Conn interface {
	sqlx.ExtContext
}

// Txn bundles the ambient transaction context for one mailbox operation: the
// connection, the transaction's change id, and its timestamp. The store never
// retains the connection across calls and never commits it, except where a
// maintenance operation documents otherwise.
type Txn struct {
	// Conn is the caller's open connection or transaction.
	Conn Conn

	// ChangeID is the modification sequence assigned to changes made in
	// this transaction.
	ChangeID int32

	// Now is the operation timestamp; the zero value means time.Now().
	Now time.Time
}

func (t Txn) time() time.Time {
	if t.Now.IsZero() {
		return time.Now().UTC()
	}
	return t.Now
}

// Store provides tag CRUD and consistency operations for one mailbox. All
// operations run on the caller's transaction and are safe for concurrent use
// from multiple goroutines, each with its own Txn.
type Store struct {
	d         dialect.Dialect
	mailboxID int64
	opts      *options
	metrics   *otelInstrumentation
}

// New creates a Store for the given mailbox over the injected dialect.
func New(d dialect.Dialect, mailboxID int64, opts ...Option) (*Store, error) {
	if d == nil {
		return nil, fmt.Errorf("tagstore: dialect is required")
	}
	o := newOptions(opts...)
	m, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return &Store{
		d:         d,
		mailboxID: mailboxID,
		opts:      o,
		metrics:   m,
	}, nil
}

// Dialect returns the injected dialect.
func (s *Store) Dialect() dialect.Dialect { return s.d }

// MailboxID returns the mailbox this store is scoped to.
func (s *Store) MailboxID() int64 { return s.mailboxID }

// mb returns the mailbox predicate fragment ("mailbox_id = ? AND ") and its
// argument, with the given column prefix. Single-mailbox deployments omit the
// predicate entirely.
func (s *Store) mb(prefix string) (string, []any) {
	if s.opts.singleMailbox {
		return "", nil
	}
	return prefix + "mailbox_id = ? AND ", []any{s.mailboxID}
}

// exec rebinds query for the dialect and executes it on cn.
func (s *Store) exec(ctx context.Context, cn Conn, query string, args ...any) (sql.Result, error) {
	return cn.ExecContext(ctx, sqlx.Rebind(s.d.BindType(), query), args...)
}

// query rebinds query for the dialect and runs it on cn.
func (s *Store) query(ctx context.Context, cn Conn, query string, args ...any) (*sqlx.Rows, error) {
	return cn.QueryxContext(ctx, sqlx.Rebind(s.d.BindType(), query), args...)
}

// queryRow rebinds query for the dialect and runs it on cn.
func (s *Store) queryRow(ctx context.Context, cn Conn, query string, args ...any) *sqlx.Row {
	return cn.QueryRowxContext(ctx, sqlx.Rebind(s.d.BindType(), query), args...)
}

// EnsureSchema creates the tag, tagged_item, and mail_item tables and their
// indexes if missing. Deployments that own their schema migration can skip
// this; it exists so tests and small installs can bootstrap directly.
func (s *Store) EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	boolType := "TINYINT"
	if s.d.Supports(dialect.NativeBoolean) {
		boolType = "BOOLEAN"
	}

	tables := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				mailbox_id BIGINT NOT NULL,
				id INTEGER NOT NULL,
				name VARCHAR(128) NOT NULL,
				color BIGINT NOT NULL DEFAULT 0,
				item_count BIGINT NOT NULL DEFAULT 0,
				unread BIGINT NOT NULL DEFAULT 0,
				listed %s NOT NULL DEFAULT %s,
				sequence INTEGER NOT NULL DEFAULT 0,
				policy TEXT,
				PRIMARY KEY (mailbox_id, id),
				UNIQUE (mailbox_id, name)
			)
		`, s.opts.tagTable, boolType, s.d.Boolean(false)),
		// No foreign key to the tag table: system flags keep join rows
		// without ever existing as tag rows. DeleteTag clears its own
		// associations.
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				mailbox_id BIGINT NOT NULL,
				tag_id INTEGER NOT NULL,
				item_id BIGINT NOT NULL,
				PRIMARY KEY (mailbox_id, tag_id, item_id)
			)
		`, s.opts.taggedItemTable),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				mailbox_id BIGINT NOT NULL,
				id BIGINT NOT NULL,
				type SMALLINT NOT NULL,
				folder_id BIGINT NOT NULL,
				flags INTEGER NOT NULL DEFAULT 0,
				unread %s NOT NULL DEFAULT %s,
				tag_names TEXT,
				date BIGINT NOT NULL DEFAULT 0,
				mod_metadata INTEGER NOT NULL DEFAULT 0,
				change_date BIGINT NOT NULL DEFAULT 0,
				PRIMARY KEY (mailbox_id, id)
			)
		`, s.opts.itemTable, boolType, s.d.Boolean(false)),
	}

	for _, ddl := range tables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_item ON %s (mailbox_id, item_id)`,
			s.opts.taggedItemTable, s.opts.taggedItemTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_folder ON %s (mailbox_id, folder_id)`,
			s.opts.itemTable, s.opts.itemTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s (mailbox_id, date)`,
			s.opts.itemTable, s.opts.itemTable),
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			s.opts.logger.Warn("failed to create index", "error", err, "sql", idx)
		}
	}

	return nil
}

// tagColumns is the column list scanTag expects.
const tagColumns = "id, name, color, item_count, unread, listed, sequence, policy"

// scanTag scans one tag row.
func scanTag(row interface{ Scan(...any) error }) (*Tag, error) {
	var t Tag
	var color sql.NullInt64
	var policy sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &color, &t.ItemCount, &t.UnreadCount, &t.Listed, &t.Sequence, &policy); err != nil {
		return nil, err
	}
	t.Color = uint32(color.Int64)
	p, err := unmarshalPolicy(policy.String)
	if err != nil {
		return nil, err
	}
	t.Policy = p
	return &t, nil
}

// itemColumns is the column list scanItem expects, for rows aliased mi.
const itemColumns = "mi.id, mi.type, mi.folder_id, mi.flags, mi.unread, mi.tag_names, mi.date, mi.mod_metadata, mi.change_date"

// scanItem scans one mail item row. Cached item types are never served from
// a row scan; hitting one means the caller asked for something the item
// cache owns.
func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	var typ int8
	var tagNames sql.NullString
	var date, changeDate int64
	if err := row.Scan(&it.ID, &typ, &it.FolderID, &it.Flags, &it.Unread, &tagNames, &date, &it.ModSequence, &changeDate); err != nil {
		return nil, err
	}
	it.Type = ItemType(typ)
	if it.Type.Cached() {
		return nil, fmt.Errorf("item %d has cached type %s: %w", it.ID, it.Type, ErrInvalidRequest)
	}
	it.TagNames = DecodeNames(tagNames.String)
	it.Date = time.Unix(date, 0).UTC()
	it.ChangeDate = time.Unix(changeDate, 0).UTC()
	return &it, nil
}
