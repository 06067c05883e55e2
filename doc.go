// Package tagstore provides tag persistence and consistency operations for a
// mailbox engine.
//
// Tags live in three places that must stay in step: the tag table (one row
// per user tag), the tagged_item join table (one row per association, system
// flags included), and a denormalized tag_names column on each item row that
// carries the item's user tag names wrapped in NUL delimiters. Every mutating
// operation here updates all three inside the caller's transaction.
//
// # Basic Usage
//
//	d := sqlite.New()
//	store, err := tagstore.New(d, mailboxID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tx, err := tagstore.BeginTx(ctx, db, d, retry.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tx.Rollback()
//
//	txn := tagstore.Txn{Conn: tx, ChangeID: nextChangeID}
//	tag := &tagstore.Tag{ID: 64, Name: "work", Listed: true}
//	if err := store.CreateTag(ctx, txn, tag); err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.AlterTagOnItems(ctx, txn, tag, itemIDs, true); err != nil {
//	    log.Fatal(err)
//	}
//	if err := tx.Commit(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Transactions
//
// The store never opens or commits transactions on its own; every operation
// runs on the Txn the caller supplies, so a tag change commits or rolls back
// together with the rest of the caller's mailbox transaction. BeginTx is a
// convenience that retries acquisition on busy/locked engines. The retention
// Sweeper is the one exception and documents it.
//
// # Dialects
//
// Engine differences are isolated behind the dialect package. Constructors
// for MariaDB/MySQL, SQLite, and PostgreSQL live in dialect/mariadb,
// dialect/sqlite, and dialect/postgres; the store takes the dialect as an
// injected dependency and never inspects driver errors directly.
//
// # System Flags
//
// Flags such as \Flagged and \Unread are tags with fixed negative ids. They
// are synthesized in memory rather than stored as tag rows, but keep
// tagged_item rows like user tags, so flag queries and tag queries share one
// path.
//
// # Caching
//
// The cache package provides an optional Redis-backed cache for per-mailbox
// tag lists, built on github.com/redis/go-redis/v9.
package tagstore
