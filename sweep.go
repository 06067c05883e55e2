package tagstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"

	"github.com/rbaliyan/tagstore/dialect"
	"github.com/rbaliyan/tagstore/retry"
)

// DefaultSweepBatchSize is the number of purge candidates fetched per query.
const DefaultSweepBatchSize = 100

// PurgeFunc deletes a batch of expired items. It runs inside the sweep's
// transaction and must remove the item rows and their association rows; the
// sweeper only selects candidates.
type PurgeFunc func(ctx context.Context, txn Txn, mailboxID int64, items []*Item) error

// SweepResult summarizes one retention sweep.
type SweepResult struct {
	// Purged is the number of items handed to the purge callback.
	Purged int64

	// Mailboxes is the number of mailboxes swept without error.
	Mailboxes int

	// Interrupted reports whether the sweep stopped on context
	// cancellation before visiting every mailbox.
	Interrupted bool
}

// Sweeper walks mailboxes and purges items that outlived their tag's
// retention policy. Each mailbox is swept in its own transaction, opened and
// committed by the sweeper, so one failing mailbox never poisons the rest.
//
// Scheduling belongs to the application; run Sweep from a cron job or a
// ticker loop.
type Sweeper struct {
	db        *sqlx.DB
	d         dialect.Dialect
	purge     PurgeFunc
	logger    *slog.Logger
	batchSize int
	sem       *semaphore.Weighted
	retryCfg  retry.Config
	storeOpts []Option
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLogger sets the sweep logger.
func WithSweepLogger(l *slog.Logger) SweeperOption {
	return func(w *Sweeper) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSweepBatchSize sets how many purge candidates are fetched per query.
func WithSweepBatchSize(n int) SweeperOption {
	return func(w *Sweeper) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithSweepConcurrency bounds how many mailboxes are swept in parallel.
// Defaults to 1.
func WithSweepConcurrency(n int64) SweeperOption {
	return func(w *Sweeper) {
		if n > 0 {
			w.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithSweepRetry sets the retry configuration for transaction acquisition.
func WithSweepRetry(cfg retry.Config) SweeperOption {
	return func(w *Sweeper) {
		w.retryCfg = cfg
	}
}

// WithSweepStoreOptions passes store options through to the per-mailbox
// stores the sweeper builds.
func WithSweepStoreOptions(opts ...Option) SweeperOption {
	return func(w *Sweeper) {
		w.storeOpts = opts
	}
}

// NewSweeper creates a Sweeper over db with the given dialect and purge
// callback.
func NewSweeper(db *sqlx.DB, d dialect.Dialect, purge PurgeFunc, opts ...SweeperOption) (*Sweeper, error) {
	if db == nil || d == nil || purge == nil {
		return nil, fmt.Errorf("tagstore: sweeper requires db, dialect, and purge callback")
	}
	w := &Sweeper{
		db:        db,
		d:         d,
		purge:     purge,
		logger:    slog.Default(),
		batchSize: DefaultSweepBatchSize,
		sem:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Sweep purges expired items in each of the given mailboxes. Per-mailbox
// failures are logged and skipped; only context cancellation stops the sweep
// early.
func (w *Sweeper) Sweep(ctx context.Context, mailboxIDs []int64) (*SweepResult, error) {
	result := &SweepResult{}
	var purged atomic.Int64
	var swept atomic.Int64
	var wg sync.WaitGroup

	for _, id := range mailboxIDs {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			result.Interrupted = true
			break
		}
		wg.Add(1)
		go func(mailboxID int64) {
			defer wg.Done()
			defer w.sem.Release(1)
			n, err := w.sweepMailbox(ctx, mailboxID)
			if err != nil {
				w.logger.Warn("mailbox sweep failed", "error", err, "mailbox_id", mailboxID)
				return
			}
			purged.Add(n)
			swept.Add(1)
		}(id)
	}
	wg.Wait()

	result.Purged = purged.Load()
	result.Mailboxes = int(swept.Load())
	if ctx.Err() != nil {
		result.Interrupted = true
		return result, ctx.Err()
	}
	return result, nil
}

// sweepMailbox purges one mailbox inside its own transaction and returns the
// number of items purged. On error the transaction rolls back and the count
// is discarded by the caller.
func (w *Sweeper) sweepMailbox(ctx context.Context, mailboxID int64) (int64, error) {
	st, err := New(w.d, mailboxID, w.storeOpts...)
	if err != nil {
		return 0, err
	}

	tx, err := BeginTx(ctx, w.db, w.d, w.retryCfg)
	if err != nil {
		return 0, fmt.Errorf("begin sweep: %w", err)
	}
	defer tx.Rollback()

	txn := Txn{Conn: tx}
	tags, err := st.GetAllTags(ctx, txn)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var purged int64
	for _, tag := range tags {
		if tag.Policy == nil || tag.Policy.Lifetime <= 0 {
			continue
		}
		cutoff := now.Add(-tag.Policy.Lifetime)

		for {
			if ctx.Err() != nil {
				return purged, ctx.Err()
			}
			items, err := st.GetLeafNodesForPurge(ctx, txn, tag, cutoff, w.batchSize)
			if err != nil {
				return purged, err
			}
			if len(items) == 0 {
				break
			}
			if err := w.purge(ctx, txn, mailboxID, items); err != nil {
				return purged, fmt.Errorf("purge batch for tag %d: %w", tag.ID, err)
			}
			purged += int64(len(items))
			w.logger.Debug("purged expired items",
				"mailbox_id", mailboxID, "tag_id", tag.ID, "count", len(items))
			if len(items) < w.batchSize {
				break
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return purged, fmt.Errorf("commit sweep: %w", err)
	}
	return purged, nil
}
