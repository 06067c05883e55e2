package tagstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tag is a named, colorable label scoped to one mailbox. Positive ids are
// user-created tags; negative ids are reserved for the built-in system flags
// (see flag.go), which are synthesized in memory and never inserted as rows.
type Tag struct {
	// ID is the mailbox-scoped tag id, unique within the mailbox.
	ID int32

	// Name is unique within the mailbox.
	Name string

	// Color is an optional RGB value; 0 means the default color.
	Color uint32

	// ItemCount caches the number of non-deleted, non-trashed items
	// carrying this tag. Maintained incrementally by callers and repaired
	// by RecalculateTagCounts.
	ItemCount int64

	// UnreadCount caches how many of those items are unread.
	UnreadCount int64

	// Listed marks the tag as user-visible rather than an internal
	// bookkeeping flag.
	Listed bool

	// Sequence is the modification sequence of the last change.
	Sequence int32

	// Policy is the optional retention policy; nil means keep forever.
	Policy *RetentionPolicy
}

// RetentionPolicy bounds how long items carrying a tag are kept before the
// retention sweep offers them for purge.
type RetentionPolicy struct {
	// ID identifies the policy instance across renames and edits.
	ID string `json:"id"`

	// Lifetime is how long a tagged item is retained after its date.
	Lifetime time.Duration `json:"lifetime"`
}

// NewRetentionPolicy returns a policy with a generated id.
func NewRetentionPolicy(lifetime time.Duration) *RetentionPolicy {
	return &RetentionPolicy{
		ID:       uuid.New().String(),
		Lifetime: lifetime,
	}
}

// marshalPolicy encodes p for the tag row's policy column; nil encodes to ""
// and is stored as NULL.
func marshalPolicy(p *RetentionPolicy) (string, error) {
	if p == nil {
		return "", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal retention policy: %w", err)
	}
	return string(raw), nil
}

// unmarshalPolicy decodes a policy column value; "" decodes to nil.
func unmarshalPolicy(raw string) (*RetentionPolicy, error) {
	if raw == "" {
		return nil, nil
	}
	var p RetentionPolicy
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal retention policy: %w", err)
	}
	return &p, nil
}
