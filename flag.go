package tagstore

import "fmt"

// System flag bits in the mail_item flags column.
const (
	FlagFlagged int32 = 1 << iota
	FlagDraft
	FlagReplied
	FlagForwarded
	FlagAttached
)

// System flag ids. These are fixed negative tag ids; the corresponding tags
// are synthesized in memory and never stored as tag rows, but they do get
// tagged_item rows like user tags.
//
// Unread has no bit in the flags column — it lives in the separate unread
// column so unread totals can be summed — but it still maps to a pseudo-flag
// id in the association table.
const (
	FlagIDFlagged   int32 = -2
	FlagIDDraft     int32 = -3
	FlagIDReplied   int32 = -4
	FlagIDForwarded int32 = -5
	FlagIDAttached  int32 = -6
	FlagIDUnread    int32 = -10
)

// systemFlag describes one built-in flag.
type systemFlag struct {
	id   int32
	bit  int32 // 0 for the unread pseudo-flag
	name string
}

var systemFlags = []systemFlag{
	{FlagIDFlagged, FlagFlagged, `\Flagged`},
	{FlagIDDraft, FlagDraft, `\Draft`},
	{FlagIDReplied, FlagReplied, `\Answered`},
	{FlagIDForwarded, FlagForwarded, `\Forwarded`},
	{FlagIDAttached, FlagAttached, `\Attached`},
	{FlagIDUnread, 0, `\Unread`},
}

// SystemTag synthesizes the Tag record for a system flag id. System tags are
// unlisted and never persisted as tag rows.
func SystemTag(id int32) (*Tag, error) {
	for _, f := range systemFlags {
		if f.id == id {
			return &Tag{ID: f.id, Name: f.name, Listed: false}, nil
		}
	}
	return nil, fmt.Errorf("system flag %d: %w", id, ErrInvalidRequest)
}

// flagBit returns the flags-column bit for a system flag id, or 0 for the
// unread pseudo-flag.
func flagBit(id int32) (int32, error) {
	for _, f := range systemFlags {
		if f.id == id {
			return f.bit, nil
		}
	}
	return 0, fmt.Errorf("system flag %d: %w", id, ErrInvalidRequest)
}

// affectsModSeq reports whether altering the tag bumps the item's
// modification sequence. The unread pseudo-flag does not.
func affectsModSeq(tagID int32) bool {
	return tagID != FlagIDUnread
}

// flagIDsFromBitmask expands a flags bitmask (plus the separate unread
// state) into the system flag ids an item should be associated with.
func flagIDsFromBitmask(flags int32, unread bool) []int32 {
	var ids []int32
	for _, f := range systemFlags {
		if f.bit != 0 && flags&f.bit != 0 {
			ids = append(ids, f.id)
		}
	}
	if unread {
		ids = append(ids, FlagIDUnread)
	}
	return ids
}
