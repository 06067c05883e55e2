package tagstore

import "time"

// ItemType identifies what kind of mail item a row represents.
type ItemType int8

const (
	TypeUnknown ItemType = iota
	TypeFolder
	TypeTag
	TypeMessage
	TypeContact
	TypeDocument
	TypeAppointment
)

// Leaf reports whether the type can carry tags and flags, as opposed to
// container types and the tag entities themselves.
func (t ItemType) Leaf() bool {
	switch t {
	case TypeMessage, TypeContact, TypeDocument, TypeAppointment:
		return true
	default:
		return false
	}
}

// Cached reports whether the type is served from the owning mailbox's
// in-memory cache rather than fetched per-row from the item table.
func (t ItemType) Cached() bool {
	return t == TypeFolder || t == TypeTag
}

func (t ItemType) String() string {
	switch t {
	case TypeFolder:
		return "folder"
	case TypeTag:
		return "tag"
	case TypeMessage:
		return "message"
	case TypeContact:
		return "contact"
	case TypeDocument:
		return "document"
	case TypeAppointment:
		return "appointment"
	default:
		return "unknown"
	}
}

// Well-known folder ids. Items in these folders are excluded from tag counts
// and unread scans.
const (
	FolderIDTrash int64 = 3
	FolderIDSpam  int64 = 4
)

// Item is the tag-relevant projection of a mail item row. It is a plain data
// record; callers adapt it to their own item model.
type Item struct {
	// ID is the mailbox-scoped item id.
	ID int64

	// Type is the item type.
	Type ItemType

	// FolderID is the containing folder.
	FolderID int64

	// Flags is the system-flag bitmask.
	Flags int32

	// Unread reports whether the item is unread. Tracked separately from
	// Flags so unread totals can be summed directly.
	Unread bool

	// TagNames is the decoded set of user tag names on the item.
	TagNames []string

	// Date is the item date used for retention cutoffs.
	Date time.Time

	// ModSequence is the modification sequence of the last change.
	ModSequence int32

	// ChangeDate is when the item last changed.
	ChangeDate time.Time
}

// excludedFolderIDs are the folders whose items never count toward tag
// totals or unread scans; the query predicates bind this list.
var excludedFolderIDs = []int64{FolderIDTrash, FolderIDSpam}

// inExcludedFolder reports whether the folder is excluded from tag counts
// and unread scans.
func inExcludedFolder(folderID int64) bool {
	for _, id := range excludedFolderIDs {
		if id == folderID {
			return true
		}
	}
	return false
}
