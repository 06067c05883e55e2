package tagstore

import (
	"reflect"
	"testing"
)

func TestSystemTag(t *testing.T) {
	tag, err := SystemTag(FlagIDFlagged)
	if err != nil {
		t.Fatalf("system tag: %v", err)
	}
	if tag.Name != `\Flagged` || tag.Listed {
		t.Errorf("unexpected tag: %+v", tag)
	}

	if _, err := SystemTag(64); !IsInvalidRequest(err) {
		t.Errorf("expected ErrInvalidRequest for user id, got %v", err)
	}
}

func TestFlagBit(t *testing.T) {
	cases := []struct {
		id   int32
		want int32
	}{
		{FlagIDFlagged, FlagFlagged},
		{FlagIDDraft, FlagDraft},
		{FlagIDReplied, FlagReplied},
		{FlagIDForwarded, FlagForwarded},
		{FlagIDAttached, FlagAttached},
		{FlagIDUnread, 0},
	}
	for _, c := range cases {
		bit, err := flagBit(c.id)
		if err != nil {
			t.Errorf("flagBit(%d): %v", c.id, err)
			continue
		}
		if bit != c.want {
			t.Errorf("flagBit(%d) = %d, want %d", c.id, bit, c.want)
		}
	}

	if _, err := flagBit(-99); !IsInvalidRequest(err) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAffectsModSeq(t *testing.T) {
	if affectsModSeq(FlagIDUnread) {
		t.Error("unread must not bump the modification sequence")
	}
	if !affectsModSeq(FlagIDFlagged) || !affectsModSeq(64) {
		t.Error("flags and user tags must bump the modification sequence")
	}
}

func TestFlagIDsFromBitmask(t *testing.T) {
	got := flagIDsFromBitmask(FlagFlagged|FlagAttached, true)
	want := []int32{FlagIDFlagged, FlagIDAttached, FlagIDUnread}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := flagIDsFromBitmask(0, false); got != nil {
		t.Errorf("expected no ids, got %v", got)
	}
}
