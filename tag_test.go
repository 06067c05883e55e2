package tagstore

import (
	"testing"
	"time"
)

func TestRetentionPolicyMarshal(t *testing.T) {
	policy := NewRetentionPolicy(72 * time.Hour)
	if policy.ID == "" {
		t.Fatal("expected generated policy id")
	}

	encoded, err := marshalPolicy(policy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := unmarshalPolicy(encoded)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != policy.ID || decoded.Lifetime != policy.Lifetime {
		t.Errorf("roundtrip mismatch: %+v", decoded)
	}
}

func TestRetentionPolicyNil(t *testing.T) {
	encoded, err := marshalPolicy(nil)
	if err != nil {
		t.Fatalf("marshal nil: %v", err)
	}
	if encoded != "" {
		t.Errorf("expected empty encoding for nil policy, got %q", encoded)
	}

	decoded, err := unmarshalPolicy("")
	if err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if decoded != nil {
		t.Errorf("expected nil policy, got %+v", decoded)
	}
}

func TestItemTypeClassification(t *testing.T) {
	for _, typ := range []ItemType{TypeMessage, TypeContact, TypeDocument, TypeAppointment} {
		if !typ.Leaf() || typ.Cached() {
			t.Errorf("%s: expected leaf, not cached", typ)
		}
	}
	for _, typ := range []ItemType{TypeFolder, TypeTag} {
		if typ.Leaf() || !typ.Cached() {
			t.Errorf("%s: expected cached, not leaf", typ)
		}
	}
	if TypeUnknown.Leaf() || TypeUnknown.Cached() {
		t.Error("unknown type is neither leaf nor cached")
	}
}

func TestExcludedFolders(t *testing.T) {
	if !inExcludedFolder(FolderIDTrash) || !inExcludedFolder(FolderIDSpam) {
		t.Error("trash and spam are excluded from counts")
	}
	if inExcludedFolder(1) {
		t.Error("regular folders are not excluded")
	}
}
