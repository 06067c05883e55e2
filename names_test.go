package tagstore

import (
	"reflect"
	"testing"
)

func TestEncodeNames(t *testing.T) {
	cases := []struct {
		names []string
		want  string
	}{
		{nil, ""},
		{[]string{}, ""},
		{[]string{"work"}, "\x00work\x00"},
		{[]string{"work", "urgent"}, "\x00work\x00urgent\x00"},
	}
	for _, c := range cases {
		if got := EncodeNames(c.names); got != c.want {
			t.Errorf("EncodeNames(%v) = %q, want %q", c.names, got, c.want)
		}
	}
}

func TestDecodeNames(t *testing.T) {
	cases := []struct {
		encoded string
		want    []string
	}{
		{"", nil},
		{"\x00work\x00", []string{"work"}},
		{"\x00work\x00urgent\x00", []string{"work", "urgent"}},
	}
	for _, c := range cases {
		if got := DecodeNames(c.encoded); !reflect.DeepEqual(got, c.want) {
			t.Errorf("DecodeNames(%q) = %v, want %v", c.encoded, got, c.want)
		}
	}
}

func TestApplyName(t *testing.T) {
	cases := []struct {
		encoded string
		name    string
		add     bool
		want    string
		changed bool
	}{
		{"", "work", true, "\x00work\x00", true},
		{"\x00other\x00", "work", true, "\x00other\x00work\x00", true},
		{"\x00work\x00", "work", true, "\x00work\x00", false},
		{"\x00work\x00", "work", false, "", true},
		{"\x00other\x00work\x00", "work", false, "\x00other\x00", true},
		{"\x00other\x00", "work", false, "\x00other\x00", false},
		// Exact token match only; a name containing another name is a
		// different tag.
		{"\x00alphabet\x00", "alpha", true, "\x00alphabet\x00alpha\x00", true},
		{"\x00alphabet\x00alpha\x00", "alpha", false, "\x00alphabet\x00", true},
	}
	for _, c := range cases {
		got, changed := applyName(c.encoded, c.name, c.add)
		if got != c.want || changed != c.changed {
			t.Errorf("applyName(%q, %q, %v) = %q, %v; want %q, %v",
				c.encoded, c.name, c.add, got, changed, c.want, c.changed)
		}
	}
}

func TestNamesRoundtrip(t *testing.T) {
	names := []string{"a", "b b", "c%_d"}
	if got := DecodeNames(EncodeNames(names)); !reflect.DeepEqual(got, names) {
		t.Errorf("roundtrip lost names: %v", got)
	}
}
