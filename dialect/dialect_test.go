package dialect

import (
	"errors"
	"testing"
)

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{"%_", `\%\_`},
		{"", ""},
	}
	for _, c := range cases {
		if got := EscapeLike(c.in, `\`); got != c.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// kindDialect classifies errors by a fixed kind set, for testing the
// Transient helper without a real driver.
type kindDialect struct {
	Dialect
	kinds map[Kind]bool
}

func (d kindDialect) IsError(err error, kind Kind) bool {
	return err != nil && d.kinds[kind]
}

func TestTransient(t *testing.T) {
	err := errors.New("boom")

	for _, kind := range []Kind{Busy, Locked, Deadlock} {
		d := kindDialect{kinds: map[Kind]bool{kind: true}}
		if !Transient(d, err) {
			t.Errorf("kind %d should be transient", kind)
		}
	}

	d := kindDialect{kinds: map[Kind]bool{Duplicate: true}}
	if Transient(d, err) {
		t.Error("duplicate is not transient")
	}
	if Transient(d, nil) {
		t.Error("nil is not transient")
	}
}
