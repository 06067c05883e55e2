package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rbaliyan/tagstore/dialect"
)

func TestDialectBasics(t *testing.T) {
	d := New()

	if d.Name() != "postgres" {
		t.Errorf("unexpected name %q", d.Name())
	}
	if d.BindType() != sqlx.DOLLAR {
		t.Errorf("unexpected bind type %d", d.BindType())
	}
	if d.Supports(dialect.MultiTableUpdate) {
		t.Error("postgres uses UPDATE ... FROM, not the multi-table form")
	}
	if !d.Supports(dialect.NativeBoolean) {
		t.Error("postgres has a native BOOLEAN type")
	}
	if !d.Supports(dialect.RowLocking) {
		t.Error("postgres supports row locking")
	}
	if d.Supports(dialect.NulSafeText) {
		t.Error("postgres TEXT rejects embedded NUL bytes")
	}
}

func TestSQLFragments(t *testing.T) {
	d := New()

	if got := d.Concat("a", "b"); got != "(a || b)" {
		t.Errorf("Concat = %q", got)
	}
	if got := d.InsertIgnore("t", "a", "(?)"); got != "INSERT INTO t (a) VALUES (?) ON CONFLICT DO NOTHING" {
		t.Errorf("InsertIgnore = %q", got)
	}
	if d.Boolean(true) != "TRUE" || d.Boolean(false) != "FALSE" {
		t.Error("unexpected boolean literals")
	}
}

func TestIsError(t *testing.T) {
	d := New()

	cases := []struct {
		code string
		kind dialect.Kind
	}{
		{"23505", dialect.Duplicate},
		{"40P01", dialect.Deadlock},
		{"40001", dialect.Busy},
		{"55P03", dialect.Locked},
		{"42P01", dialect.NoSuchTable},
		{"23503", dialect.ForeignKeyViolation},
		{"53100", dialect.TableFull},
	}
	for _, c := range cases {
		err := &pq.Error{Code: pq.ErrorCode(c.code)}
		if !d.IsError(err, c.kind) {
			t.Errorf("SQLSTATE %s should classify as kind %d", c.code, c.kind)
		}
	}

	dup := &pq.Error{Code: "23505"}
	if d.IsError(dup, dialect.Deadlock) {
		t.Error("duplicate must not classify as deadlock")
	}
	if d.IsError(errors.New("plain"), dialect.Duplicate) {
		t.Error("non-driver errors are unclassified")
	}

	wrapped := fmt.Errorf("exec: %w", dup)
	if !d.IsError(wrapped, dialect.Duplicate) {
		t.Error("wrapped driver error not classified")
	}
}
