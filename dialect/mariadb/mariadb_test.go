package mariadb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/tagstore/dialect"
)

func TestDialectBasics(t *testing.T) {
	d := New()

	if d.Name() != "mysql" {
		t.Errorf("unexpected name %q", d.Name())
	}
	if d.BindType() != sqlx.QUESTION {
		t.Errorf("unexpected bind type %d", d.BindType())
	}
	if !d.Supports(dialect.MultiTableUpdate) {
		t.Error("mariadb supports multi-table UPDATE")
	}
	if !d.Supports(dialect.RowLocking) {
		t.Error("mariadb supports row locking")
	}
	if d.Supports(dialect.NativeBoolean) {
		t.Error("mariadb BOOLEAN is a TINYINT alias")
	}
	if !d.Supports(dialect.NulSafeText) {
		t.Error("mariadb strings carry embedded NUL bytes")
	}
}

func TestSQLFragments(t *testing.T) {
	d := New()

	if got := d.Concat("a", "b"); got != "CONCAT(a, b)" {
		t.Errorf("Concat = %q", got)
	}
	if got := d.ForceIndex("idx_date"); got != " FORCE INDEX (idx_date)" {
		t.Errorf("ForceIndex = %q", got)
	}
	if got := d.InsertIgnore("t", "a, b", "(?, ?), (?, ?)"); got != "INSERT IGNORE INTO t (a, b) VALUES (?, ?), (?, ?)" {
		t.Errorf("InsertIgnore = %q", got)
	}
	if got := d.LikeEscape(); got != "" {
		t.Errorf("LikeEscape = %q", got)
	}
}

func TestIsError(t *testing.T) {
	d := New()

	cases := []struct {
		number uint16
		kind   dialect.Kind
	}{
		{1062, dialect.Duplicate},
		{1213, dialect.Deadlock},
		{1205, dialect.Busy},
		{1205, dialect.Locked},
		{1146, dialect.NoSuchTable},
		{1451, dialect.ForeignKeyViolation},
		{1452, dialect.ForeignKeyViolation},
		{1114, dialect.TableFull},
	}
	for _, c := range cases {
		err := &mysql.MySQLError{Number: c.number, Message: "test"}
		if !d.IsError(err, c.kind) {
			t.Errorf("error %d should classify as kind %d", c.number, c.kind)
		}
	}

	dup := &mysql.MySQLError{Number: 1062, Message: "duplicate"}
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
