// Package sqlite implements dialect.Dialect for SQLite via modernc.org/sqlite.
package sqlite

import (
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	sqlite "modernc.org/sqlite"

	"github.com/rbaliyan/tagstore/dialect"
)

// SQLite result codes, including the extended constraint codes the modernc
// driver reports.
const (
	codeBusy                 = 5
	codeLocked               = 6
	codeFull                 = 13
	codeError                = 1
	codeConstraint           = 19
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
	codeConstraintForeignKey = 787
)

// Compile-time check
var _ dialect.Dialect = Dialect{}

// Dialect is the SQLite dialect.
type Dialect struct{}

// New returns the SQLite dialect.
func New() Dialect { return Dialect{} }

func (Dialect) Name() string { return "sqlite" }

func (Dialect) BindType() int { return sqlx.QUESTION }

func (Dialect) Supports(c dialect.Capability) bool {
	switch c {
	case dialect.ReplaceInto:
		return true
	case dialect.MultiTableUpdate, dialect.NativeBoolean, dialect.RowLocking, dialect.ForceIndexHints:
		// Locks are database-wide; writers surface SQLITE_BUSY instead.
		return false
	case dialect.NulSafeText:
		// LIKE and replace() treat values as C strings and stop at the
		// first NUL byte.
		return false
	default:
		return false
	}
}

func (Dialect) IsError(err error, kind dialect.Kind) bool {
	if err == nil {
		return false
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		switch kind {
		case dialect.Duplicate:
			return code == codeConstraintPrimaryKey || code == codeConstraintUnique
		case dialect.Busy:
			return code == codeBusy
		case dialect.Locked, dialect.Deadlock:
			return code == codeLocked
		case dialect.ForeignKeyViolation:
			return code == codeConstraintForeignKey
		case dialect.TableFull:
			return code == codeFull
		case dialect.NoSuchTable:
			// Reported under the generic error code; fall through to the
			// message check below.
			if code != codeError {
				return false
			}
		default:
			return false
		}
	}

	// The driver occasionally wraps codes into plain errors; match on the
	// canonical message text as a fallback.
	msg := err.Error()
	switch kind {
	case dialect.Duplicate:
		return strings.Contains(msg, "UNIQUE constraint failed")
	case dialect.Busy:
		return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
	case dialect.Locked, dialect.Deadlock:
		return strings.Contains(msg, "database table is locked") || strings.Contains(msg, "SQLITE_LOCKED")
	case dialect.NoSuchTable:
		return strings.Contains(msg, "no such table")
	case dialect.ForeignKeyViolation:
		return strings.Contains(msg, "FOREIGN KEY constraint failed")
	case dialect.TableFull:
		return strings.Contains(msg, "database or disk is full")
	default:
		return false
	}
}

func (Dialect) BitAnd(expr, mask string) string {
	return "(" + expr + " & " + mask + ")"
}

func (Dialect) BitAndNot(expr, mask string) string {
	return "(" + expr + " & ~" + mask + ")"
}

func (Dialect) Concat(exprs ...string) string {
	return "(" + strings.Join(exprs, " || ") + ")"
}

func (Dialect) EqualsIgnoreCase(lhs, rhs string) string {
	return lhs + " = " + rhs + " COLLATE NOCASE"
}

func (Dialect) Limit(offset bool) string {
	if offset {
		return " LIMIT ? OFFSET ?"
	}
	return " LIMIT ?"
}

// MaxInValues stays under the 999 default host-parameter ceiling, leaving
// headroom for the fixed predicates around the IN clause.
func (Dialect) MaxInValues() int { return 500 }

func (Dialect) ForceIndex(string) string { return "" }

// LikeEscape declares the escape character; SQLite LIKE has none by default.
func (Dialect) LikeEscape() string { return ` ESCAPE '\'` }

func (Dialect) LikeEscapeChar() string { return `\` }

func (Dialect) InsertIgnore(table, columns, values string) string {
	return "INSERT OR IGNORE INTO " + table + " (" + columns + ") VALUES " + values
}

func (Dialect) Boolean(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
