// Package postgres implements dialect.Dialect for PostgreSQL via lib/pq.
package postgres

import (
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rbaliyan/tagstore/dialect"
)

// SQLSTATE codes.
const (
	codeUniqueViolation     = "23505"
	codeDeadlockDetected    = "40P01"
	codeSerializationFail   = "40001"
	codeLockNotAvailable    = "55P03"
	codeUndefinedTable      = "42P01"
	codeForeignKeyViolation = "23503"
	codeDiskFull            = "53100"
)

// Compile-time check
var _ dialect.Dialect = Dialect{}

// Dialect is the PostgreSQL dialect.
type Dialect struct{}

// New returns the PostgreSQL dialect.
func New() Dialect { return Dialect{} }

func (Dialect) Name() string { return "postgres" }

func (Dialect) BindType() int { return sqlx.DOLLAR }

func (Dialect) Supports(c dialect.Capability) bool {
	switch c {
	case dialect.NativeBoolean, dialect.RowLocking:
		return true
	case dialect.MultiTableUpdate, dialect.ReplaceInto, dialect.ForceIndexHints:
		// UPDATE ... FROM uses different join syntax than the multi-table
		// form the store generates, so the correlated-subquery path is used.
		return false
	case dialect.NulSafeText:
		// TEXT values reject embedded NUL bytes outright, so token
		// matching cannot rely on server-side string functions.
		return false
	default:
		return false
	}
}

func (Dialect) IsError(err error, kind dialect.Kind) bool {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return false
	}
	code := string(pe.Code)
	switch kind {
	case dialect.Duplicate:
		return code == codeUniqueViolation
	case dialect.Deadlock:
		return code == codeDeadlockDetected
	case dialect.Busy:
		return code == codeSerializationFail
	case dialect.Locked:
		return code == codeLockNotAvailable
	case dialect.NoSuchTable:
		return code == codeUndefinedTable
	case dialect.ForeignKeyViolation:
		return code == codeForeignKeyViolation
	case dialect.TableFull:
		return code == codeDiskFull
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
	return "LOWER(" + lhs + ") = LOWER(" + rhs + ")"
}

func (Dialect) Limit(offset bool) string {
	if offset {
		return " LIMIT ? OFFSET ?"
	}
	return " LIMIT ?"
}

func (Dialect) MaxInValues() int { return 1000 }

func (Dialect) ForceIndex(string) string { return "" }

// LikeEscape returns "" because PostgreSQL defaults to backslash escaping.
func (Dialect) LikeEscape() string { return "" }

func (Dialect) LikeEscapeChar() string { return `\` }

func (Dialect) InsertIgnore(table, columns, values string) string {
	return "INSERT INTO " + table + " (" + columns + ") VALUES " + values + " ON CONFLICT DO NOTHING"
}

func (Dialect) Boolean(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
