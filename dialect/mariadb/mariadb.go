// Package mariadb implements dialect.Dialect for MariaDB and MySQL.
package mariadb

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/tagstore/dialect"
)

// MySQL/MariaDB server error numbers.
const (
	erDupEntry        = 1062
	erLockDeadlock    = 1213
	erLockWaitTimeout = 1205
	erNoSuchTable     = 1146
	erRowIsReferenced = 1451
	erNoReferencedRow = 1452
	erRecordFileFull  = 1114
)

// Compile-time check
var _ dialect.Dialect = Dialect{}

// Dialect is the MariaDB dialect.
type Dialect struct{}

// New returns the MariaDB dialect.
func New() Dialect { return Dialect{} }

func (Dialect) Name() string { return "mysql" }

func (Dialect) BindType() int { return sqlx.QUESTION }

func (Dialect) Supports(c dialect.Capability) bool {
	switch c {
	case dialect.MultiTableUpdate, dialect.ReplaceInto, dialect.RowLocking, dialect.ForceIndexHints:
		return true
	case dialect.NulSafeText:
		// Strings are byte sequences; LIKE and REPLACE handle embedded
		// NUL bytes.
		return true
	case dialect.NativeBoolean:
		// BOOLEAN is an alias for TINYINT(1).
		return false
	default:
		return false
	}
}

func (Dialect) IsError(err error, kind dialect.Kind) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	switch kind {
	case dialect.Duplicate:
		return me.Number == erDupEntry
	case dialect.Deadlock:
		return me.Number == erLockDeadlock
	case dialect.Busy, dialect.Locked:
		return me.Number == erLockWaitTimeout
	case dialect.NoSuchTable:
		return me.Number == erNoSuchTable
	case dialect.ForeignKeyViolation:
		return me.Number == erRowIsReferenced || me.Number == erNoReferencedRow
	case dialect.TableFull:
		return me.Number == erRecordFileFull
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
	return "CONCAT(" + strings.Join(exprs, ", ") + ")"
}

func (Dialect) EqualsIgnoreCase(lhs, rhs string) string {
	return "UPPER(" + lhs + ") = UPPER(" + rhs + ")"
}

func (Dialect) Limit(offset bool) string {
	if offset {
		return " LIMIT ? OFFSET ?"
	}
	return " LIMIT ?"
}

func (Dialect) MaxInValues() int { return 1000 }

func (Dialect) ForceIndex(index string) string {
	return " FORCE INDEX (" + index + ")"
}

// LikeEscape returns "" because MySQL defaults to backslash escaping.
func (Dialect) LikeEscape() string { return "" }

func (Dialect) LikeEscapeChar() string { return `\` }

func (Dialect) InsertIgnore(table, columns, values string) string {
	return "INSERT IGNORE INTO " + table + " (" + columns + ") VALUES " + values
}

func (Dialect) Boolean(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
