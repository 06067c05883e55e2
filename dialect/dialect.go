// Package dialect isolates engine-specific SQL behavior behind a single
// strategy interface so the tag store can be written once against semantic
// operations instead of raw dialect quirks.
//
// A Dialect is an explicitly constructed dependency, injected into the store
// at build time. Implementations live in the mariadb, sqlite, and postgres
// subpackages, each classifying its driver's native error codes into the
// portable Kind taxonomy.
package dialect

import "strings"

// Capability identifies an optional engine feature.
type Capability int

const (
	// MultiTableUpdate indicates support for UPDATE statements joining a
	// second table (UPDATE t1, t2 SET ... WHERE ...).
	MultiTableUpdate Capability = iota

	// NativeBoolean indicates a real BOOLEAN column type rather than a
	// small-integer stand-in.
	NativeBoolean

	// ReplaceInto indicates REPLACE INTO (or equivalent upsert) semantics.
	ReplaceInto

	// RowLocking indicates row-level locks; engines without it lock at
	// database granularity and surface busy/locked errors instead.
	RowLocking

	// ForceIndexHints indicates support for FORCE INDEX style hints.
	ForceIndexHints

	// NulSafeText indicates the engine's string functions (LIKE, REPLACE)
	// handle NUL bytes embedded in TEXT values. Engines without it cannot
	// match or rewrite NUL-delimited tokens server-side, and callers must
	// compute such rewrites client-side.
	NulSafeText
)

// Kind is a portable classification of driver errors.
type Kind int

const (
	// Duplicate is a unique or primary key violation.
	Duplicate Kind = iota

	// Deadlock is a deadlock detected by the engine.
	Deadlock

	// Busy means the database could not be acquired for the operation.
	Busy

	// Locked means a lock wait timed out or a required lock is held.
	Locked

	// NoSuchTable means a referenced table does not exist.
	NoSuchTable

	// ForeignKeyViolation is a referential integrity failure.
	ForeignKeyViolation

	// TableFull means the table or database hit a size limit.
	TableFull
)

// Dialect exposes engine-specific SQL fragments and error classification.
// Implementations must be safe for concurrent use; all methods are pure.
type Dialect interface {
	// Name returns the dialect name, matching the database/sql driver name.
	Name() string

	// BindType returns the sqlx bindvar style (sqlx.QUESTION, sqlx.DOLLAR).
	// Queries are written with ? placeholders and rebound before execution.
	BindType() int

	// Supports reports whether the engine has the given capability.
	Supports(c Capability) bool

	// IsError reports whether err (or anything it wraps) matches kind,
	// using the driver's native error codes.
	IsError(err error, kind Kind) bool

	// BitAnd returns an expression computing expr & mask.
	BitAnd(expr, mask string) string

	// BitAndNot returns an expression computing expr &~ mask.
	BitAndNot(expr, mask string) string

	// Concat returns an expression concatenating the given string exprs.
	Concat(exprs ...string) string

	// EqualsIgnoreCase returns a case-insensitive equality predicate.
	EqualsIgnoreCase(lhs, rhs string) string

	// Limit returns the LIMIT clause, with an OFFSET placeholder when
	// offset is true. Both placeholders are ? bindvars.
	Limit(offset bool) string

	// MaxInValues returns the largest number of values safe to place in a
	// single IN (...) predicate before exceeding parameter limits.
	MaxInValues() int

	// ForceIndex returns an index hint fragment, or "" when unsupported.
	ForceIndex(index string) string

	// LikeEscape returns the clause appended after a LIKE pattern to
	// declare the escape character, or "" when the engine defaults to
	// backslash escaping.
	LikeEscape() string

	// LikeEscapeChar returns the escape character used in LIKE patterns.
	LikeEscapeChar() string

	// InsertIgnore returns an INSERT statement for table that silently
	// skips duplicate rows. values is the complete VALUES body, e.g.
	// "(?, ?), (?, ?)".
	InsertIgnore(table, columns, values string) string

	// Boolean returns the literal for a boolean value.
	Boolean(b bool) string
}

// EscapeLike escapes LIKE wildcards and the escape character itself in s so
// the result matches s literally inside a LIKE pattern.
func EscapeLike(s string, escape string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '%', '_':
			b.WriteString(escape)
		default:
			if strings.ContainsRune(escape, r) {
				b.WriteString(escape)
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Transient reports whether err is a recoverable busy, locked, or deadlock
// condition for the given dialect.
func Transient(d Dialect, err error) bool {
	if err == nil {
		return false
	}
	return d.IsError(err, Busy) || d.IsError(err, Locked) || d.IsError(err, Deadlock)
}
