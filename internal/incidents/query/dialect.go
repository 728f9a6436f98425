// Package query builds the parameterized SQL used to filter, sort and paginate incidents.
//
// Caller-supplied values only ever travel as bound arguments. The only identifiers that
// reach statement text are column names taken from fixed allow-lists in this package.
package query

import "strconv"

// Dialect describes the SQL differences between the supported storage engines.
type Dialect int

// Supported dialects.
const (
	Postgres Dialect = iota
	SQLite
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	}
	return "unknown"
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// contains returns the case-insensitive pattern match operator.
// SQLite LIKE is already case-insensitive for ASCII.
func (d Dialect) contains() string {
	if d == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// greatest returns the scalar function picking the larger of two values.
func (d Dialect) greatest() string {
	if d == Postgres {
		return "GREATEST"
	}
	return "MAX"
}
