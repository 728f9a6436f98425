package query

import (
	"fmt"
	"strings"
)

// Assignments builds the SET list of an UPDATE statement.
// Column names must be identifiers owned by the caller, never request text.
type Assignments struct {
	dialect Dialect
	sets    []string
	args    []any
}

// NewAssignments creates an empty SET list for the dialect.
func NewAssignments(d Dialect) *Assignments {
	return &Assignments{dialect: d}
}

// Set assigns value to column.
func (a *Assignments) Set(column string, value any) {
	a.args = append(a.args, value)
	a.sets = append(a.sets, column+" = "+a.dialect.Placeholder(len(a.args)))
}

// Touch assigns the larger of the stored value and now to column, so the
// column never moves backwards.
func (a *Assignments) Touch(column string, now any) {
	a.args = append(a.args, now)
	a.sets = append(a.sets, fmt.Sprintf("%s = %s(%s, %s)",
		column, a.dialect.greatest(), column, a.dialect.Placeholder(len(a.args))))
}

// Len returns the number of assignments.
func (a *Assignments) Len() int {
	return len(a.sets)
}

// Update returns an UPDATE of table for the row whose keyColumn equals key,
// returning the listed columns.
func (a *Assignments) Update(table, keyColumn string, key any, returning string) Statement {
	args := make([]any, 0, len(a.args)+1)
	args = append(args, a.args...)
	args = append(args, key)

	return Statement{
		SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
			table, strings.Join(a.sets, ", "), keyColumn, a.dialect.Placeholder(len(args)), returning),
		Args: args,
	}
}
