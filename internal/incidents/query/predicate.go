package query

import (
	"fmt"
	"strings"
)

// Filter holds the optional list filters. An empty field means no constraint.
type Filter struct {
	Search   string
	Service  string
	Severity string
	Status   string
	Owner    string
}

// searchColumns are matched by the free-text search, in parameter order.
var searchColumns = []string{"title", "summary", "service", "owner"}

// Predicate is a conjunction of conditions with its bound arguments.
type Predicate struct {
	conds []string
	args  []any
}

// BuildPredicate translates a filter into conditions for the given dialect.
// Arguments are appended in a fixed order: search, service, severity, status, owner.
func BuildPredicate(d Dialect, f Filter) Predicate {
	var p Predicate

	if f.Search != "" {
		pattern := containsPattern(f.Search)
		ors := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			ors = append(ors, p.bind(d, col+" "+d.contains()+" %s ESCAPE '\\'", pattern))
		}
		p.conds = append(p.conds, "("+strings.Join(ors, " OR ")+")")
	}

	if f.Service != "" {
		p.conds = append(p.conds, p.bind(d, "service = %s", f.Service))
	}

	if f.Severity != "" {
		p.conds = append(p.conds, p.bind(d, "severity = %s", f.Severity))
	}

	if f.Status != "" {
		p.conds = append(p.conds, p.bind(d, "status = %s", f.Status))
	}

	if f.Owner != "" {
		p.conds = append(p.conds, p.bind(d, "owner "+d.contains()+" %s ESCAPE '\\'", containsPattern(f.Owner)))
	}

	return p
}

// bind records the argument and returns the condition with its placeholder filled in.
func (p *Predicate) bind(d Dialect, format string, arg any) string {
	p.args = append(p.args, arg)
	return fmt.Sprintf(format, d.Placeholder(len(p.args)))
}

// Where returns the WHERE clause. With no conditions it matches every row.
func (p Predicate) Where() string {
	if len(p.conds) == 0 {
		return "WHERE 1=1"
	}
	return "WHERE " + strings.Join(p.conds, " AND ")
}

// Args returns a copy of the bound arguments in placeholder order.
func (p Predicate) Args() []any {
	out := make([]any, len(p.args))
	copy(out, p.args)
	return out
}

// Len returns the number of bound arguments.
func (p Predicate) Len() int {
	return len(p.args)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern wraps s in wildcards, escaping LIKE metacharacters so s matches literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
