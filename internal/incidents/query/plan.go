package query

import (
	"context"
	"fmt"
)

// Statement is SQL text with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Request is a fully resolved list request.
type Request struct {
	Filter Filter
	Order  Ordering
	Page   Page
}

// Plan is the pair of statements answering a list request.
type Plan struct {
	Count  Statement
	Select Statement
	Page   Page
}

// Plan builds the count and page statements for table, selecting columns.
// Both statements share the same predicate and argument order; the page
// statement appends limit and offset as the last two arguments.
func (r Request) Plan(d Dialect, table, columns string) Plan {
	pred := BuildPredicate(d, r.Filter)
	where := pred.Where()

	count := Statement{
		SQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s %s", table, where),
		Args: pred.Args(),
	}

	args := pred.Args()
	n := pred.Len()
	sel := Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s %s %s LIMIT %s OFFSET %s",
			columns, table, where, r.Order.Clause(),
			d.Placeholder(n+1), d.Placeholder(n+2)),
		Args: append(args, r.Page.Limit, r.Page.Offset()),
	}

	return Plan{Count: count, Select: sel, Page: r.Page}
}

// Pager runs the statements of a plan against a store.
type Pager[T any] interface {
	Count(ctx context.Context, stmt Statement) (int64, error)
	Fetch(ctx context.Context, stmt Statement) ([]T, error)
}

// Paginate counts the matching rows, then fetches the requested page.
// A page past the end yields an empty, non-nil slice.
func Paginate[T any](ctx context.Context, p Pager[T], plan Plan) ([]T, PageInfo, error) {
	total, err := p.Count(ctx, plan.Count)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("count: %w", err)
	}

	info := NewPageInfo(plan.Page, total)
	if plan.Page.Offset() >= total {
		return []T{}, info, nil
	}

	items, err := p.Fetch(ctx, plan.Select)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("fetch page: %w", err)
	}
	if items == nil {
		items = []T{}
	}

	return items, info, nil
}
