package query

import "strings"

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// DefaultSortBy is used when the requested sort key is missing or not allowed.
const DefaultSortBy = "createdAt"

// sortColumns maps API sort keys to column identifiers. Keys are case-sensitive.
var sortColumns = map[string]string{
	"title":     "title",
	"service":   "service",
	"severity":  "severity",
	"status":    "status",
	"owner":     "owner",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// Ordering is a resolved ORDER BY. Key is always one of the allow-listed sort keys.
type Ordering struct {
	Key       string
	Direction Direction
}

// ResolveSort resolves the requested sort key and order, falling back to
// createdAt and descending order for anything not recognized.
func ResolveSort(sortBy, sortOrder string) Ordering {
	key := sortBy
	if _, ok := sortColumns[key]; !ok {
		key = DefaultSortBy
	}

	dir := Desc
	if strings.EqualFold(sortOrder, "asc") {
		dir = Asc
	}

	return Ordering{Key: key, Direction: dir}
}

// Column returns the column identifier for the sort key.
func (o Ordering) Column() string {
	if column, ok := sortColumns[o.Key]; ok {
		return column
	}
	return sortColumns[DefaultSortBy]
}

// Clause returns the ORDER BY clause with the id tie-break in the same direction.
func (o Ordering) Clause() string {
	column := o.Column()
	dir := o.Direction
	if dir != Asc {
		dir = Desc
	}
	return "ORDER BY " + column + " " + string(dir) + ", id " + string(dir)
}
