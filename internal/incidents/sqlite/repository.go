// Package sqlite provides SQLite implementation of incidents repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents"
	"github.com/bissquit/incident-tracker/internal/incidents/query"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout stores UTC timestamps as fixed-width text so they sort and compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// querier is an interface for database operations that both *sql.DB and *sql.Tx implement.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// row is satisfied by *sql.Row and *sql.Rows.
type row interface {
	Scan(dest ...any) error
}

// Repository implements incidents.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateIncident inserts a new incident.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, title, service, severity, status, owner, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		incident.ID,
		incident.Title,
		incident.Service,
		string(incident.Severity),
		string(incident.Status),
		incident.Owner,
		incident.Summary,
		formatTime(incident.CreatedAt),
		formatTime(incident.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", mapError(err))
	}
	return nil
}

// GetIncident retrieves an incident by ID.
func (r *Repository) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidents.Columns + ` FROM incidents WHERE id = ?`

	incident, err := scanIncident(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// ListIncidents returns one filtered, sorted page and its metadata.
func (r *Repository) ListIncidents(ctx context.Context, req query.Request) ([]domain.Incident, query.PageInfo, error) {
	plan := req.Plan(query.SQLite, incidents.Table, incidents.Columns)

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("begin list: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	items, info, err := query.Paginate[domain.Incident](ctx, pager{q: tx}, plan)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("list incidents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("commit list: %w", err)
	}
	return items, info, nil
}

// UpdateIncident applies a patch and returns the stored result.
func (r *Repository) UpdateIncident(ctx context.Context, id string, patch incidents.Patch, updatedAt time.Time) (*domain.Incident, error) {
	a := query.NewAssignments(query.SQLite)
	patch.Assign(a, formatTime(updatedAt))
	stmt := a.Update(incidents.Table, "id", id, incidents.Columns)

	incident, err := scanIncident(r.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("update incident: %w", mapError(err))
	}
	return incident, nil
}

// DeleteIncident removes an incident by ID.
func (r *Repository) DeleteIncident(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if n == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

// ListServices returns distinct services in alphabetical order.
func (r *Repository) ListServices(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, `SELECT DISTINCT service FROM incidents ORDER BY service`)
}

// ListOwners returns distinct non-empty owners in alphabetical order.
func (r *Repository) ListOwners(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, `
		SELECT DISTINCT owner FROM incidents
		WHERE owner IS NOT NULL AND owner <> ''
		ORDER BY owner
	`)
}

// DeleteAllIncidents removes every incident.
func (r *Repository) DeleteAllIncidents(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incidents`)
	if err != nil {
		return 0, fmt.Errorf("delete incidents: %w", err)
	}
	return res.RowsAffected()
}

func (r *Repository) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// pager runs list statements inside a transaction.
type pager struct {
	q querier
}

func (p pager) Count(ctx context.Context, stmt query.Statement) (int64, error) {
	var total int64
	if err := p.q.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (p pager) Fetch(ctx context.Context, stmt query.Statement) ([]domain.Incident, error) {
	rows, err := p.q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *incident)
	}
	return items, rows.Err()
}

func scanIncident(r row) (*domain.Incident, error) {
	var (
		inc                  domain.Incident
		severity, status     string
		createdAt, updatedAt string
	)
	err := r.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Service,
		&severity,
		&status,
		&inc.Owner,
		&inc.Summary,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inc.Severity = domain.Severity(severity)
	inc.Status = domain.IncidentStatus(status)
	if inc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if inc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &inc, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func mapError(err error) error {
	var sqlErr *sqlitedrv.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %s", incidents.ErrConstraintViolation, sqlErr.Error())
		}
	}
	return err
}
