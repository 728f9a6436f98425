// Package postgres provides PostgreSQL implementation of incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents"
	"github.com/bissquit/incident-tracker/internal/incidents/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is an interface for database operations that both *pgxpool.Pool and pgx.Tx implement.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgreSQL error codes mapped to incidents.ErrConstraintViolation.
var constraintCodes = map[string]bool{
	"23502": true, // not_null_violation
	"23514": true, // check_violation
	"22001": true, // string_data_right_truncation
}

// listTxOptions gives count and page the same snapshot.
var listTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateIncident inserts a new incident.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, title, service, severity, status, owner, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		incident.ID,
		incident.Title,
		incident.Service,
		string(incident.Severity),
		string(incident.Status),
		incident.Owner,
		incident.Summary,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", mapError(err))
	}
	return nil
}

// GetIncident retrieves an incident by ID.
func (r *Repository) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidents.Columns + ` FROM incidents WHERE id = $1`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// ListIncidents returns one filtered, sorted page and its metadata.
func (r *Repository) ListIncidents(ctx context.Context, req query.Request) ([]domain.Incident, query.PageInfo, error) {
	plan := req.Plan(query.Postgres, incidents.Table, incidents.Columns)

	var (
		items []domain.Incident
		info  query.PageInfo
	)
	err := pgx.BeginTxFunc(ctx, r.db, listTxOptions, func(tx pgx.Tx) error {
		var err error
		items, info, err = query.Paginate[domain.Incident](ctx, pager{q: tx}, plan)
		return err
	})
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("list incidents: %w", err)
	}
	return items, info, nil
}

// UpdateIncident applies a patch and returns the stored result.
func (r *Repository) UpdateIncident(ctx context.Context, id string, patch incidents.Patch, updatedAt time.Time) (*domain.Incident, error) {
	a := query.NewAssignments(query.Postgres)
	patch.Assign(a, updatedAt)
	stmt := a.Update(incidents.Table, "id", id, incidents.Columns)

	incident, err := scanIncident(r.db.QueryRow(ctx, stmt.SQL, stmt.Args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("update incident: %w", mapError(err))
	}
	return incident, nil
}

// DeleteIncident removes an incident by ID.
func (r *Repository) DeleteIncident(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
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
	tag, err := r.db.Exec(ctx, `DELETE FROM incidents`)
	if err != nil {
		return 0, fmt.Errorf("delete incidents: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) listStrings(ctx context.Context, sql string) ([]string, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return values, nil
}

// pager runs list statements inside a transaction.
type pager struct {
	q querier
}

func (p pager) Count(ctx context.Context, stmt query.Statement) (int64, error) {
	var total int64
	if err := p.q.QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (p pager) Fetch(ctx context.Context, stmt query.Statement) ([]domain.Incident, error) {
	rows, err := p.q.Query(ctx, stmt.SQL, stmt.Args...)
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

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Service,
		&inc.Severity,
		&inc.Status,
		&inc.Owner,
		&inc.Summary,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inc.CreatedAt = inc.CreatedAt.UTC()
	inc.UpdatedAt = inc.UpdatedAt.UTC()
	return &inc, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && constraintCodes[pgErr.Code] {
		return fmt.Errorf("%w: %s", incidents.ErrConstraintViolation, pgErr.ConstraintName)
	}
	return err
}
