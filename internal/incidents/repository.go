package incidents

import (
	"context"
	"time"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents/query"
)

// Table and column names shared by the storage implementations.
const (
	Table   = "incidents"
	Columns = "id, title, service, severity, status, owner, summary, created_at, updated_at"
)

// Repository defines the interface for incident storage.
type Repository interface {
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	ListIncidents(ctx context.Context, req query.Request) ([]domain.Incident, query.PageInfo, error)
	UpdateIncident(ctx context.Context, id string, patch Patch, updatedAt time.Time) (*domain.Incident, error)
	DeleteIncident(ctx context.Context, id string) error

	ListServices(ctx context.Context) ([]string, error)
	ListOwners(ctx context.Context) ([]string, error)

	// DeleteAllIncidents empties the table and returns the number of removed rows.
	DeleteAllIncidents(ctx context.Context) (int64, error)
}

// Nullable is a patch value that may be explicitly set to null.
type Nullable struct {
	Set   bool
	Value *string
}

// Patch is a partial update. Nil fields and unset Nullables are left unchanged.
type Patch struct {
	Title    *string
	Service  *string
	Severity *domain.Severity
	Status   *domain.IncidentStatus
	Owner    Nullable
	Summary  Nullable
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Service == nil && p.Severity == nil && p.Status == nil &&
		!p.Owner.Set && !p.Summary.Set
}

// Assign adds the patched columns to a and stamps updated_at with touch,
// never moving it backwards.
func (p Patch) Assign(a *query.Assignments, touch any) {
	if p.Title != nil {
		a.Set("title", *p.Title)
	}
	if p.Service != nil {
		a.Set("service", *p.Service)
	}
	if p.Severity != nil {
		a.Set("severity", string(*p.Severity))
	}
	if p.Status != nil {
		a.Set("status", string(*p.Status))
	}
	if p.Owner.Set {
		a.Set("owner", p.Owner.Value)
	}
	if p.Summary.Set {
		a.Set("summary", p.Summary.Value)
	}
	a.Touch("updated_at", touch)
}

// ApplyTo applies the patch to an in-memory incident.
func (p Patch) ApplyTo(inc *domain.Incident, updatedAt time.Time) {
	if p.Title != nil {
		inc.Title = *p.Title
	}
	if p.Service != nil {
		inc.Service = *p.Service
	}
	if p.Severity != nil {
		inc.Severity = *p.Severity
	}
	if p.Status != nil {
		inc.Status = *p.Status
	}
	if p.Owner.Set {
		inc.Owner = p.Owner.Value
	}
	if p.Summary.Set {
		inc.Summary = p.Summary.Value
	}
	if updatedAt.After(inc.UpdatedAt) {
		inc.UpdatedAt = updatedAt
	}
}
