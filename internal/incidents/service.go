package incidents

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents/query"
	"github.com/google/uuid"
)

const maxTitleLength = 255

// Service implements incident business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// timestamp returns the current UTC time truncated to what both stores can hold.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CreateIncident stores a new incident with a fresh id and OPEN status unless given.
func (s *Service) CreateIncident(ctx context.Context, in CreateInput) (*domain.Incident, error) {
	if in.Status == "" {
		in.Status = domain.IncidentStatusOpen
	}
	if err := checkCreate(in); err != nil {
		recordMutation(opCreate, err)
		return nil, err
	}

	now := s.timestamp()
	incident := &domain.Incident{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Service:   in.Service,
		Severity:  in.Severity,
		Status:    in.Status,
		Owner:     in.Owner,
		Summary:   in.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		recordMutation(opCreate, err)
		return nil, fmt.Errorf("create incident: %w", err)
	}

	recordMutation(opCreate, nil)
	return incident, nil
}

// GetIncident returns an incident by id.
func (s *Service) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrIncidentNotFound
	}

	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// ListIncidents returns one page of incidents matching the request.
func (s *Service) ListIncidents(ctx context.Context, req query.Request) ([]domain.Incident, query.PageInfo, error) {
	items, info, err := s.repo.ListIncidents(ctx, req)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("list incidents: %w", err)
	}
	return items, info, nil
}

// UpdateIncident applies a partial update and re-stamps updatedAt.
func (s *Service) UpdateIncident(ctx context.Context, id string, patch Patch) (*domain.Incident, error) {
	if patch.IsEmpty() {
		recordMutation(opUpdate, ErrEmptyUpdate)
		return nil, ErrEmptyUpdate
	}
	if err := checkPatch(patch); err != nil {
		recordMutation(opUpdate, err)
		return nil, err
	}
	id, ok := canonicalID(id)
	if !ok {
		recordMutation(opUpdate, ErrIncidentNotFound)
		return nil, ErrIncidentNotFound
	}

	incident, err := s.repo.UpdateIncident(ctx, id, patch, s.timestamp())
	if err != nil {
		recordMutation(opUpdate, err)
		return nil, fmt.Errorf("update incident: %w", err)
	}

	recordMutation(opUpdate, nil)
	return incident, nil
}

// DeleteIncident permanently removes an incident.
func (s *Service) DeleteIncident(ctx context.Context, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		recordMutation(opDelete, ErrIncidentNotFound)
		return ErrIncidentNotFound
	}

	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		recordMutation(opDelete, err)
		return fmt.Errorf("delete incident: %w", err)
	}

	recordMutation(opDelete, nil)
	return nil
}

// ListServices returns the distinct service names in alphabetical order.
func (s *Service) ListServices(ctx context.Context) ([]string, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// ListOwners returns the distinct non-empty owners in alphabetical order.
func (s *Service) ListOwners(ctx context.Context) ([]string, error) {
	owners, err := s.repo.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

// canonicalID parses id as a UUID and returns its canonical lowercase form.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func checkCreate(in CreateInput) error {
	verr := &ValidationError{}
	checkTitle(in.Title, verr)
	if in.Service == "" {
		verr.add("service", "service must not be empty")
	}
	if !in.Severity.IsValid() {
		verr.add("severity", "severity is invalid")
	}
	if !in.Status.IsValid() {
		verr.add("status", "status is invalid")
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func checkPatch(p Patch) error {
	verr := &ValidationError{}
	if p.Title != nil {
		checkTitle(*p.Title, verr)
	}
	if p.Service != nil && *p.Service == "" {
		verr.add("service", "service must not be empty")
	}
	if p.Severity != nil && !p.Severity.IsValid() {
		verr.add("severity", "severity is invalid")
	}
	if p.Status != nil && !p.Status.IsValid() {
		verr.add("status", "status is invalid")
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func checkTitle(title string, verr *ValidationError) {
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		verr.add("title", "title must not be empty")
	case n > maxTitleLength:
		verr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
}
