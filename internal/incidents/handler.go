// Package incidents provides HTTP handlers and business logic for tracking incidents.
package incidents

import (
	"errors"
	"io"
	"net/http"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents/query"
	"github.com/bissquit/incident-tracker/internal/pkg/ctxlog"
	"github.com/bissquit/incident-tracker/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound, Message: "incident not found"},
	{Error: ErrEmptyUpdate, Status: http.StatusBadRequest, Message: ErrEmptyUpdate.Error()},
	{Error: ErrInvalidJSON, Status: http.StatusBadRequest, Message: ErrInvalidJSON.Error()},
	{Error: ErrConstraintViolation, Status: http.StatusBadRequest, Message: ErrConstraintViolation.Error()},
}

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *RequestValidator
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: NewRequestValidator(),
	}
}

// RegisterRoutes registers all HTTP routes for the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/{id}", h.GetIncident)
		r.Patch("/{id}", h.UpdateIncident)
		r.Delete("/{id}", h.DeleteIncident)
	})

	r.Get("/services", h.ListServices)
	r.Get("/owners", h.ListOwners)
}

// ListResponse is the body of GET /incidents.
type ListResponse struct {
	Incidents  []domain.Incident `json:"incidents"`
	Pagination query.PageInfo    `json:"pagination"`
}

// MessageResponse is a body carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListIncidents handles GET /incidents request.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, info, err := h.service.ListIncidents(r.Context(), ParseListRequest(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, ListResponse{Incidents: incidents, Pagination: info})
}

// ParseListRequest reads filters, sort and page from the query string.
// Unrecognized sort and page values fall back to defaults.
func ParseListRequest(r *http.Request) query.Request {
	q := r.URL.Query()

	return query.Request{
		Filter: query.Filter{
			Search:   q.Get("search"),
			Service:  q.Get("service"),
			Severity: q.Get("severity"),
			Status:   q.Get("status"),
			Owner:    q.Get("owner"),
		},
		Order: query.ResolveSort(q.Get("sortBy"), q.Get("sortOrder")),
		Page:  query.ParsePage(q.Get("page"), q.Get("limit")),
	}
}

// CreateIncident handles POST /incidents request.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	in, err := h.validator.Create(body)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	incident, err := h.service.CreateIncident(r.Context(), in)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	ctxlog.FromContext(r.Context()).Info("incident created",
		"incident_id", incident.ID,
		"service", incident.Service,
		"severity", incident.Severity,
	)
	httputil.JSON(w, http.StatusCreated, incident)
}

// GetIncident handles GET /incidents/{id} request.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetIncident(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// UpdateIncident handles PATCH /incidents/{id} request.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	patch, err := h.validator.Update(body)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	ctx, logger := ctxlog.With(r.Context(), "incident_id", chi.URLParam(r, "id"))
	incident, err := h.service.UpdateIncident(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.HandleError(ctx, w, err, errorMappings)
		return
	}

	logger.Info("incident updated", "status", incident.Status)
	httputil.JSON(w, http.StatusOK, incident)
}

// DeleteIncident handles DELETE /incidents/{id} request.
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	ctx, logger := ctxlog.With(r.Context(), "incident_id", chi.URLParam(r, "id"))
	if err := h.service.DeleteIncident(ctx, chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(ctx, w, err, errorMappings)
		return
	}

	logger.Info("incident deleted")

	httputil.JSON(w, http.StatusOK, MessageResponse{Message: "Incident deleted successfully"})
}

// ListServices handles GET /services request.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, nonNil(services))
}

// ListOwners handles GET /owners request.
func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.service.ListOwners(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, nonNil(owners))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return body, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
