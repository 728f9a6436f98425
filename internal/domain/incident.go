package domain

import "time"

// Severity represents how badly an incident affects a service.
type Severity string

// Incident severities, SEV1 being the most severe.
const (
	SeveritySEV1 Severity = "SEV1"
	SeveritySEV2 Severity = "SEV2"
	SeveritySEV3 Severity = "SEV3"
	SeveritySEV4 Severity = "SEV4"
)

// Severities lists every valid severity in rank order.
var Severities = []Severity{SeveritySEV1, SeveritySEV2, SeveritySEV3, SeveritySEV4}

// IsValid checks if the severity is one of the known literals.
func (s Severity) IsValid() bool {
	switch s {
	case SeveritySEV1, SeveritySEV2, SeveritySEV3, SeveritySEV4:
		return true
	}
	return false
}

// IncidentStatus represents where an incident is in its lifecycle.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusOpen      IncidentStatus = "OPEN"
	IncidentStatusMitigated IncidentStatus = "MITIGATED"
	IncidentStatusResolved  IncidentStatus = "RESOLVED"
)

// IncidentStatuses lists every valid status.
var IncidentStatuses = []IncidentStatus{IncidentStatusOpen, IncidentStatusMitigated, IncidentStatusResolved}

// IsValid checks if the status is one of the known literals.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusMitigated, IncidentStatusResolved:
		return true
	}
	return false
}

// Incident is a tracked production incident.
type Incident struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Service   string         `json:"service"`
	Severity  Severity       `json:"severity"`
	Status    IncidentStatus `json:"status"`
	Owner     *string        `json:"owner"`
	Summary   *string        `json:"summary"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
