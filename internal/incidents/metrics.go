package incidents

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "incidenttracker"

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "incidents",
		Name:      "mutations_total",
		Help:      "Incident mutations by operation and result",
	},
	[]string{"operation", "result"},
)

// recordMutation counts a mutation outcome.
func recordMutation(operation string, err error) {
	mutationsTotal.WithLabelValues(operation, mutationResult(err)).Inc()
}

func mutationResult(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrIncidentNotFound):
		return "not_found"
	case errors.As(err, &verr), errors.Is(err, ErrEmptyUpdate), errors.Is(err, ErrConstraintViolation):
		return "invalid"
	default:
		return "error"
	}
}
