//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// uniqueService returns a service name no other test uses, so list
// assertions can filter down to rows created by the current test.
func uniqueService(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// createIncident creates an incident and removes it when the test ends.
func createIncident(t *testing.T, client *testutil.Client, payload map[string]interface{}) domain.Incident {
	t.Helper()

	resp, err := client.POST("/api/incidents", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var incident domain.Incident
	testutil.DecodeJSON(t, resp, &incident)

	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM incidents WHERE id = $1`, incident.ID)
	})
	return incident
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

type listResponse struct {
	Incidents  []domain.Incident `json:"incidents"`
	Pagination struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"totalPages"`
	} `json:"pagination"`
}

func listIncidents(t *testing.T, client *testutil.Client, query string) listResponse {
	t.Helper()

	resp, err := client.GET("/api/incidents" + query)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body listResponse
	testutil.DecodeJSON(t, resp, &body)
	return body
}
