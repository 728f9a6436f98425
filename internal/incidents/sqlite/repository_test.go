package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents"
	"github.com/bissquit/incident-tracker/internal/incidents/query"
	sqlitedb "github.com/bissquit/incident-tracker/internal/pkg/sqlite"
	"github.com/bissquit/incident-tracker/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "incidents.db")
	require.NoError(t, migrations.Up(migrations.DriverSQLite, path))

	db, err := sqlitedb.Open(context.Background(), sqlitedb.Config{Path: path}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func insert(t *testing.T, repo *Repository, title, service string, sev domain.Severity, owner *string, offset time.Duration) domain.Incident {
	t.Helper()

	inc := domain.Incident{
		ID:        uuid.NewString(),
		Title:     title,
		Service:   service,
		Severity:  sev,
		Status:    domain.IncidentStatusOpen,
		Owner:     owner,
		CreatedAt: baseTime.Add(offset),
		UpdatedAt: baseTime.Add(offset),
	}
	require.NoError(t, repo.CreateIncident(context.Background(), &inc))
	return inc
}

func listReq(f query.Filter, sortBy, order string, page, limit int) query.Request {
	return query.Request{
		Filter: f,
		Order:  query.ResolveSort(sortBy, order),
		Page:   query.NewPage(page, limit),
	}
}

func ids(items []domain.Incident) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	created := domain.Incident{
		ID:        uuid.NewString(),
		Title:     "Checkout errors",
		Service:   "payments",
		Severity:  domain.SeveritySEV1,
		Status:    domain.IncidentStatusOpen,
		Owner:     strPtr("alice"),
		CreatedAt: baseTime.Add(123456 * time.Microsecond),
		UpdatedAt: baseTime.Add(123456 * time.Microsecond),
	}
	require.NoError(t, repo.CreateIncident(ctx, &created))

	got, err := repo.GetIncident(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, created.UpdatedAt.Equal(got.UpdatedAt))

	got.CreatedAt, got.UpdatedAt = created.CreatedAt, created.UpdatedAt
	assert.Equal(t, created, *got)

	_, err = repo.GetIncident(ctx, uuid.NewString())
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
}

func TestRepository_CreateConstraintViolation(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	inc := domain.Incident{
		ID:        uuid.NewString(),
		Title:     "t",
		Service:   "s",
		Severity:  "SEV9",
		Status:    domain.IncidentStatusOpen,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	err := repo.CreateIncident(context.Background(), &inc)
	assert.ErrorIs(t, err, incidents.ErrConstraintViolation)
}

func TestRepository_ListFilters(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	a := insert(t, repo, "Database latency", "payments", domain.SeveritySEV1, strPtr("Alice"), 0)
	b := insert(t, repo, "Login failures", "auth", domain.SeveritySEV2, strPtr("bob"), time.Minute)
	c := insert(t, repo, "Disk 100% full", "storage", domain.SeveritySEV3, nil, 2*time.Minute)

	tests := []struct {
		name   string
		filter query.Filter
		want   []string
	}{
		{"no filter", query.Filter{}, []string{c.ID, b.ID, a.ID}},
		{"service exact", query.Filter{Service: "auth"}, []string{b.ID}},
		{"service is not substring", query.Filter{Service: "pay"}, []string{}},
		{"search title case insensitive", query.Filter{Search: "DATABASE"}, []string{a.ID}},
		{"search matches service", query.Filter{Search: "stor"}, []string{c.ID}},
		{"search matches owner", query.Filter{Search: "alic"}, []string{a.ID}},
		{"owner substring", query.Filter{Owner: "BO"}, []string{b.ID}},
		{"severity", query.Filter{Severity: "SEV2"}, []string{b.ID}},
		{"percent is literal", query.Filter{Search: "100%"}, []string{c.ID}},
		{"underscore is literal", query.Filter{Search: "_"}, []string{}},
		{"combined", query.Filter{Service: "payments", Severity: "SEV2"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, info, err := repo.ListIncidents(ctx, listReq(tt.filter, "", "", 1, 10))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(items))
			assert.Equal(t, int64(len(tt.want)), info.Total)
		})
	}
}

func TestRepository_ListSortReverses(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	// same title for all rows so the id tie-break decides
	for i := range 5 {
		insert(t, repo, "Same", "svc", domain.SeveritySEV4, nil, time.Duration(i)*time.Second)
	}
	insert(t, repo, "Other", "svc", domain.SeveritySEV4, strPtr("zed"), time.Hour)

	for _, key := range []string{"title", "owner", "createdAt", "severity"} {
		asc, _, err := repo.ListIncidents(ctx, listReq(query.Filter{}, key, "asc", 1, 100))
		require.NoError(t, err)
		desc, _, err := repo.ListIncidents(ctx, listReq(query.Filter{}, key, "desc", 1, 100))
		require.NoError(t, err)

		reversed := ids(desc)
		for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
			reversed[i], reversed[j] = reversed[j], reversed[i]
		}
		assert.Equal(t, ids(asc), reversed, "sortBy=%s", key)
	}
}

func TestRepository_ListPagination(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	for i := range 5 {
		insert(t, repo, "Incident", "svc", domain.SeveritySEV3, nil, time.Duration(i)*time.Minute)
	}

	items, info, err := repo.ListIncidents(ctx, listReq(query.Filter{}, "createdAt", "asc", 2, 2))
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, query.PageInfo{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, info)

	items, info, err = repo.ListIncidents(ctx, listReq(query.Filter{}, "", "", 999, 10))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Equal(t, int64(1), info.TotalPages)
}

func TestRepository_Update(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	inc := insert(t, repo, "Old title", "svc", domain.SeveritySEV3, strPtr("alice"), 0)

	status := domain.IncidentStatusResolved
	later := baseTime.Add(time.Hour)
	got, err := repo.UpdateIncident(ctx, inc.ID, incidents.Patch{
		Status:  &status,
		Owner:   incidents.Nullable{Set: true},
		Summary: incidents.Nullable{Set: true, Value: strPtr("root cause found")},
	}, later)
	require.NoError(t, err)

	assert.Equal(t, domain.IncidentStatusResolved, got.Status)
	assert.Equal(t, "Old title", got.Title)
	assert.Nil(t, got.Owner)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "root cause found", *got.Summary)
	assert.True(t, inc.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, later.Equal(got.UpdatedAt))

	// a clock step backwards never lowers updatedAt
	got, err = repo.UpdateIncident(ctx, inc.ID, incidents.Patch{Title: strPtr("New")}, baseTime)
	require.NoError(t, err)
	assert.True(t, later.Equal(got.UpdatedAt))

	_, err = repo.UpdateIncident(ctx, uuid.NewString(), incidents.Patch{Title: strPtr("x")}, later)
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)

	bad := domain.IncidentStatus("CLOSED")
	_, err = repo.UpdateIncident(ctx, inc.ID, incidents.Patch{Status: &bad}, later)
	assert.ErrorIs(t, err, incidents.ErrConstraintViolation)
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	inc := insert(t, repo, "Gone", "svc", domain.SeveritySEV4, nil, 0)

	require.NoError(t, repo.DeleteIncident(ctx, inc.ID))
	assert.ErrorIs(t, repo.DeleteIncident(ctx, inc.ID), incidents.ErrIncidentNotFound)
}

func TestRepository_ServicesAndOwners(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	insert(t, repo, "a", "zeta", domain.SeveritySEV1, strPtr("mallory"), 0)
	insert(t, repo, "b", "alpha", domain.SeveritySEV1, strPtr(""), 0)
	insert(t, repo, "c", "zeta", domain.SeveritySEV1, nil, 0)
	insert(t, repo, "d", "beta", domain.SeveritySEV1, strPtr("carol"), 0)

	services, err := repo.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, services)

	owners, err := repo.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "mallory"}, owners)

	n, err := repo.DeleteAllIncidents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	services, err = repo.ListServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, services)
}
