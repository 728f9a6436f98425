package incidents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSeedCount is the number of incidents generated by the seed tool.
const DefaultSeedCount = 200

const seedWindow = 30 * 24 * time.Hour

var seedServices = []string{
	"Auth Service", "Payment Gateway", "User Management", "Notification Service",
	"Analytics Service", "Search Service", "Content Delivery", "Database Service",
}

var seedSymptoms = []string{
	"elevated error rate", "latency spike", "partial outage", "full outage",
	"degraded performance", "failed deployment", "certificate expiry", "queue backlog",
}

var titleCaser = cases.Title(language.English)

var seedOwners = []string{
	"John Doe", "Jane Smith", "Mike Johnson", "Sarah Williams",
	"David Brown", "Emily Davis", "Chris Wilson", "Lisa Anderson",
}

// Seeder fills the store with random incidents for demos and load tests.
type Seeder struct {
	repo Repository
	rnd  *rand.Rand
	now  func() time.Time
}

// NewSeeder creates a seeder. The same seed produces the same incidents
// apart from ids.
func NewSeeder(repo Repository, seed uint64) *Seeder {
	return &Seeder{
		repo: repo,
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:  time.Now,
	}
}

// Seed inserts n random incidents, optionally clearing the table first.
// It returns the number of incidents inserted.
func (s *Seeder) Seed(ctx context.Context, n int, reset bool) (int, error) {
	if reset {
		if _, err := s.repo.DeleteAllIncidents(ctx); err != nil {
			return 0, fmt.Errorf("clear incidents: %w", err)
		}
	}

	generated := s.Generate(n)
	for i, incident := range generated {
		if err := s.repo.CreateIncident(ctx, &incident); err != nil {
			return i, fmt.Errorf("insert incident %d: %w", i, err)
		}
	}
	return len(generated), nil
}

// Generate returns n random incidents with createdAt <= updatedAt <= now,
// all within the last 30 days.
func (s *Seeder) Generate(n int) []domain.Incident {
	now := s.now().UTC().Truncate(time.Microsecond)
	out := make([]domain.Incident, 0, max(n, 0))

	for range n {
		service := seedServices[s.rnd.IntN(len(seedServices))]
		symptom := seedSymptoms[s.rnd.IntN(len(seedSymptoms))]
		severity := domain.Severities[s.rnd.IntN(len(domain.Severities))]
		status := domain.IncidentStatuses[s.rnd.IntN(len(domain.IncidentStatuses))]

		var owner *string
		if s.rnd.Float64() > 0.3 {
			o := seedOwners[s.rnd.IntN(len(seedOwners))]
			owner = &o
		}

		var summary *string
		if s.rnd.Float64() > 0.5 {
			text := fmt.Sprintf("This is a summary of the incident in %s. It requires immediate attention.", service)
			summary = &text
		}

		createdAt := now.Add(-time.Duration(s.rnd.Int64N(int64(seedWindow)))).Truncate(time.Microsecond)
		updatedAt := createdAt.Add(time.Duration(s.rnd.Int64N(int64(now.Sub(createdAt)) + 1))).Truncate(time.Microsecond)

		out = append(out, domain.Incident{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("%s in %s", titleCaser.String(symptom), service),
			Service:   service,
			Severity:  severity,
			Status:    status,
			Owner:     owner,
			Summary:   summary,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}

	return out
}
