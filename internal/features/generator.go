package features

import (
	"fmt"
	"math/rand"
	"time"
)

// Profile shapes the synthetic leads a Generator produces
type Profile string

const (
	ProfileCold Profile = "cold" // stale, sparse, low engagement
	ProfileWarm Profile = "warm" // mid-range on every input
	ProfileHot  Profile = "hot"  // recent, dense, high engagement
)

var generatorSources = []string{"website", "facebook", "instagram", "google_ads", "referral", "cold_call"}
var generatorIndustries = []string{"software", "finance", "healthcare", "manufacturing", "retail", ""}
var generatorSeniorities = []string{"c_level", "vp", "director", "manager", "individual", ""}

// Generator produces synthetic lead snapshots for tests and load
// exercises. Same seed, same output.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a generator anchored at a fixed capture time so
// temporal features are reproducible.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Snapshot produces one synthetic lead for the given profile
func (g *Generator) Snapshot(leadID string, profile Profile) *LeadSnapshot {
	switch profile {
	case ProfileHot:
		return g.build(leadID, 15+g.rng.Intn(15), 8+g.rng.Intn(8), 2, 48, 5)
	case ProfileCold:
		return g.build(leadID, g.rng.Intn(3), g.rng.Intn(2), 45, 400, 1)
	default:
		return g.build(leadID, 5+g.rng.Intn(8), 2+g.rng.Intn(5), 10, 120, 3)
	}
}

// Batch produces n snapshots with sequential lead IDs
func (g *Generator) Batch(n int, profile Profile) []*LeadSnapshot {
	snaps := make([]*LeadSnapshot, n)
	for i := range snaps {
		snaps[i] = g.Snapshot(fmt.Sprintf("%s-lead-%d", profile, i), profile)
	}
	return snaps
}

func (g *Generator) build(leadID string, visits, clicks, staleDays, ageDays, contactFields int) *LeadSnapshot {
	lastActivity := g.now.Add(-time.Duration(staleDays*24) * time.Hour)
	events := make([]Event, 0, visits*2+clicks+1)
	for i := 0; i < visits; i++ {
		at := lastActivity.Add(-time.Duration(g.rng.Intn(staleDays*24+24)) * time.Hour)
		events = append(events, Event{Type: EventVisit, OccurredAt: at})
		events = append(events, Event{Type: EventEmailOpen, OccurredAt: at})
	}
	for i := 0; i < clicks; i++ {
		at := lastActivity.Add(-time.Duration(g.rng.Intn(staleDays*24+24)) * time.Hour)
		events = append(events, Event{Type: EventEmailClick, OccurredAt: at})
	}
	events = append(events, Event{
		Type:            EventSession,
		OccurredAt:      lastActivity,
		DurationSeconds: float64(30 + g.rng.Intn(600)),
	})

	snap := &LeadSnapshot{
		LeadID:         leadID,
		CapturedAt:     g.now,
		CreatedAt:      g.now.Add(-time.Duration(ageDays*24) * time.Hour),
		Industry:       generatorIndustries[g.rng.Intn(len(generatorIndustries))],
		Seniority:      generatorSeniorities[g.rng.Intn(len(generatorSeniorities))],
		FirmSize:       g.rng.Intn(2000),
		Source:         generatorSources[g.rng.Intn(len(generatorSources))],
		Events:         events,
		ResponseCount:  clicks / 2,
		OutreachCount:  clicks,
		CallCount:      visits / 3,
		DemoRequests:   clicks / 4,
		SocialActivity: visits / 2,
		ReferralCount:  clicks / 3,
		LastActivityAt: lastActivity,
	}

	fields := []*string{&snap.Name, &snap.Email, &snap.Phone, &snap.Title, &snap.Website}
	values := []string{"Taylor Reed", "taylor@example.com", "+1-555-0100", "Director of Ops", "example.com"}
	if contactFields > len(fields) {
		contactFields = len(fields)
	}
	for i := 0; i < contactFields; i++ {
		*fields[i] = values[i]
	}
	return snap
}
