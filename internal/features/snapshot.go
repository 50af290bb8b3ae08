package features

import "time"

// Event types observed in a lead's activity history
const (
	EventVisit      = "visit"
	EventSession    = "session"
	EventEmailOpen  = "email_open"
	EventEmailClick = "email_click"
)

// Event is a single activity record in a lead's history
type Event struct {
	Type            string    `json:"type"`
	OccurredAt      time.Time `json:"occurred_at"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
}

// LeadSnapshot is an immutable, timestamped view of a lead's raw
// attributes and event history. One snapshot is created per scoring
// request and never mutated; the next request supersedes it.
type LeadSnapshot struct {
	LeadID     string    `json:"lead_id"`
	CapturedAt time.Time `json:"captured_at"`

	// Demographics
	Company   string `json:"company,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Seniority string `json:"seniority,omitempty"`
	FirmSize  int    `json:"firm_size,omitempty"`

	// Contact fields (completeness inputs)
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Title   string `json:"title,omitempty"`
	Website string `json:"website,omitempty"`

	// Acquisition
	Source string `json:"source,omitempty"`

	// Activity history
	Events []Event `json:"events,omitempty"`

	// Engagement counters
	ResponseCount int `json:"response_count"`
	OutreachCount int `json:"outreach_count"`
	CallCount     int `json:"call_count"`
	DemoRequests  int `json:"demo_requests"`

	// Interaction counters
	SocialActivity int `json:"social_activity"`
	ReferralCount  int `json:"referral_count"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at,omitempty"`
}

// Validate checks that the snapshot carries the fields that have no
// defined default. Everything else imputes per the schema tables.
func (s *LeadSnapshot) Validate() error {
	if s.LeadID == "" {
		return ErrMissingField("lead_id")
	}
	if s.CapturedAt.IsZero() {
		return ErrMissingField("captured_at")
	}
	if s.CreatedAt.IsZero() {
		return ErrMissingField("created_at")
	}
	return nil
}
