package domain

import "time"

// OwnerRef is a denormalized reference to whoever is responsible for a
// lane or event. Display data, not an ownership relation.
type OwnerRef struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty" enum:"person,vendor,party"`
	Name string `json:"name,omitempty"`
}

type Wedding struct {
	ID              string `json:"id"`
	CoupleNames     string `json:"couple_names"`
	WeddingDate     string `json:"wedding_date"`
	VenueTimezone   string `json:"venue_timezone"`
	VenueName       string `json:"venue_name,omitempty"`
	TimelineVersion int64  `json:"timeline_version"`
	CreatedAt       string `json:"created_at" format:"date-time"`
}

// Lane type categories.
const (
	LanePhoto     = "photo"
	LaneCeremony  = "ceremony"
	LaneTransport = "transport"
	LaneVenueOps  = "venue_ops"
	LaneMusic     = "music"
	LaneMeal      = "meal"
	LanePrep      = "prep"
	LaneMisc      = "misc"
)

func LaneTypes() []string {
	return []string{LanePhoto, LaneCeremony, LaneTransport, LaneVenueOps, LaneMusic, LaneMeal, LanePrep, LaneMisc}
}

func ValidLaneType(t string) bool {
	for _, lt := range LaneTypes() {
		if lt == t {
			return true
		}
	}
	return false
}

type Lane struct {
	ID        string   `json:"id"`
	WeddingID string   `json:"wedding_id"`
	Name      string   `json:"name"`
	Type      string   `json:"type" enum:"photo,ceremony,transport,venue_ops,music,meal,prep,misc"`
	Owner     OwnerRef `json:"owner"`
	SortOrder int      `json:"sort_order"`
}

type Event struct {
	ID            string    `json:"id"`
	WeddingID     string    `json:"wedding_id"`
	LaneID        string    `json:"lane_id"`
	Title         string    `json:"title"`
	StartUTC      time.Time `json:"start_utc" format:"date-time"`
	EndUTC        time.Time `json:"end_utc" format:"date-time"`
	Category      string    `json:"category" enum:"photo,ceremony,transport,venue_ops,music,meal,prep,misc"`
	Owner         OwnerRef  `json:"owner"`
	Status        string    `json:"status" enum:"tentative,confirmed"`
	Locked        bool      `json:"locked"`
	Notes         string    `json:"notes,omitempty"`
	LocationLabel string    `json:"location_label,omitempty"`
	Lat           *float64  `json:"lat,omitempty"`
	Lng           *float64  `json:"lng,omitempty"`
}

// BackgroundBand is read-only decoration on the timeline (golden hour,
// sunset and the like). Bands are never mutated through patch ops; an
// external astronomical/venue calculation replaces them wholesale.
type BackgroundBand struct {
	ID        string    `json:"id"`
	WeddingID string    `json:"wedding_id"`
	Type      string    `json:"type"`
	StartUTC  time.Time `json:"start_utc" format:"date-time"`
	EndUTC    time.Time `json:"end_utc" format:"date-time"`
	Label     string    `json:"label,omitempty"`
}

// TimelineSnapshot is the canonical read model: everything a client needs
// to fork a draft at a known version.
type TimelineSnapshot struct {
	WeddingID      string           `json:"wedding_id"`
	Version        int64            `json:"version"`
	WeddingDate    string           `json:"wedding_date"`
	VenueTimezone  string           `json:"venue_timezone"`
	WindowStartUTC time.Time        `json:"window_start_utc" format:"date-time"`
	WindowEndUTC   time.Time        `json:"window_end_utc" format:"date-time"`
	Lanes          []Lane           `json:"lanes"`
	Events         []Event          `json:"events"`
	Bands          []BackgroundBand `json:"bands"`
}

type BudgetEntry struct {
	ID           string `json:"id"`
	WeddingID    string `json:"wedding_id"`
	Category     string `json:"category"`
	Vendor       string `json:"vendor,omitempty"`
	PlannedCents int64  `json:"planned_cents"`
	ActualCents  int64  `json:"actual_cents"`
	Paid         bool   `json:"paid"`
	DueDate      string `json:"due_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at" format:"date-time"`
	UpdatedAt    string `json:"updated_at" format:"date-time"`
}

type BudgetCategorySummary struct {
	Category     string `json:"category"`
	PlannedCents int64  `json:"planned_cents"`
	ActualCents  int64  `json:"actual_cents"`
	PaidCents    int64  `json:"paid_cents"`
	Entries      int    `json:"entries"`
}

type BudgetSummary struct {
	WeddingID    string                  `json:"wedding_id"`
	PlannedCents int64                   `json:"planned_cents"`
	ActualCents  int64                   `json:"actual_cents"`
	PaidCents    int64                   `json:"paid_cents"`
	Categories   []BudgetCategorySummary `json:"categories"`
}

type Member struct {
	WeddingID string `json:"wedding_id"`
	ActorID   string `json:"actor_id"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type LogEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	WeddingID  string `json:"wedding_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
