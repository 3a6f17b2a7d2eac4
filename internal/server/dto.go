package server

import (
	"encoding/json"
	"time"

	"vowline/internal/domain"
	"vowline/internal/patch"
)

// Request payloads

type CreateWeddingRequest struct {
	ID            *string `json:"id,omitempty"`
	CoupleNames   string  `json:"couple_names"`
	WeddingDate   string  `json:"wedding_date" example:"2026-10-17"`
	VenueTimezone string  `json:"venue_timezone" example:"America/New_York"`
	VenueName     *string `json:"venue_name,omitempty"`
}

type UpdateWeddingRequest struct {
	CoupleNames *string `json:"couple_names,omitempty"`
	VenueName   *string `json:"venue_name,omitempty"`
}

type PublishTimelineRequest struct {
	BaseVersion int64      `json:"base_version" minimum:"1"`
	Ops         []patch.Op `json:"ops"`
}

type SetBandsRequest struct {
	Bands []BandRequest `json:"bands"`
}

type BandRequest struct {
	ID       *string   `json:"id,omitempty"`
	Type     string    `json:"type" example:"golden_hour"`
	StartUTC time.Time `json:"start_utc" format:"date-time"`
	EndUTC   time.Time `json:"end_utc" format:"date-time"`
	Label    *string   `json:"label,omitempty"`
}

type BudgetEntryRequest struct {
	Category     *string `json:"category,omitempty"`
	Vendor       *string `json:"vendor,omitempty"`
	PlannedCents *int64  `json:"planned_cents,omitempty"`
	ActualCents  *int64  `json:"actual_cents,omitempty"`
	Paid         *bool   `json:"paid,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type AddMemberRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role" example:"planner"`
}

// Response payloads

type WeddingResponse struct {
	ID              string `json:"id"`
	CoupleNames     string `json:"couple_names"`
	WeddingDate     string `json:"wedding_date"`
	VenueTimezone   string `json:"venue_timezone"`
	VenueName       string `json:"venue_name,omitempty"`
	TimelineVersion int64  `json:"timeline_version"`
	CreatedAt       string `json:"created_at" format:"date-time"`
}

type TimelineResponse struct {
	WeddingID      string                  `json:"wedding_id"`
	Version        int64                   `json:"version"`
	WeddingDate    string                  `json:"wedding_date"`
	VenueTimezone  string                  `json:"venue_timezone"`
	WindowStartUTC time.Time               `json:"window_start_utc" format:"date-time"`
	WindowEndUTC   time.Time               `json:"window_end_utc" format:"date-time"`
	Lanes          []domain.Lane           `json:"lanes"`
	Events         []domain.Event          `json:"events"`
	Bands          []domain.BackgroundBand `json:"bands"`
}

type MemberResponse struct {
	WeddingID string `json:"wedding_id"`
	ActorID   string `json:"actor_id"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type LogEntryResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	WeddingID  string         `json:"wedding_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedLog struct {
	Items      []LogEntryResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// Conversion helpers

func weddingResponse(w domain.Wedding) WeddingResponse {
	return WeddingResponse(w)
}

func mapWeddings(items []domain.Wedding) []WeddingResponse {
	res := make([]WeddingResponse, 0, len(items))
	for _, w := range items {
		res = append(res, weddingResponse(w))
	}
	return res
}

func timelineResponse(s domain.TimelineSnapshot) TimelineResponse {
	return TimelineResponse{
		WeddingID:      s.WeddingID,
		Version:        s.Version,
		WeddingDate:    s.WeddingDate,
		VenueTimezone:  s.VenueTimezone,
		WindowStartUTC: s.WindowStartUTC,
		WindowEndUTC:   s.WindowEndUTC,
		Lanes:          nonNilSlice(s.Lanes),
		Events:         nonNilSlice(s.Events),
		Bands:          nonNilSlice(s.Bands),
	}
}

func memberResponse(m domain.Member) MemberResponse {
	return MemberResponse(m)
}

func logEntryResponse(e domain.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		WeddingID:  e.WeddingID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func bandFromRequest(weddingID string, b BandRequest) domain.BackgroundBand {
	band := domain.BackgroundBand{
		WeddingID: weddingID,
		Type:      b.Type,
		StartUTC:  b.StartUTC,
		EndUTC:    b.EndUTC,
		Label:     stringOrEmpty(b.Label),
	}
	if b.ID != nil {
		band.ID = *b.ID
	}
	return band
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func stringOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
