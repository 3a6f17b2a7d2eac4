package patch

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"vowline/internal/domain"
)

func baseState() ([]domain.Event, []domain.Lane) {
	start := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	lanes := []domain.Lane{
		{ID: "lane-photo", WeddingID: "w1", Name: "Photography", Type: domain.LanePhoto, SortOrder: 1},
		{ID: "lane-meal", WeddingID: "w1", Name: "Dinner", Type: domain.LaneMeal, SortOrder: 2},
	}
	events := []domain.Event{
		{ID: "ev-1", WeddingID: "w1", LaneID: "lane-photo", Title: "First look", StartUTC: start, EndUTC: start.Add(30 * time.Minute), Category: domain.LanePhoto, Status: "tentative"},
		{ID: "ev-2", WeddingID: "w1", LaneID: "lane-meal", Title: "Dinner service", StartUTC: start.Add(3 * time.Hour), EndUTC: start.Add(5 * time.Hour), Category: domain.LaneMeal, Status: "confirmed"},
	}
	return events, lanes
}

func TestApplyCreateThenUpdateSameBatch(t *testing.T) {
	events, lanes := baseState()
	start := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	newEv := domain.Event{ID: "ev-3", WeddingID: "w1", LaneID: "lane-meal", Title: "Toasts", StartUTC: start, EndUTC: start.Add(20 * time.Minute), Category: domain.LaneMeal, Status: "tentative"}
	ops := []Op{
		CreateEvent(newEv),
		UpdateEventTitle("ev-3", "Toasts and speeches"),
		UpdateEventTime("ev-3", start.Add(10*time.Minute), start.Add(40*time.Minute)),
	}
	gotEvents, _ := Apply(events, lanes, ops)
	i := findEvent(gotEvents, "ev-3")
	if i < 0 {
		t.Fatal("created event missing from preview")
	}
	if gotEvents[i].Title != "Toasts and speeches" {
		t.Fatalf("title = %q, want updated title", gotEvents[i].Title)
	}
	if !gotEvents[i].StartUTC.Equal(start.Add(10 * time.Minute)) {
		t.Fatalf("start = %s, want shifted start", gotEvents[i].StartUTC)
	}
}

func TestApplyIsDeterministicAndPure(t *testing.T) {
	events, lanes := baseState()
	ops := []Op{
		UpdateEventTitle("ev-1", "Golden hour portraits"),
		DeleteEvent("ev-2"),
	}
	got1e, got1l := Apply(events, lanes, ops)
	got2e, got2l := Apply(events, lanes, ops)
	if !reflect.DeepEqual(got1e, got2e) || !reflect.DeepEqual(got1l, got2l) {
		t.Fatal("replaying the same ops from the same base diverged")
	}
	// Base untouched.
	if events[0].Title != "First look" || len(events) != 2 {
		t.Fatal("base snapshot was mutated")
	}
}

func TestApplyDeleteIsIdempotentAtDraftLayer(t *testing.T) {
	events, lanes := baseState()
	ops := []Op{DeleteEvent("ev-1"), DeleteEvent("ev-1"), DeleteEvent("nope")}
	gotEvents, _ := Apply(events, lanes, ops)
	if len(gotEvents) != 1 {
		t.Fatalf("events = %d, want 1", len(gotEvents))
	}
}

func TestApplySkipsInvalidOpsBestEffort(t *testing.T) {
	events, lanes := baseState()
	ops := []Op{
		UpdateEventTitle("ghost", "nope"),
		UpdateEventLane("ev-1", "lane-meal"),
	}
	gotEvents, _ := Apply(events, lanes, ops)
	if len(gotEvents) != 2 {
		t.Fatalf("events = %d, want 2", len(gotEvents))
	}
	if gotEvents[findEvent(gotEvents, "ev-1")].LaneID != "lane-meal" {
		t.Fatal("valid op after skipped op not applied")
	}
}

func TestApplyDeleteLaneCascades(t *testing.T) {
	events, lanes := baseState()
	gotEvents, gotLanes := Apply(events, lanes, []Op{DeleteLane("lane-photo")})
	if len(gotLanes) != 1 {
		t.Fatalf("lanes = %d, want 1", len(gotLanes))
	}
	for _, ev := range gotEvents {
		if ev.LaneID == "lane-photo" {
			t.Fatalf("event %s survived lane cascade", ev.ID)
		}
	}
}

func TestApplyUpdateLanePartialFields(t *testing.T) {
	events, lanes := baseState()
	name := "Photo + video"
	order := 9
	_, gotLanes := Apply(events, lanes, []Op{UpdateLane("lane-photo", LaneFields{Name: &name, SortOrder: &order})})
	l := gotLanes[findLane(gotLanes, "lane-photo")]
	if l.Name != name || l.SortOrder != order {
		t.Fatalf("partial update not applied: %+v", l)
	}
	if l.Type != domain.LanePhoto {
		t.Fatalf("untouched field changed: %+v", l)
	}
}

func TestApplyDuplicateCreateSkipped(t *testing.T) {
	events, lanes := baseState()
	dup := events[0]
	dup.Title = "imposter"
	gotEvents, _ := Apply(events, lanes, []Op{CreateEvent(dup)})
	if len(gotEvents) != 2 {
		t.Fatalf("events = %d, want 2", len(gotEvents))
	}
	if gotEvents[findEvent(gotEvents, "ev-1")].Title != "First look" {
		t.Fatal("duplicate create replaced existing event")
	}
}

func TestCheckShape(t *testing.T) {
	start := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	valid := []Op{
		CreateEvent(domain.Event{ID: "e", LaneID: "l", Title: "t"}),
		UpdateEventTime("e", start, start.Add(time.Hour)),
		UpdateEventLane("e", "l"),
		UpdateEventTitle("e", "t"),
		UpdateEventOwner("e", domain.OwnerRef{Name: "Sam"}),
		DeleteEvent("e"),
		CreateLane(domain.Lane{ID: "l", Name: "Photos", Type: domain.LanePhoto}),
		UpdateLane("l", LaneFields{}),
		DeleteLane("l"),
	}
	if err := CheckShapeAll(valid); err != nil {
		t.Fatalf("valid ops rejected: %v", err)
	}
	invalid := []Op{
		{},
		{Kind: KindCreateEvent},
		{Kind: KindUpdateEventTime, EventID: "e"},
		UpdateEventTitle("e", "   "),
		{Kind: KindCreateLane, Lane: &domain.Lane{ID: "l", Name: "x", Type: "spaceships"}},
		{Kind: KindDeleteLane},
	}
	for i, op := range invalid {
		if err := op.CheckShape(); err == nil {
			t.Errorf("invalid op %d accepted: %+v", i, op)
		}
	}
}

func TestOpWireRoundTrip(t *testing.T) {
	start := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	op := UpdateEventTime("ev-1", start, start.Add(time.Hour))
	data, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Op
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != KindUpdateEventTime || decoded.EventID != "ev-1" {
		t.Fatalf("round trip lost fields: %+v", decoded)
	}
	if !decoded.Start.Equal(start) {
		t.Fatalf("start = %s, want %s", decoded.Start, start)
	}
}
