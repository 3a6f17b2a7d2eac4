package vowlinesdk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vowline/internal/domain"
	"vowline/internal/patch"
)

// fakeService emulates the server's compare-and-increment without HTTP.
type fakeService struct {
	mu       sync.Mutex
	snap     domain.TimelineSnapshot
	blockPub chan struct{} // when set, PublishTimeline waits on it
	entered  chan struct{} // closed when a publish reaches the service
	once     sync.Once
}

func newFakeService() *fakeService {
	return &fakeService{
		snap: domain.TimelineSnapshot{
			WeddingID:     "wed-1",
			Version:       1,
			WeddingDate:   "2026-10-17",
			VenueTimezone: "America/New_York",
			Lanes:         []domain.Lane{{ID: "lane-1", Name: "Photography", Type: "photo"}},
			Events:        []domain.Event{},
		},
	}
}

func (f *fakeService) GetTimeline(ctx context.Context, weddingID string) (domain.TimelineSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, nil
}

func (f *fakeService) PublishTimeline(ctx context.Context, weddingID string, baseVersion int64, ops []patch.Op) (domain.TimelineSnapshot, error) {
	if f.entered != nil {
		f.once.Do(func() { close(f.entered) })
	}
	if f.blockPub != nil {
		<-f.blockPub
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if baseVersion != f.snap.Version {
		return domain.TimelineSnapshot{}, &ConflictError{
			CurrentVersion: f.snap.Version,
			Snapshot:       f.snap,
		}
	}
	events, lanes := patch.Apply(f.snap.Events, f.snap.Lanes, ops)
	f.snap.Events = events
	f.snap.Lanes = lanes
	f.snap.Version++
	return f.snap, nil
}

func start(h, m int) time.Time {
	return time.Date(2026, 10, 17, h, m, 0, 0, time.UTC)
}

func createOp(id string) patch.Op {
	return patch.CreateEvent(domain.Event{
		ID: id, LaneID: "lane-1", Title: "Event " + id,
		StartUTC: start(14, 0), EndUTC: start(15, 0),
	})
}

func newLoadedSession(t *testing.T, svc TimelineService) *Session {
	t.Helper()
	s := NewSession(svc, "wed-1", 0)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestEditPreviewPublish(t *testing.T) {
	svc := newFakeService()
	s := newLoadedSession(t, svc)

	if err := s.Edit(createOp("ev-1")); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !s.Dirty() {
		t.Fatal("session should be dirty after edit")
	}
	events, _ := s.Preview()
	if len(events) != 1 || events[0].ID != "ev-1" {
		t.Fatalf("preview = %+v", events)
	}

	snap, err := s.Publish(context.Background())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if snap.Version != 2 {
		t.Fatalf("version = %d", snap.Version)
	}
	if s.Dirty() || s.CanUndo() {
		t.Fatal("draft must reset after a successful publish")
	}
	if s.Version() != 2 {
		t.Fatalf("base version = %d", s.Version())
	}
}

func TestUndoRemovesFromDraft(t *testing.T) {
	s := newLoadedSession(t, newFakeService())
	_ = s.Edit(createOp("ev-1"))
	_ = s.Edit(createOp("ev-2"))

	if !s.Undo() {
		t.Fatal("undo should succeed")
	}
	events, _ := s.Preview()
	if len(events) != 1 || events[0].ID != "ev-1" {
		t.Fatalf("preview after undo = %+v", events)
	}
	if !s.Redo() {
		t.Fatal("redo should succeed")
	}
	events, _ = s.Preview()
	if len(events) != 2 {
		t.Fatalf("preview after redo = %+v", events)
	}
}

func TestConflictKeepsDraftAndRebaseReplays(t *testing.T) {
	svc := newFakeService()
	s := newLoadedSession(t, svc)
	_ = s.Edit(createOp("ev-mine"))

	// Another client publishes first.
	if _, err := svc.PublishTimeline(context.Background(), "wed-1", 1, []patch.Op{createOp("ev-theirs")}); err != nil {
		t.Fatalf("rival publish: %v", err)
	}

	_, err := s.Publish(context.Background())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.CurrentVersion != 2 {
		t.Fatalf("current = %d", conflict.CurrentVersion)
	}
	if !s.Dirty() {
		t.Fatal("draft must survive a conflict")
	}

	s.Rebase(conflict.Snapshot)
	events, _ := s.Preview()
	if len(events) != 2 {
		t.Fatalf("rebased preview = %+v", events)
	}

	snap, err := s.Publish(context.Background())
	if err != nil {
		t.Fatalf("publish after rebase: %v", err)
	}
	if snap.Version != 3 || len(snap.Events) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSingleInFlightPublish(t *testing.T) {
	svc := newFakeService()
	svc.blockPub = make(chan struct{})
	svc.entered = make(chan struct{})
	s := newLoadedSession(t, svc)
	_ = s.Edit(createOp("ev-1"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Publish(context.Background())
		done <- err
	}()

	// Wait for the first publish to reach the service, then try a second.
	<-svc.entered
	if _, err := s.Publish(context.Background()); !errors.Is(err, ErrPublishInFlight) {
		t.Fatalf("second publish err = %v, want ErrPublishInFlight", err)
	}

	close(svc.blockPub)
	if err := <-done; err != nil {
		t.Fatalf("first publish: %v", err)
	}
}

func TestEditDuringPublishStaysPending(t *testing.T) {
	svc := newFakeService()
	svc.blockPub = make(chan struct{})
	svc.entered = make(chan struct{})
	s := newLoadedSession(t, svc)
	_ = s.Edit(createOp("ev-1"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Publish(context.Background())
		done <- err
	}()
	<-svc.entered

	// Recorded while the first publish is on the wire: must not be
	// swallowed when that publish lands.
	if err := s.Edit(createOp("ev-2")); err != nil {
		t.Fatalf("edit during flight: %v", err)
	}
	if s.Undo() {
		t.Fatal("undo must be refused while a publish is in flight")
	}
	if err := s.Load(context.Background()); !errors.Is(err, ErrPublishInFlight) {
		t.Fatalf("load during flight err = %v, want ErrPublishInFlight", err)
	}

	close(svc.blockPub)
	if err := <-done; err != nil {
		t.Fatalf("first publish: %v", err)
	}

	if !s.Dirty() {
		t.Fatal("edit made during the publish must stay pending")
	}
	events, _ := s.Preview()
	if len(events) != 2 {
		t.Fatalf("preview = %+v", events)
	}

	snap, err := s.Publish(context.Background())
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if snap.Version != 3 || len(snap.Events) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if s.Dirty() {
		t.Fatal("draft must be empty once the late edit ships")
	}
}

func TestDiscardDropsDraft(t *testing.T) {
	s := newLoadedSession(t, newFakeService())
	_ = s.Edit(createOp("ev-1"))
	if err := s.Discard(context.Background()); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if s.Dirty() || s.CanUndo() {
		t.Fatal("discard must drop the draft")
	}
	events, _ := s.Preview()
	if len(events) != 0 {
		t.Fatalf("preview = %+v", events)
	}
}

func TestEditRejectsMalformedOp(t *testing.T) {
	s := newLoadedSession(t, newFakeService())
	err := s.Edit(patch.Op{Kind: patch.KindUpdateEventTitle, EventID: "ev-1"})
	if err == nil {
		t.Fatal("expected shape error for missing title")
	}
}
