package vowlinesdk

import (
	"context"
	"errors"
	"sync"

	"vowline/internal/domain"
	"vowline/internal/history"
	"vowline/internal/patch"
)

// ErrPublishInFlight is returned when Publish is called while an earlier
// publish has not finished. One outstanding publish per session.
var ErrPublishInFlight = errors.New("publish already in flight")

// TimelineService is the server surface the session talks to. *Client
// satisfies it.
type TimelineService interface {
	GetTimeline(ctx context.Context, weddingID string) (domain.TimelineSnapshot, error)
	PublishTimeline(ctx context.Context, weddingID string, baseVersion int64, ops []patch.Op) (domain.TimelineSnapshot, error)
}

// Session is the client-side draft over one wedding's timeline. Edits
// accumulate locally as patch ops with undo/redo; Preview folds them
// over the base snapshot; Publish ships them against the base version.
// The server rejecting a stale base surfaces as *ConflictError with the
// draft left intact, so the caller can Rebase and retry or Discard.
//
// Methods are safe for concurrent use, but the session models a single
// user's editing surface; it is not a collaboration primitive.
type Session struct {
	svc       TimelineService
	weddingID string

	mu         sync.Mutex
	base       domain.TimelineSnapshot
	hist       *history.Stack
	loaded     bool
	publishing bool
}

// NewSession creates a session with the given undo depth (0 means the
// default).
func NewSession(svc TimelineService, weddingID string, depth int) *Session {
	return &Session{
		svc:       svc,
		weddingID: weddingID,
		hist:      history.New(depth),
	}
}

// Load fetches the canonical snapshot and starts a fresh draft,
// discarding any local edits. Refused while a publish is in flight.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.publishing {
		s.mu.Unlock()
		return ErrPublishInFlight
	}
	s.mu.Unlock()
	snap, err := s.svc.GetTimeline(ctx, s.weddingID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishing {
		return ErrPublishInFlight
	}
	s.base = snap
	s.hist.Clear()
	s.loaded = true
	return nil
}

// Base returns the snapshot the draft is forked from.
func (s *Session) Base() domain.TimelineSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// Version returns the base version local edits will publish against.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.Version
}

// Edit records one user action as a batch of ops. The batch is shape
// checked up front; referential problems only surface on Publish.
func (s *Session) Edit(ops ...patch.Op) error {
	if err := patch.CheckShapeAll(ops); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errors.New("session not loaded")
	}
	s.hist.Record(ops)
	return nil
}

// Undo reverts the most recent batch. Reports whether anything changed.
// Refused while a publish is in flight: the batch may already be part of
// the shipped payload.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishing {
		return false
	}
	return s.hist.Undo() != nil
}

// Redo reapplies the most recently undone batch. Refused while a publish
// is in flight.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishing {
		return false
	}
	return s.hist.Redo() != nil
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// Dirty reports whether the draft differs from the base snapshot.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hist.Pending()) > 0
}

// Preview folds the pending ops over the base snapshot and returns what
// the timeline would look like after a successful publish. The fold is
// lenient: ops the server would reject are skipped rather than failing
// the preview.
func (s *Session) Preview() ([]domain.Event, []domain.Lane) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return patch.Apply(s.base.Events, s.base.Lanes, s.hist.Pending())
}

// Publish ships the pending ops against the base version. On success
// the returned snapshot becomes the new base and the shipped ops leave
// the draft; edits recorded while the publish was in flight stay pending
// against the new base. On *ConflictError the draft is untouched; Rebase
// or Discard decides what happens next. Only one publish may be in
// flight at a time.
func (s *Session) Publish(ctx context.Context) (domain.TimelineSnapshot, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return domain.TimelineSnapshot{}, errors.New("session not loaded")
	}
	if s.publishing {
		s.mu.Unlock()
		return domain.TimelineSnapshot{}, ErrPublishInFlight
	}
	s.publishing = true
	baseVersion := s.base.Version
	ops := s.hist.Pending()
	s.mu.Unlock()

	snap, err := s.svc.PublishTimeline(ctx, s.weddingID, baseVersion, ops)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishing = false
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	s.base = snap
	// Retire only what was shipped; Undo/Redo were refused during the
	// flight, so the shipped ops are exactly the oldest len(ops) of the
	// draft.
	s.hist.CommitThrough(len(ops))
	return snap, nil
}

// Rebase adopts a fresh snapshot (typically from a ConflictError) as the
// new base while keeping the local edits, which will replay against it
// on the next Preview or Publish.
func (s *Session) Rebase(snap domain.TimelineSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = snap
	s.loaded = true
}

// Discard drops the draft and reloads the canonical snapshot.
func (s *Session) Discard(ctx context.Context) error {
	return s.Load(ctx)
}
