package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vowline/internal/config"
	"vowline/internal/domain"
	"vowline/internal/engine/auth"
	"vowline/internal/events"
	"vowline/internal/patch"
	"vowline/internal/repo"
	"vowline/internal/window"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Auth   auth.Service
	Config *config.Config
	Now    func() time.Time
	// locks serializes publish per wedding; the pointer survives the
	// value copies the Engine is passed around by.
	locks *lockRegistry
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Auth:   auth.Service{DB: db},
		Config: cfg,
		Now:    time.Now,
		locks:  newLockRegistry(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: map[string]*sync.Mutex{}}
}

func (r *lockRegistry) forKey(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}

// WeddingCreateOptions are parameters for creating a wedding.
type WeddingCreateOptions struct {
	ID            string
	CoupleNames   string
	WeddingDate   string
	VenueTimezone string
	VenueName     string
	ActorID       string
}

// CreateWedding initializes a wedding with timeline version 1, seeds the
// configured roles/permissions, and enrolls the creating actor as couple.
func (e Engine) CreateWedding(ctx context.Context, opts WeddingCreateOptions) (domain.Wedding, error) {
	if e.Config == nil {
		return domain.Wedding{}, errors.New("config not loaded")
	}
	if opts.CoupleNames == "" {
		return domain.Wedding{}, errors.New("couple names are required")
	}
	// Window computation doubles as date/timezone validation.
	win, err := e.windowFor(opts.WeddingDate, opts.VenueTimezone)
	if err != nil {
		return domain.Wedding{}, err
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := e.now().UTC().Format(time.RFC3339)
	w := domain.Wedding{
		ID:              id,
		CoupleNames:     opts.CoupleNames,
		WeddingDate:     opts.WeddingDate,
		VenueTimezone:   opts.VenueTimezone,
		VenueName:       opts.VenueName,
		TimelineVersion: 1,
		CreatedAt:       now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wedding{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertWedding(ctx, tx, w); err != nil {
		return domain.Wedding{}, fmt.Errorf("insert wedding: %w", err)
	}
	if err := e.seedRoles(ctx, tx); err != nil {
		return domain.Wedding{}, err
	}
	if err := e.Repo.ReplaceBands(ctx, tx, w.ID, defaultEveningBands(w, win)); err != nil {
		return domain.Wedding{}, fmt.Errorf("seed bands: %w", err)
	}
	if opts.ActorID != "" {
		if err := e.Repo.EnsureActor(ctx, tx, opts.ActorID, now); err != nil {
			return domain.Wedding{}, err
		}
		if err := e.Repo.AddMember(ctx, tx, domain.Member{WeddingID: w.ID, ActorID: opts.ActorID, Role: "couple", CreatedAt: now}); err != nil {
			return domain.Wedding{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, "wedding.created", w.ID, "wedding", w.ID, opts.ActorID, events.EventPayload{
		"couple_names": w.CoupleNames,
		"wedding_date": w.WeddingDate,
	}); err != nil {
		return domain.Wedding{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Wedding{}, err
	}
	return w, nil
}

// defaultEveningBands places placeholder golden-hour and sunset bands on
// the wedding evening. They are rough venue-local estimates; an external
// astronomy tool replaces them wholesale through SetBands.
func defaultEveningBands(w domain.Wedding, win window.Window) []domain.BackgroundBand {
	loc, err := time.LoadLocation(w.VenueTimezone)
	if err != nil {
		return nil
	}
	day, err := time.ParseInLocation("2006-01-02", w.WeddingDate, loc)
	if err != nil {
		return nil
	}
	y, m, d := day.Date()
	local := func(h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, loc).UTC()
	}
	bands := []domain.BackgroundBand{
		{ID: uuid.New().String(), WeddingID: w.ID, Type: "golden_hour", Label: "Golden hour", StartUTC: local(18, 0), EndUTC: local(19, 0)},
		{ID: uuid.New().String(), WeddingID: w.ID, Type: "sunset", Label: "Sunset", StartUTC: local(19, 0), EndUTC: local(19, 30)},
	}
	out := bands[:0]
	for _, b := range bands {
		if b.StartUTC.Before(win.Start) || b.EndUTC.After(win.End) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (e Engine) seedRoles(ctx context.Context, tx *sql.Tx) error {
	for roleID, role := range e.Config.RBAC.Roles {
		if err := e.Repo.InsertRole(ctx, tx, roleID, role.Description); err != nil {
			return err
		}
		for _, perm := range role.Permissions {
			if err := e.Repo.InsertPermission(ctx, tx, perm, ""); err != nil {
				return err
			}
			if err := e.Repo.AddRolePermission(ctx, tx, roleID, perm); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddMember enrolls an actor on a wedding with a configured role.
func (e Engine) AddMember(ctx context.Context, weddingID, actorID, roleID, byActorID string) (domain.Member, error) {
	if e.Config == nil {
		return domain.Member{}, errors.New("config not loaded")
	}
	if _, ok := e.Config.RBAC.Roles[roleID]; !ok {
		return domain.Member{}, fmt.Errorf("unknown role %s", roleID)
	}
	if _, err := e.Repo.GetWedding(ctx, weddingID); err != nil {
		return domain.Member{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	m := domain.Member{WeddingID: weddingID, ActorID: actorID, Role: roleID, CreatedAt: now}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Member{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.EnsureActor(ctx, tx, actorID, now); err != nil {
		return domain.Member{}, err
	}
	if err := e.Repo.AddMember(ctx, tx, m); err != nil {
		return domain.Member{}, err
	}
	if err := e.Events.Append(ctx, tx, "member.added", weddingID, "member", actorID, byActorID, events.EventPayload{"role": roleID}); err != nil {
		return domain.Member{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

func (e Engine) windowStartHour() int {
	if e.Config != nil && e.Config.Timeline.WindowStartHour > 0 {
		return e.Config.Timeline.WindowStartHour
	}
	return window.DefaultStartHour
}

func (e Engine) windowFor(weddingDate, tz string) (window.Window, error) {
	return window.Compute(weddingDate, tz, e.windowStartHour())
}

func (e Engine) minEventDuration() time.Duration {
	if e.Config != nil && e.Config.Timeline.MinDurationMinutes > 0 {
		return time.Duration(e.Config.Timeline.MinDurationMinutes) * time.Minute
	}
	return window.MinDuration
}

// GetTimeline returns the canonical snapshot: lanes, events, bands, the
// current version and the computed window bounds. No side effects.
func (e Engine) GetTimeline(ctx context.Context, weddingID string) (domain.TimelineSnapshot, error) {
	w, err := e.Repo.GetWedding(ctx, weddingID)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	return e.snapshotOf(ctx, w)
}

func (e Engine) snapshotOf(ctx context.Context, w domain.Wedding) (domain.TimelineSnapshot, error) {
	win, err := e.windowFor(w.WeddingDate, w.VenueTimezone)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	lanes, err := e.Repo.ListLanes(ctx, w.ID)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	evs, err := e.Repo.ListEvents(ctx, w.ID)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	bands, err := e.Repo.ListBands(ctx, w.ID)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	if lanes == nil {
		lanes = []domain.Lane{}
	}
	if evs == nil {
		evs = []domain.Event{}
	}
	if bands == nil {
		bands = []domain.BackgroundBand{}
	}
	return domain.TimelineSnapshot{
		WeddingID:      w.ID,
		Version:        w.TimelineVersion,
		WeddingDate:    w.WeddingDate,
		VenueTimezone:  w.VenueTimezone,
		WindowStartUTC: win.Start,
		WindowEndUTC:   win.End,
		Lanes:          lanes,
		Events:         evs,
		Bands:          bands,
	}, nil
}

// PublishTimeline is the write path of the reconciliation protocol. It
// serializes concurrent publishes per wedding, compares baseVersion
// against the canonical version, applies every op transactionally with
// strict validation, and increments the version by exactly one. Any
// failure leaves canonical state untouched; a stale base yields a
// ConflictError carrying the fresh snapshot. An empty batch is a
// version-checked read: it never bumps the version.
func (e Engine) PublishTimeline(ctx context.Context, weddingID string, baseVersion int64, ops []patch.Op, actorID string) (domain.TimelineSnapshot, error) {
	if e.Config == nil {
		return domain.TimelineSnapshot{}, errors.New("config not loaded")
	}
	if err := patch.CheckShapeAll(ops); err != nil {
		return domain.TimelineSnapshot{}, ValidationError{OpIndex: -1, Reason: err.Error()}
	}
	lock := e.locks.forKey(weddingID)
	lock.Lock()
	defer lock.Unlock()

	w, err := e.Repo.GetWedding(ctx, weddingID)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}

	// An empty batch has nothing to reconcile: report staleness, but
	// never bump the version just to force everyone else to rebase.
	if len(ops) == 0 {
		snap, err := e.snapshotOf(ctx, w)
		if err != nil {
			return domain.TimelineSnapshot{}, err
		}
		if baseVersion != w.TimelineVersion {
			return domain.TimelineSnapshot{}, ConflictError{CurrentVersion: w.TimelineVersion, Snapshot: snap}
		}
		return snap, nil
	}

	win, err := e.windowFor(w.WeddingDate, w.VenueTimezone)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	defer tx.Rollback()

	// Compare-and-increment first: a stale base never gets to touch
	// canonical rows.
	ok, err := e.Repo.BumpTimelineVersion(ctx, tx, weddingID, baseVersion)
	if err != nil {
		return domain.TimelineSnapshot{}, err
	}
	if !ok {
		tx.Rollback()
		fresh, err := e.GetTimeline(ctx, weddingID)
		if err != nil {
			return domain.TimelineSnapshot{}, err
		}
		return domain.TimelineSnapshot{}, ConflictError{CurrentVersion: fresh.Version, Snapshot: fresh}
	}

	for i, op := range ops {
		if err := e.applyOp(ctx, tx, weddingID, win, op); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.TimelineSnapshot{}, fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
			}
			var ve ValidationError
			if errors.As(err, &ve) {
				ve.OpIndex = i
				return domain.TimelineSnapshot{}, ve
			}
			return domain.TimelineSnapshot{}, fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
	}

	if err := e.Events.Append(ctx, tx, "timeline.published", weddingID, "timeline", weddingID, actorID, events.EventPayload{
		"base_version": baseVersion,
		"new_version":  baseVersion + 1,
		"op_count":     len(ops),
	}); err != nil {
		return domain.TimelineSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TimelineSnapshot{}, err
	}
	w.TimelineVersion = baseVersion + 1
	return e.snapshotOf(ctx, w)
}

// applyOp runs one op against canonical state with the strict, per-op
// validation the draft layer deliberately skips.
func (e Engine) applyOp(ctx context.Context, tx *sql.Tx, weddingID string, win window.Window, op patch.Op) error {
	switch op.Kind {
	case patch.KindCreateEvent:
		ev := *op.Event
		ev.WeddingID = weddingID
		if _, err := e.Repo.GetEventTx(ctx, tx, weddingID, ev.ID); err == nil {
			return ValidationError{Reason: fmt.Sprintf("duplicate event id %s", ev.ID)}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if _, err := e.Repo.GetLaneTx(ctx, tx, weddingID, ev.LaneID); err != nil {
			return fmt.Errorf("lane %s: %w", ev.LaneID, err)
		}
		start, end, err := window.Normalize(win, ev.StartUTC, ev.EndUTC, e.minEventDuration())
		if err != nil {
			return ValidationError{Reason: err.Error()}
		}
		ev.StartUTC, ev.EndUTC = start, end
		if ev.Status == "" {
			ev.Status = "tentative"
		}
		return e.Repo.InsertEvent(ctx, tx, ev)

	case patch.KindUpdateEventTime:
		ev, err := e.Repo.GetEventTx(ctx, tx, weddingID, op.EventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", op.EventID, err)
		}
		if ev.Locked {
			return ValidationError{Reason: fmt.Sprintf("event %s is locked", ev.ID)}
		}
		start, end, err := window.Normalize(win, *op.Start, *op.End, e.minEventDuration())
		if err != nil {
			return ValidationError{Reason: err.Error()}
		}
		ev.StartUTC, ev.EndUTC = start, end
		return e.Repo.UpdateEvent(ctx, tx, ev)

	case patch.KindUpdateEventLane:
		ev, err := e.Repo.GetEventTx(ctx, tx, weddingID, op.EventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", op.EventID, err)
		}
		if ev.Locked {
			return ValidationError{Reason: fmt.Sprintf("event %s is locked", ev.ID)}
		}
		if _, err := e.Repo.GetLaneTx(ctx, tx, weddingID, op.LaneID); err != nil {
			return fmt.Errorf("lane %s: %w", op.LaneID, err)
		}
		ev.LaneID = op.LaneID
		return e.Repo.UpdateEvent(ctx, tx, ev)

	case patch.KindUpdateEventTitle:
		ev, err := e.Repo.GetEventTx(ctx, tx, weddingID, op.EventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", op.EventID, err)
		}
		if ev.Locked {
			return ValidationError{Reason: fmt.Sprintf("event %s is locked", ev.ID)}
		}
		ev.Title = *op.Title
		return e.Repo.UpdateEvent(ctx, tx, ev)

	case patch.KindUpdateEventOwner:
		ev, err := e.Repo.GetEventTx(ctx, tx, weddingID, op.EventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", op.EventID, err)
		}
		if ev.Locked {
			return ValidationError{Reason: fmt.Sprintf("event %s is locked", ev.ID)}
		}
		ev.Owner = *op.Owner
		return e.Repo.UpdateEvent(ctx, tx, ev)

	case patch.KindDeleteEvent:
		// Unlike the draft layer, deleting an unknown id here fails the
		// whole batch.
		ev, err := e.Repo.GetEventTx(ctx, tx, weddingID, op.EventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", op.EventID, err)
		}
		if ev.Locked {
			return ValidationError{Reason: fmt.Sprintf("event %s is locked", ev.ID)}
		}
		return e.Repo.DeleteEvent(ctx, tx, weddingID, op.EventID)

	case patch.KindCreateLane:
		l := *op.Lane
		l.WeddingID = weddingID
		if _, err := e.Repo.GetLaneTx(ctx, tx, weddingID, l.ID); err == nil {
			return ValidationError{Reason: fmt.Sprintf("duplicate lane id %s", l.ID)}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		return e.Repo.InsertLane(ctx, tx, l)

	case patch.KindUpdateLane:
		l, err := e.Repo.GetLaneTx(ctx, tx, weddingID, op.LaneID)
		if err != nil {
			return fmt.Errorf("lane %s: %w", op.LaneID, err)
		}
		f := op.Fields
		if f.Name != nil {
			l.Name = *f.Name
		}
		if f.Type != nil {
			l.Type = *f.Type
		}
		if f.Owner != nil {
			l.Owner = *f.Owner
		}
		if f.SortOrder != nil {
			l.SortOrder = *f.SortOrder
		}
		return e.Repo.UpdateLane(ctx, tx, l)

	case patch.KindDeleteLane:
		if _, err := e.Repo.GetLaneTx(ctx, tx, weddingID, op.LaneID); err != nil {
			return fmt.Errorf("lane %s: %w", op.LaneID, err)
		}
		return e.Repo.DeleteLane(ctx, tx, weddingID, op.LaneID)
	}
	return ValidationError{Reason: fmt.Sprintf("unknown op kind %q", op.Kind)}
}

// SetBands replaces a wedding's background bands wholesale. Bands are
// decoration computed outside the reconciliation core (astronomical and
// venue data); they do not participate in versioning.
func (e Engine) SetBands(ctx context.Context, weddingID string, bands []domain.BackgroundBand, actorID string) error {
	if _, err := e.Repo.GetWedding(ctx, weddingID); err != nil {
		return err
	}
	for i := range bands {
		if bands[i].ID == "" {
			bands[i].ID = uuid.New().String()
		}
		bands[i].WeddingID = weddingID
		if !bands[i].EndUTC.After(bands[i].StartUTC) {
			return ValidationError{OpIndex: -1, Reason: fmt.Sprintf("band %s: end must be after start", bands[i].ID)}
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.ReplaceBands(ctx, tx, weddingID, bands); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "timeline.bands.set", weddingID, "timeline", weddingID, actorID, events.EventPayload{"count": len(bands)}); err != nil {
		return err
	}
	return tx.Commit()
}
