package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vowline/internal/config"
	"vowline/internal/db"
	"vowline/internal/domain"
	"vowline/internal/engine"
	"vowline/internal/migrate"
	"vowline/internal/patch"
	"vowline/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.CreateWedding(ctx, engine.WeddingCreateOptions{
		ID:            "wed-1",
		CoupleNames:   "Ada & Grace",
		WeddingDate:   "2026-10-17",
		VenueTimezone: "America/New_York",
		VenueName:     "Harbor House",
		ActorID:       "ada",
	}); err != nil {
		t.Fatalf("create wedding: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func at(hour, min int) time.Time {
	// Inside the 2026-10-17 America/New_York window (07:00Z .. 07:00Z+1d).
	return time.Date(2026, 10, 17, hour, min, 0, 0, time.UTC)
}

func mustPublish(t *testing.T, env testEnv, base int64, ops []patch.Op) domain.TimelineSnapshot {
	t.Helper()
	snap, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", base, ops, "ada")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	return snap
}

func seedLane(t *testing.T, env testEnv) domain.TimelineSnapshot {
	t.Helper()
	return mustPublish(t, env, 1, []patch.Op{
		patch.CreateLane(domain.Lane{ID: "lane-photo", Name: "Photography", Type: domain.LanePhoto}),
	})
}

func TestWeddingStartsAtVersionOne(t *testing.T) {
	env := newTestEnv(t)
	snap, err := env.Engine.GetTimeline(env.Ctx, "wed-1")
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("version = %d, want 1", snap.Version)
	}
	if got := snap.WindowStartUTC; !got.Equal(time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start = %v", got)
	}
	if snap.WindowEndUTC.Sub(snap.WindowStartUTC) != 24*time.Hour {
		t.Fatalf("window length = %v", snap.WindowEndUTC.Sub(snap.WindowStartUTC))
	}
}

func TestPublishIncrementsVersionByOne(t *testing.T) {
	env := newTestEnv(t)
	snap := seedLane(t, env)
	if snap.Version != 2 {
		t.Fatalf("version = %d, want 2", snap.Version)
	}
	snap = mustPublish(t, env, 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-1", LaneID: "lane-photo", Title: "First look", StartUTC: at(14, 0), EndUTC: at(14, 30)}),
	})
	if snap.Version != 3 {
		t.Fatalf("version = %d, want 3", snap.Version)
	}
	if len(snap.Events) != 1 || snap.Events[0].ID != "ev-1" {
		t.Fatalf("events = %+v", snap.Events)
	}
}

func TestStaleBaseYieldsConflictWithSnapshot(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)

	// Both clients forked at version 2. B publishes first.
	mustPublish(t, env, 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-b", LaneID: "lane-photo", Title: "Golden hour portraits", StartUTC: at(21, 0), EndUTC: at(21, 45)}),
	})

	// A's publish against the stale base must be rejected wholesale.
	_, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-a", LaneID: "lane-photo", Title: "Detail shots", StartUTC: at(15, 0), EndUTC: at(15, 30)}),
	}, "ada")
	var conflict engine.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.CurrentVersion != 3 {
		t.Fatalf("current version = %d, want 3", conflict.CurrentVersion)
	}
	if conflict.Snapshot.Version != 3 {
		t.Fatalf("snapshot version = %d", conflict.Snapshot.Version)
	}
	if len(conflict.Snapshot.Events) != 1 || conflict.Snapshot.Events[0].ID != "ev-b" {
		t.Fatalf("conflict snapshot events = %+v", conflict.Snapshot.Events)
	}

	// Canonical state untouched by the failed publish.
	snap, err := env.Engine.GetTimeline(env.Ctx, "wed-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != 3 || len(snap.Events) != 1 {
		t.Fatalf("canonical changed: version=%d events=%d", snap.Version, len(snap.Events))
	}
}

func TestPublishIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)

	// Second op deletes an unknown event; the valid first op must not land.
	_, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-1", LaneID: "lane-photo", Title: "Prep", StartUTC: at(12, 0), EndUTC: at(13, 0)}),
		patch.DeleteEvent("ev-ghost"),
	}, "ada")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	snap, err := env.Engine.GetTimeline(env.Ctx, "wed-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != 2 {
		t.Fatalf("version = %d, want 2 (unchanged)", snap.Version)
	}
	if len(snap.Events) != 0 {
		t.Fatalf("events leaked from failed publish: %+v", snap.Events)
	}
}

func TestPublishSnapsAndClamps(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)

	// 14:00:40 snaps up to 14:01; 14:05:20 snaps down to 14:05.
	snap := mustPublish(t, env, 2, []patch.Op{
		patch.CreateEvent(domain.Event{
			ID: "ev-1", LaneID: "lane-photo", Title: "Rings",
			StartUTC: time.Date(2026, 10, 17, 14, 0, 40, 0, time.UTC),
			EndUTC:   time.Date(2026, 10, 17, 14, 5, 20, 0, time.UTC),
		}),
	})
	ev := snap.Events[0]
	if !ev.StartUTC.Equal(at(14, 1)) || !ev.EndUTC.Equal(at(14, 5)) {
		t.Fatalf("snapped to %v..%v", ev.StartUTC, ev.EndUTC)
	}

	// Interval spilling past the window end gets clamped to it.
	snap = mustPublish(t, env, 3, []patch.Op{
		patch.UpdateEventTime("ev-1",
			time.Date(2026, 10, 18, 6, 30, 0, 0, time.UTC),
			time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)),
	})
	ev = snap.Events[0]
	if !ev.EndUTC.Equal(time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)) {
		t.Fatalf("end not clamped: %v", ev.EndUTC)
	}
}

func TestPublishRejectsIntervalOutsideWindow(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)

	_, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", 2, []patch.Op{
		patch.CreateEvent(domain.Event{
			ID: "ev-1", LaneID: "lane-photo", Title: "Too early",
			StartUTC: time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC),
			EndUTC:   time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC),
		}),
	}, "ada")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.OpIndex != 0 {
		t.Fatalf("op index = %d", ve.OpIndex)
	}
}

func TestLockedEventRejectsMutation(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)
	mustPublish(t, env, 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-1", LaneID: "lane-photo", Title: "Ceremony", StartUTC: at(18, 0), EndUTC: at(18, 30), Locked: true}),
	})

	for _, op := range []patch.Op{
		patch.UpdateEventTime("ev-1", at(19, 0), at(19, 30)),
		patch.UpdateEventTitle("ev-1", "Moved ceremony"),
		patch.DeleteEvent("ev-1"),
	} {
		_, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", 3, []patch.Op{op}, "ada")
		var ve engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s on locked event: err = %v, want ValidationError", op.Kind, err)
		}
	}
}

func TestDuplicateEventIDRejected(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)
	mustPublish(t, env, 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-1", LaneID: "lane-photo", Title: "Toasts", StartUTC: at(20, 0), EndUTC: at(20, 30)}),
	})
	_, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", 3, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-1", LaneID: "lane-photo", Title: "Again", StartUTC: at(21, 0), EndUTC: at(21, 30)}),
	}, "ada")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestDeleteLaneCascadesEvents(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)
	mustPublish(t, env, 2, []patch.Op{
		patch.CreateLane(domain.Lane{ID: "lane-meal", Name: "Dinner", Type: domain.LaneMeal}),
		patch.CreateEvent(domain.Event{ID: "ev-photo", LaneID: "lane-photo", Title: "Portraits", StartUTC: at(15, 0), EndUTC: at(16, 0)}),
		patch.CreateEvent(domain.Event{ID: "ev-dinner", LaneID: "lane-meal", Title: "Dinner service", StartUTC: at(23, 0), EndUTC: at(23, 59)}),
	})

	snap := mustPublish(t, env, 3, []patch.Op{patch.DeleteLane("lane-meal")})
	if len(snap.Lanes) != 1 {
		t.Fatalf("lanes = %+v", snap.Lanes)
	}
	if len(snap.Events) != 1 || snap.Events[0].ID != "ev-photo" {
		t.Fatalf("cascade missed: %+v", snap.Events)
	}
}

func TestCreateThenUpdateInOneBatch(t *testing.T) {
	env := newTestEnv(t)
	seedLane(t, env)
	snap := mustPublish(t, env, 2, []patch.Op{
		patch.CreateEvent(domain.Event{ID: "ev-1", LaneID: "lane-photo", Title: "Draft title", StartUTC: at(10, 0), EndUTC: at(10, 30)}),
		patch.UpdateEventTitle("ev-1", "Final title"),
	})
	if snap.Events[0].Title != "Final title" {
		t.Fatalf("title = %q", snap.Events[0].Title)
	}
}

func TestEmptyPublishLeavesVersionAlone(t *testing.T) {
	env := newTestEnv(t)
	snap, err := env.Engine.PublishTimeline(env.Ctx, "wed-1", 1, nil, "ada")
	if err != nil {
		t.Fatalf("empty publish: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("version = %d, want 1", snap.Version)
	}
	// A stale base is still reported, even with nothing to apply.
	_, err = env.Engine.PublishTimeline(env.Ctx, "wed-1", 7, nil, "ada")
	var conflict engine.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.CurrentVersion != 1 {
		t.Fatalf("current version = %d, want 1", conflict.CurrentVersion)
	}
}

func TestCreateWeddingSeedsEveningBands(t *testing.T) {
	env := newTestEnv(t)
	snap, err := env.Engine.GetTimeline(env.Ctx, "wed-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Bands) != 2 {
		t.Fatalf("bands = %+v", snap.Bands)
	}
	if snap.Bands[0].Type != "golden_hour" || snap.Bands[1].Type != "sunset" {
		t.Fatalf("band types = %s, %s", snap.Bands[0].Type, snap.Bands[1].Type)
	}
	// 18:00 venue-local on 2026-10-17 in America/New_York is 22:00Z.
	want := time.Date(2026, 10, 17, 22, 0, 0, 0, time.UTC)
	if !snap.Bands[0].StartUTC.Equal(want) {
		t.Fatalf("golden hour start = %s, want %s", snap.Bands[0].StartUTC, want)
	}
}

func TestBandsReplacedWholesale(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Engine.SetBands(env.Ctx, "wed-1", []domain.BackgroundBand{
		{Type: "golden_hour", StartUTC: at(21, 30), EndUTC: at(22, 15), Label: "Golden hour"},
	}, "ada"); err != nil {
		t.Fatalf("set bands: %v", err)
	}
	if err := env.Engine.SetBands(env.Ctx, "wed-1", []domain.BackgroundBand{
		{Type: "sunset", StartUTC: at(22, 15), EndUTC: at(22, 45)},
	}, "ada"); err != nil {
		t.Fatal(err)
	}
	snap, err := env.Engine.GetTimeline(env.Ctx, "wed-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Bands) != 1 || snap.Bands[0].Type != "sunset" {
		t.Fatalf("bands = %+v", snap.Bands)
	}
	if snap.Version != 1 {
		t.Fatalf("bands must not bump the version, got %d", snap.Version)
	}
}

func TestBudgetSummary(t *testing.T) {
	env := newTestEnv(t)
	cat := func(s string) *string { return &s }
	cents := func(n int64) *int64 { return &n }
	paid := true
	if _, err := env.Engine.AddBudgetEntry(env.Ctx, "wed-1", engine.BudgetEntryOptions{
		Category: cat("flowers"), PlannedCents: cents(50_000), ActualCents: cents(55_000), Paid: &paid,
	}, "ada"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AddBudgetEntry(env.Ctx, "wed-1", engine.BudgetEntryOptions{
		Category: cat("flowers"), PlannedCents: cents(10_000),
	}, "ada"); err != nil {
		t.Fatal(err)
	}
	sum, err := env.Engine.BudgetSummary(env.Ctx, "wed-1")
	if err != nil {
		t.Fatal(err)
	}
	if sum.PlannedCents != 60_000 || sum.ActualCents != 55_000 || sum.PaidCents != 55_000 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.Categories) != 1 || sum.Categories[0].Entries != 2 {
		t.Fatalf("categories = %+v", sum.Categories)
	}
}

func TestAddMemberUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.AddMember(env.Ctx, "wed-1", "pat", "caterer", "ada"); err == nil {
		t.Fatal("expected unknown role error")
	}
	if _, err := env.Engine.AddMember(env.Ctx, "wed-1", "pat", "planner", "ada"); err != nil {
		t.Fatalf("add planner: %v", err)
	}
}
