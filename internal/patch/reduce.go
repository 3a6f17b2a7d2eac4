package patch

import "vowline/internal/domain"

// Apply folds an op sequence over a base snapshot and returns the
// materialized preview. It is the lenient, client-side reducer: ops that
// would fail authoritative validation (unknown ids, duplicate creates)
// are skipped, never raised; the server's strict validator is the only
// arbiter. Later ops observe the effect of earlier ones, so a create
// followed by an update of the same id in one batch behaves as expected.
// Inputs are not mutated.
func Apply(baseEvents []domain.Event, baseLanes []domain.Lane, ops []Op) ([]domain.Event, []domain.Lane) {
	events := make([]domain.Event, len(baseEvents))
	copy(events, baseEvents)
	lanes := make([]domain.Lane, len(baseLanes))
	copy(lanes, baseLanes)

	for _, op := range ops {
		switch op.Kind {
		case KindCreateEvent:
			if op.Event == nil || findEvent(events, op.Event.ID) >= 0 {
				continue
			}
			events = append(events, *op.Event)
		case KindUpdateEventTime:
			i := findEvent(events, op.EventID)
			if i < 0 || op.Start == nil || op.End == nil {
				continue
			}
			events[i].StartUTC = *op.Start
			events[i].EndUTC = *op.End
		case KindUpdateEventLane:
			i := findEvent(events, op.EventID)
			if i < 0 {
				continue
			}
			events[i].LaneID = op.LaneID
		case KindUpdateEventTitle:
			i := findEvent(events, op.EventID)
			if i < 0 || op.Title == nil {
				continue
			}
			events[i].Title = *op.Title
		case KindUpdateEventOwner:
			i := findEvent(events, op.EventID)
			if i < 0 || op.Owner == nil {
				continue
			}
			events[i].Owner = *op.Owner
		case KindDeleteEvent:
			// Idempotent at the draft layer.
			if i := findEvent(events, op.EventID); i >= 0 {
				events = append(events[:i], events[i+1:]...)
			}
		case KindCreateLane:
			if op.Lane == nil || findLane(lanes, op.Lane.ID) >= 0 {
				continue
			}
			lanes = append(lanes, *op.Lane)
		case KindUpdateLane:
			i := findLane(lanes, op.LaneID)
			if i < 0 || op.Fields == nil {
				continue
			}
			f := op.Fields
			if f.Name != nil {
				lanes[i].Name = *f.Name
			}
			if f.Type != nil {
				lanes[i].Type = *f.Type
			}
			if f.Owner != nil {
				lanes[i].Owner = *f.Owner
			}
			if f.SortOrder != nil {
				lanes[i].SortOrder = *f.SortOrder
			}
		case KindDeleteLane:
			i := findLane(lanes, op.LaneID)
			if i < 0 {
				continue
			}
			// Cascade: events in the lane go first, mirroring the
			// authoritative semantics so the preview matches.
			kept := events[:0]
			for _, ev := range events {
				if ev.LaneID != op.LaneID {
					kept = append(kept, ev)
				}
			}
			events = kept
			lanes = append(lanes[:i], lanes[i+1:]...)
		}
	}
	return events, lanes
}

func findEvent(events []domain.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}

func findLane(lanes []domain.Lane, id string) int {
	for i := range lanes {
		if lanes[i].ID == id {
			return i
		}
	}
	return -1
}
