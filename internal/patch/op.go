// Package patch defines the vocabulary of timeline mutations exchanged
// between client and server, and the pure draft reducer that previews
// their effect. Ops are immutable value objects; an ordered sequence of
// them is the unit of both a draft and a publish request.
package patch

import (
	"fmt"
	"strings"
	"time"

	"vowline/internal/domain"
)

// Op kinds. Exactly one variant per op; the zero value is invalid.
const (
	KindCreateEvent      = "create_event"
	KindUpdateEventTime  = "update_event_time"
	KindUpdateEventLane  = "update_event_lane"
	KindUpdateEventTitle = "update_event_title"
	KindUpdateEventOwner = "update_event_owner"
	KindDeleteEvent      = "delete_event"
	KindCreateLane       = "create_lane"
	KindUpdateLane       = "update_lane"
	KindDeleteLane       = "delete_lane"
)

// LaneFields carries the partial update for update_lane. Nil fields are
// left untouched.
type LaneFields struct {
	Name      *string          `json:"name,omitempty"`
	Type      *string          `json:"type,omitempty" enum:"photo,ceremony,transport,venue_ops,music,meal,prep,misc"`
	Owner     *domain.OwnerRef `json:"owner,omitempty"`
	SortOrder *int             `json:"sort_order,omitempty"`
}

// Op is the tagged union on the wire: Kind selects the variant and the
// matching payload fields; everything else stays empty. Use the
// constructors below rather than filling the struct by hand.
type Op struct {
	Kind    string           `json:"op" enum:"create_event,update_event_time,update_event_lane,update_event_title,update_event_owner,delete_event,create_lane,update_lane,delete_lane"`
	Event   *domain.Event    `json:"event,omitempty"`
	Lane    *domain.Lane     `json:"lane,omitempty"`
	EventID string           `json:"event_id,omitempty"`
	LaneID  string           `json:"lane_id,omitempty"`
	Start   *time.Time       `json:"start_utc,omitempty" format:"date-time"`
	End     *time.Time       `json:"end_utc,omitempty" format:"date-time"`
	Title   *string          `json:"title,omitempty"`
	Owner   *domain.OwnerRef `json:"owner,omitempty"`
	Fields  *LaneFields      `json:"fields,omitempty"`
}

func CreateEvent(ev domain.Event) Op {
	return Op{Kind: KindCreateEvent, Event: &ev}
}

func UpdateEventTime(eventID string, start, end time.Time) Op {
	return Op{Kind: KindUpdateEventTime, EventID: eventID, Start: &start, End: &end}
}

func UpdateEventLane(eventID, laneID string) Op {
	return Op{Kind: KindUpdateEventLane, EventID: eventID, LaneID: laneID}
}

func UpdateEventTitle(eventID, title string) Op {
	return Op{Kind: KindUpdateEventTitle, EventID: eventID, Title: &title}
}

func UpdateEventOwner(eventID string, owner domain.OwnerRef) Op {
	return Op{Kind: KindUpdateEventOwner, EventID: eventID, Owner: &owner}
}

func DeleteEvent(eventID string) Op {
	return Op{Kind: KindDeleteEvent, EventID: eventID}
}

func CreateLane(l domain.Lane) Op {
	return Op{Kind: KindCreateLane, Lane: &l}
}

func UpdateLane(laneID string, fields LaneFields) Op {
	return Op{Kind: KindUpdateLane, LaneID: laneID, Fields: &fields}
}

func DeleteLane(laneID string) Op {
	return Op{Kind: KindDeleteLane, LaneID: laneID}
}

// CheckShape validates that an op carries the fields its kind requires.
// It is a shape check only; referential checks (does the event exist)
// belong to the authoritative layer.
func (o Op) CheckShape() error {
	switch o.Kind {
	case KindCreateEvent:
		if o.Event == nil {
			return fmt.Errorf("%s: event payload required", o.Kind)
		}
		if o.Event.ID == "" {
			return fmt.Errorf("%s: event id required", o.Kind)
		}
		if o.Event.LaneID == "" {
			return fmt.Errorf("%s: lane_id required", o.Kind)
		}
		if strings.TrimSpace(o.Event.Title) == "" {
			return fmt.Errorf("%s: title required", o.Kind)
		}
	case KindUpdateEventTime:
		if o.EventID == "" {
			return fmt.Errorf("%s: event_id required", o.Kind)
		}
		if o.Start == nil || o.End == nil {
			return fmt.Errorf("%s: start_utc and end_utc required", o.Kind)
		}
	case KindUpdateEventLane:
		if o.EventID == "" || o.LaneID == "" {
			return fmt.Errorf("%s: event_id and lane_id required", o.Kind)
		}
	case KindUpdateEventTitle:
		if o.EventID == "" {
			return fmt.Errorf("%s: event_id required", o.Kind)
		}
		if o.Title == nil || strings.TrimSpace(*o.Title) == "" {
			return fmt.Errorf("%s: title must not be blank", o.Kind)
		}
	case KindUpdateEventOwner:
		if o.EventID == "" {
			return fmt.Errorf("%s: event_id required", o.Kind)
		}
		if o.Owner == nil {
			return fmt.Errorf("%s: owner required", o.Kind)
		}
	case KindDeleteEvent:
		if o.EventID == "" {
			return fmt.Errorf("%s: event_id required", o.Kind)
		}
	case KindCreateLane:
		if o.Lane == nil {
			return fmt.Errorf("%s: lane payload required", o.Kind)
		}
		if o.Lane.ID == "" {
			return fmt.Errorf("%s: lane id required", o.Kind)
		}
		if strings.TrimSpace(o.Lane.Name) == "" {
			return fmt.Errorf("%s: lane name required", o.Kind)
		}
		if !domain.ValidLaneType(o.Lane.Type) {
			return fmt.Errorf("%s: unknown lane type %q", o.Kind, o.Lane.Type)
		}
	case KindUpdateLane:
		if o.LaneID == "" {
			return fmt.Errorf("%s: lane_id required", o.Kind)
		}
		if o.Fields == nil {
			return fmt.Errorf("%s: fields required", o.Kind)
		}
		if o.Fields.Type != nil && !domain.ValidLaneType(*o.Fields.Type) {
			return fmt.Errorf("%s: unknown lane type %q", o.Kind, *o.Fields.Type)
		}
	case KindDeleteLane:
		if o.LaneID == "" {
			return fmt.Errorf("%s: lane_id required", o.Kind)
		}
	default:
		return fmt.Errorf("unknown op kind %q", o.Kind)
	}
	return nil
}

// CheckShapeAll runs CheckShape over a batch, reporting the first failure
// with its index.
func CheckShapeAll(ops []Op) error {
	for i, op := range ops {
		if err := op.CheckShape(); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}
