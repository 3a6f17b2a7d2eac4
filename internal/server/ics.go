package server

import (
	"context"
	"fmt"
	"net/http"

	ical "github.com/arran4/golang-ical"
	"github.com/danielgtaylor/huma/v2"

	"vowline/internal/domain"
	"vowline/internal/engine"
)

// registerICS exposes the timeline as an iCalendar feed so the couple
// and vendors can subscribe from their own calendar apps.
func registerICS(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "export-timeline-ics",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}/timeline.ics",
		Summary:     "Export timeline as iCalendar",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct {
		ContentType string `header:"Content-Type"`
		Body        []byte `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "timeline.read"); err != nil {
			return nil, handleError(err)
		}
		w, err := e.Repo.GetWedding(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		snap, err := e.GetTimeline(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType string `header:"Content-Type"`
			Body        []byte `json:"body"`
		}{
			ContentType: "text/calendar; charset=utf-8",
			Body:        []byte(TimelineICS(w, snap)),
		}, nil
	})
}

// TimelineICS renders a snapshot as an iCalendar document. Shared with
// the CLI export command.
func TimelineICS(w domain.Wedding, snap domain.TimelineSnapshot) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//vowline//timeline//EN")
	cal.SetName(fmt.Sprintf("%s wedding timeline", w.CoupleNames))

	laneNames := make(map[string]string, len(snap.Lanes))
	for _, l := range snap.Lanes {
		laneNames[l.ID] = l.Name
	}

	for _, ev := range snap.Events {
		// Sequence tracks the snapshot version so re-imports supersede
		// earlier publishes of the same event.
		ve := cal.AddEvent(fmt.Sprintf("%s@%s.vowline", ev.ID, w.ID))
		ve.SetSequence(int(snap.Version))
		ve.SetStartAt(ev.StartUTC)
		ve.SetEndAt(ev.EndUTC)
		ve.SetSummary(ev.Title)
		if name, ok := laneNames[ev.LaneID]; ok {
			ve.SetDescription(name)
		}
		if ev.LocationLabel != "" {
			ve.SetLocation(ev.LocationLabel)
		}
		if ev.Lat != nil && ev.Lng != nil {
			ve.SetGeo(*ev.Lat, *ev.Lng)
		}
		if ev.Status == "confirmed" {
			ve.SetStatus(ical.ObjectStatusConfirmed)
		} else {
			ve.SetStatus(ical.ObjectStatusTentative)
		}
	}
	return cal.Serialize()
}
