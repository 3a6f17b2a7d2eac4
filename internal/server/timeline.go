package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"vowline/internal/domain"
	"vowline/internal/engine"
)

func registerTimeline(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-timeline",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}/timeline",
		Summary:     "Get timeline snapshot",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "timeline.read"); err != nil {
			return nil, handleError(err)
		}
		snap, err := e.GetTimeline(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: timelineResponse(snap)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "publish-timeline",
		Method:      http.MethodPost,
		Path:        "/weddings/{wedding_id}/timeline/publish",
		Summary:     "Publish a batch of timeline ops",
		Description: "Applies the ops atomically against base_version. A stale base yields 409 with the current snapshot in error.details.snapshot.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		WeddingID string                 `path:"wedding_id"`
		Body      PublishTimelineRequest `json:"body"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.BaseVersion < 1 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "base_version is required", nil)
		}
		if err := requirePermission(ctx, e, input.WeddingID, "timeline.edit"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		snap, err := e.PublishTimeline(ctx, input.WeddingID, input.Body.BaseVersion, input.Body.Ops, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: timelineResponse(snap)}, nil
	})
}

func registerBands(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "set-bands",
		Method:      http.MethodPut,
		Path:        "/weddings/{wedding_id}/timeline/bands",
		Summary:     "Replace background bands",
		Description: "Wholesale replacement pushed by the astronomical/venue calculation. Does not bump the timeline version.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		WeddingID string          `path:"wedding_id"`
		Body      SetBandsRequest `json:"body"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "timeline.edit"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		bands := make([]domain.BackgroundBand, 0, len(input.Body.Bands))
		for _, b := range input.Body.Bands {
			bands = append(bands, bandFromRequest(input.WeddingID, b))
		}
		if err := e.SetBands(ctx, input.WeddingID, bands, actorID); err != nil {
			return nil, handleError(err)
		}
		snap, err := e.GetTimeline(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: timelineResponse(snap)}, nil
	})
}
