package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"vowline/internal/engine"
)

func registerWeddings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-wedding",
		Method:        http.MethodPost,
		Path:          "/weddings",
		Summary:       "Create wedding",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateWeddingRequest `json:"body"`
	}) (*struct {
		Body WeddingResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.CoupleNames == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "couple_names is required", nil)
		}
		if input.Body.WeddingDate == "" || input.Body.VenueTimezone == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "wedding_date and venue_timezone are required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.WeddingCreateOptions{
			CoupleNames:   input.Body.CoupleNames,
			WeddingDate:   input.Body.WeddingDate,
			VenueTimezone: input.Body.VenueTimezone,
			VenueName:     stringOrEmpty(input.Body.VenueName),
			ActorID:       actorID,
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		w, err := e.CreateWedding(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WeddingResponse `json:"body"`
		}{Body: weddingResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-weddings",
		Method:      http.MethodGet,
		Path:        "/weddings",
		Summary:     "List weddings",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []WeddingResponse `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListWeddings(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []WeddingResponse `json:"body"`
		}{Body: mapWeddings(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-wedding",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}",
		Summary:     "Get wedding",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct {
		Body WeddingResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "wedding.read"); err != nil {
			return nil, handleError(err)
		}
		w, err := e.Repo.GetWedding(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WeddingResponse `json:"body"`
		}{Body: weddingResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-wedding",
		Method:      http.MethodPatch,
		Path:        "/weddings/{wedding_id}",
		Summary:     "Update wedding",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		WeddingID string               `path:"wedding_id"`
		Body      UpdateWeddingRequest `json:"body"`
	}) (*struct {
		Body WeddingResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requirePermission(ctx, e, input.WeddingID, "wedding.update"); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.UpdateWedding(ctx, input.WeddingID, input.Body.CoupleNames, input.Body.VenueName); err != nil {
			return nil, handleError(err)
		}
		w, err := e.Repo.GetWedding(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WeddingResponse `json:"body"`
		}{Body: weddingResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-wedding",
		Method:      http.MethodDelete,
		Path:        "/weddings/{wedding_id}",
		Summary:     "Delete wedding",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct{}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "wedding.update"); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.DeleteWedding(ctx, input.WeddingID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerMembers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-member",
		Method:        http.MethodPost,
		Path:          "/weddings/{wedding_id}/members",
		Summary:       "Add member",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		WeddingID string           `path:"wedding_id"`
		Body      AddMemberRequest `json:"body"`
	}) (*struct {
		Body MemberResponse `json:"body"`
	}, error) {
		if input.Body.ActorID == "" || input.Body.Role == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id and role are required", nil)
		}
		if err := requirePermission(ctx, e, input.WeddingID, "member.manage"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.AddMember(ctx, input.WeddingID, input.Body.ActorID, input.Body.Role, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MemberResponse `json:"body"`
		}{Body: memberResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}/members",
		Summary:     "List members",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct {
		Body []MemberResponse `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "wedding.read"); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListMembers(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]MemberResponse, 0, len(items))
		for _, m := range items {
			res = append(res, memberResponse(m))
		}
		return &struct {
			Body []MemberResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-member",
		Method:      http.MethodDelete,
		Path:        "/weddings/{wedding_id}/members/{actor_id}/{role}",
		Summary:     "Remove member",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
		ActorID   string `path:"actor_id"`
		Role      string `path:"role"`
	}) (*struct{}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "member.manage"); err != nil {
			return nil, handleError(err)
		}
		tx, err := e.DB.BeginTx(ctx, nil)
		if err != nil {
			return nil, handleError(err)
		}
		defer tx.Rollback()
		if err := e.Repo.RemoveMember(ctx, tx, input.WeddingID, input.ActorID, input.Role); err != nil {
			return nil, handleError(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerLog(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-log",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}/log",
		Summary:     "List audit log",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
		Limit     int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
		Cursor    string `query:"cursor"`
	}) (*struct {
		Body paginatedLog `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "wedding.read"); err != nil {
			return nil, handleError(err)
		}
		items, next, err := e.Repo.ListLog(ctx, input.WeddingID, input.Limit, input.Cursor)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]LogEntryResponse, 0, len(items))
		for _, it := range items {
			res = append(res, logEntryResponse(it))
		}
		return &struct {
			Body paginatedLog `json:"body"`
		}{Body: paginatedLog{Items: res, NextCursor: next}}, nil
	})
}
