package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"vowline/internal/domain"
	"vowline/internal/engine"
)

func registerBudget(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-budget-entry",
		Method:        http.MethodPost,
		Path:          "/weddings/{wedding_id}/budget",
		Summary:       "Add budget entry",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		WeddingID string             `path:"wedding_id"`
		Body      BudgetEntryRequest `json:"body"`
	}) (*struct {
		Body domain.BudgetEntry `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requirePermission(ctx, e, input.WeddingID, "budget.edit"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		entry, err := e.AddBudgetEntry(ctx, input.WeddingID, budgetOptions(input.Body), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BudgetEntry `json:"body"`
		}{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-budget-entry",
		Method:      http.MethodPatch,
		Path:        "/weddings/{wedding_id}/budget/{entry_id}",
		Summary:     "Update budget entry",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		WeddingID string             `path:"wedding_id"`
		EntryID   string             `path:"entry_id"`
		Body      BudgetEntryRequest `json:"body"`
	}) (*struct {
		Body domain.BudgetEntry `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requirePermission(ctx, e, input.WeddingID, "budget.edit"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		entry, err := e.UpdateBudgetEntry(ctx, input.WeddingID, input.EntryID, budgetOptions(input.Body), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BudgetEntry `json:"body"`
		}{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-budget-entry",
		Method:      http.MethodDelete,
		Path:        "/weddings/{wedding_id}/budget/{entry_id}",
		Summary:     "Delete budget entry",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
		EntryID   string `path:"entry_id"`
	}) (*struct{}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "budget.edit"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteBudgetEntry(ctx, input.WeddingID, input.EntryID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-budget-entries",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}/budget",
		Summary:     "List budget entries",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct {
		Body []domain.BudgetEntry `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "budget.read"); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListBudgetEntries(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.BudgetEntry `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "budget-summary",
		Method:      http.MethodGet,
		Path:        "/weddings/{wedding_id}/budget/summary",
		Summary:     "Budget summary by category",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WeddingID string `path:"wedding_id"`
	}) (*struct {
		Body domain.BudgetSummary `json:"body"`
	}, error) {
		if err := requirePermission(ctx, e, input.WeddingID, "budget.read"); err != nil {
			return nil, handleError(err)
		}
		sum, err := e.BudgetSummary(ctx, input.WeddingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BudgetSummary `json:"body"`
		}{Body: sum}, nil
	})
}

func budgetOptions(req BudgetEntryRequest) engine.BudgetEntryOptions {
	return engine.BudgetEntryOptions{
		Category:     req.Category,
		Vendor:       req.Vendor,
		PlannedCents: req.PlannedCents,
		ActualCents:  req.ActualCents,
		Paid:         req.Paid,
		DueDate:      req.DueDate,
		Notes:        req.Notes,
	}
}
