package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vowline/internal/domain"
	"vowline/internal/events"
)

// BudgetEntryOptions are the caller-settable fields of a budget entry.
// Pointer fields left nil keep their current value on update.
type BudgetEntryOptions struct {
	Category     *string
	Vendor       *string
	PlannedCents *int64
	ActualCents  *int64
	Paid         *bool
	DueDate      *string
	Notes        *string
}

func (e Engine) AddBudgetEntry(ctx context.Context, weddingID string, opts BudgetEntryOptions, actorID string) (domain.BudgetEntry, error) {
	if opts.Category == nil || *opts.Category == "" {
		return domain.BudgetEntry{}, errors.New("category is required")
	}
	if _, err := e.Repo.GetWedding(ctx, weddingID); err != nil {
		return domain.BudgetEntry{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	entry := domain.BudgetEntry{
		ID:        uuid.New().String(),
		WeddingID: weddingID,
		Category:  *opts.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyBudgetOptions(&entry, opts)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.BudgetEntry{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertBudgetEntry(ctx, tx, entry); err != nil {
		return domain.BudgetEntry{}, err
	}
	if err := e.Events.Append(ctx, tx, "budget.entry.added", weddingID, "budget_entry", entry.ID, actorID, events.EventPayload{
		"category":      entry.Category,
		"planned_cents": entry.PlannedCents,
	}); err != nil {
		return domain.BudgetEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.BudgetEntry{}, err
	}
	return entry, nil
}

func (e Engine) UpdateBudgetEntry(ctx context.Context, weddingID, entryID string, opts BudgetEntryOptions, actorID string) (domain.BudgetEntry, error) {
	entry, err := e.Repo.GetBudgetEntry(ctx, weddingID, entryID)
	if err != nil {
		return domain.BudgetEntry{}, err
	}
	applyBudgetOptions(&entry, opts)
	entry.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.BudgetEntry{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateBudgetEntry(ctx, tx, entry); err != nil {
		return domain.BudgetEntry{}, err
	}
	if err := e.Events.Append(ctx, tx, "budget.entry.updated", weddingID, "budget_entry", entry.ID, actorID, nil); err != nil {
		return domain.BudgetEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.BudgetEntry{}, err
	}
	return entry, nil
}

func (e Engine) DeleteBudgetEntry(ctx context.Context, weddingID, entryID, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteBudgetEntry(ctx, tx, weddingID, entryID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "budget.entry.deleted", weddingID, "budget_entry", entryID, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) ListBudgetEntries(ctx context.Context, weddingID string) ([]domain.BudgetEntry, error) {
	if _, err := e.Repo.GetWedding(ctx, weddingID); err != nil {
		return nil, err
	}
	return e.Repo.ListBudgetEntries(ctx, weddingID)
}

func (e Engine) BudgetSummary(ctx context.Context, weddingID string) (domain.BudgetSummary, error) {
	if _, err := e.Repo.GetWedding(ctx, weddingID); err != nil {
		return domain.BudgetSummary{}, err
	}
	return e.Repo.SummarizeBudget(ctx, weddingID)
}

func applyBudgetOptions(entry *domain.BudgetEntry, opts BudgetEntryOptions) {
	if opts.Category != nil {
		entry.Category = *opts.Category
	}
	if opts.Vendor != nil {
		entry.Vendor = *opts.Vendor
	}
	if opts.PlannedCents != nil {
		entry.PlannedCents = *opts.PlannedCents
	}
	if opts.ActualCents != nil {
		entry.ActualCents = *opts.ActualCents
	}
	if opts.Paid != nil {
		entry.Paid = *opts.Paid
	}
	if opts.DueDate != nil {
		entry.DueDate = *opts.DueDate
	}
	if opts.Notes != nil {
		entry.Notes = *opts.Notes
	}
}
