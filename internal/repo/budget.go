package repo

import (
	"context"
	"database/sql"

	"vowline/internal/domain"
)

const budgetCols = `id,wedding_id,category,COALESCE(vendor,''),planned_cents,actual_cents,paid,COALESCE(due_date,''),COALESCE(notes,''),created_at,updated_at`

func (r Repo) InsertBudgetEntry(ctx context.Context, tx *sql.Tx, e domain.BudgetEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO budget_entries(id,wedding_id,category,vendor,planned_cents,actual_cents,paid,due_date,notes,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.WeddingID, e.Category, nullable(e.Vendor), e.PlannedCents, e.ActualCents, e.Paid,
		nullable(e.DueDate), nullable(e.Notes), e.CreatedAt, e.UpdatedAt)
	return err
}

func (r Repo) GetBudgetEntry(ctx context.Context, weddingID, id string) (domain.BudgetEntry, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+budgetCols+` FROM budget_entries WHERE wedding_id=? AND id=?`, weddingID, id)
	var e domain.BudgetEntry
	err := row.Scan(&e.ID, &e.WeddingID, &e.Category, &e.Vendor, &e.PlannedCents, &e.ActualCents, &e.Paid, &e.DueDate, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

func (r Repo) UpdateBudgetEntry(ctx context.Context, tx *sql.Tx, e domain.BudgetEntry) error {
	res, err := tx.ExecContext(ctx, `UPDATE budget_entries SET category=?,vendor=?,planned_cents=?,actual_cents=?,paid=?,due_date=?,notes=?,updated_at=? WHERE wedding_id=? AND id=?`,
		e.Category, nullable(e.Vendor), e.PlannedCents, e.ActualCents, e.Paid, nullable(e.DueDate), nullable(e.Notes), e.UpdatedAt,
		e.WeddingID, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteBudgetEntry(ctx context.Context, tx *sql.Tx, weddingID, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM budget_entries WHERE wedding_id=? AND id=?`, weddingID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListBudgetEntries(ctx context.Context, weddingID string) ([]domain.BudgetEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+budgetCols+` FROM budget_entries WHERE wedding_id=? ORDER BY category ASC, created_at ASC, id ASC`, weddingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BudgetEntry
	for rows.Next() {
		var e domain.BudgetEntry
		if err := rows.Scan(&e.ID, &e.WeddingID, &e.Category, &e.Vendor, &e.PlannedCents, &e.ActualCents, &e.Paid, &e.DueDate, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// SummarizeBudget aggregates planned/actual/paid per category plus the
// wedding totals, in SQL.
func (r Repo) SummarizeBudget(ctx context.Context, weddingID string) (domain.BudgetSummary, error) {
	summary := domain.BudgetSummary{WeddingID: weddingID}
	rows, err := r.DB.QueryContext(ctx, `
SELECT category,
       SUM(planned_cents),
       SUM(actual_cents),
       SUM(CASE WHEN paid THEN actual_cents ELSE 0 END),
       COUNT(*)
FROM budget_entries WHERE wedding_id=?
GROUP BY category ORDER BY category ASC`, weddingID)
	if err != nil {
		return summary, err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.BudgetCategorySummary
		if err := rows.Scan(&c.Category, &c.PlannedCents, &c.ActualCents, &c.PaidCents, &c.Entries); err != nil {
			return summary, err
		}
		summary.Categories = append(summary.Categories, c)
		summary.PlannedCents += c.PlannedCents
		summary.ActualCents += c.ActualCents
		summary.PaidCents += c.PaidCents
	}
	return summary, rows.Err()
}
