package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vowline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const weddingCols = `id,couple_names,wedding_date,venue_timezone,COALESCE(venue_name,'') AS venue_name,timeline_version,created_at`

func scanWedding(row *sql.Row) (domain.Wedding, error) {
	var w domain.Wedding
	err := row.Scan(&w.ID, &w.CoupleNames, &w.WeddingDate, &w.VenueTimezone, &w.VenueName, &w.TimelineVersion, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	return w, err
}

func (r Repo) InsertWedding(ctx context.Context, tx *sql.Tx, w domain.Wedding) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO weddings(id,couple_names,wedding_date,venue_timezone,venue_name,timeline_version,created_at) VALUES (?,?,?,?,?,?,?)`,
		w.ID, w.CoupleNames, w.WeddingDate, w.VenueTimezone, nullable(w.VenueName), w.TimelineVersion, w.CreatedAt)
	return err
}

func (r Repo) GetWedding(ctx context.Context, id string) (domain.Wedding, error) {
	return scanWedding(r.DB.QueryRowContext(ctx, `SELECT `+weddingCols+` FROM weddings WHERE id=?`, id))
}

func (r Repo) GetWeddingTx(ctx context.Context, tx *sql.Tx, id string) (domain.Wedding, error) {
	return scanWedding(tx.QueryRowContext(ctx, `SELECT `+weddingCols+` FROM weddings WHERE id=?`, id))
}

// SingleWedding returns the only wedding in the workspace, erroring when
// there are zero or several.
func (r Repo) SingleWedding(ctx context.Context) (domain.Wedding, error) {
	items, err := r.ListWeddings(ctx)
	if err != nil {
		return domain.Wedding{}, err
	}
	if len(items) == 0 {
		return domain.Wedding{}, ErrNotFound
	}
	if len(items) > 1 {
		return domain.Wedding{}, fmt.Errorf("multiple weddings exist; specify --wedding")
	}
	return items[0], nil
}

func (r Repo) ListWeddings(ctx context.Context) ([]domain.Wedding, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+weddingCols+` FROM weddings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Wedding
	for rows.Next() {
		var w domain.Wedding
		if err := rows.Scan(&w.ID, &w.CoupleNames, &w.WeddingDate, &w.VenueTimezone, &w.VenueName, &w.TimelineVersion, &w.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

// BumpTimelineVersion performs the compare-and-increment at the heart of
// the optimistic-concurrency protocol: the update only lands when the
// stored version still equals baseVersion. Returns false on a stale base.
func (r Repo) BumpTimelineVersion(ctx context.Context, tx *sql.Tx, weddingID string, baseVersion int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE weddings SET timeline_version=timeline_version+1 WHERE id=? AND timeline_version=?`,
		weddingID, baseVersion)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r Repo) UpdateWedding(ctx context.Context, id string, coupleNames, venueName *string) error {
	var (
		fields []string
		args   []any
	)
	if coupleNames != nil {
		fields = append(fields, "couple_names=?")
		args = append(args, *coupleNames)
	}
	if venueName != nil {
		fields = append(fields, "venue_name=?")
		args = append(args, nullable(*venueName))
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE weddings SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteWedding(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM weddings WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Audit log queries.

func (r Repo) ListLog(ctx context.Context, weddingID string, limit int, cursor string) ([]domain.LogEntry, string, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if weddingID != "" {
		clauses = append(clauses, "wedding_id=?")
		args = append(args, weddingID)
	}
	if cursor != "" {
		cursorID, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor")
		}
		clauses = append(clauses, "id < ?")
		args = append(args, cursorID)
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,COALESCE(wedding_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var res []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.WeddingID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, "", err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(res) == limit {
		next = strconv.FormatInt(res[len(res)-1].ID, 10)
	}
	return res, next, nil
}

// EventsAfter returns log entries with id greater than the cursor, oldest
// first, for the webhook dispatcher.
func (r Repo) EventsAfter(ctx context.Context, limit int, afterID int64, weddingID string) ([]domain.LogEntry, error) {
	clauses := []string{"id > ?"}
	args := []any{afterID}
	if weddingID != "" {
		clauses = append(clauses, "wedding_id=?")
		args = append(args, weddingID)
	}
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id,ts,type,COALESCE(wedding_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.WeddingID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the highest log id, optionally scoped to one
// wedding. Zero when the log is empty.
func (r Repo) LatestEventID(ctx context.Context, weddingID string) (int64, error) {
	query := `SELECT COALESCE(MAX(id), 0) FROM events`
	var args []any
	if weddingID != "" {
		query += ` WHERE wedding_id=?`
		args = append(args, weddingID)
	}
	var id int64
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
