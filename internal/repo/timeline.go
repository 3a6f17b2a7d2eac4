package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vowline/internal/domain"
)

// Lanes.

const laneCols = `id,wedding_id,name,type,COALESCE(owner_id,''),COALESCE(owner_type,''),COALESCE(owner_name,''),sort_order`

func (r Repo) InsertLane(ctx context.Context, tx *sql.Tx, l domain.Lane) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO lanes(id,wedding_id,name,type,owner_id,owner_type,owner_name,sort_order) VALUES (?,?,?,?,?,?,?,?)`,
		l.ID, l.WeddingID, l.Name, l.Type, nullable(l.Owner.ID), nullable(l.Owner.Type), nullable(l.Owner.Name), l.SortOrder)
	return err
}

func (r Repo) GetLaneTx(ctx context.Context, tx *sql.Tx, weddingID, id string) (domain.Lane, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+laneCols+` FROM lanes WHERE wedding_id=? AND id=?`, weddingID, id)
	var l domain.Lane
	err := row.Scan(&l.ID, &l.WeddingID, &l.Name, &l.Type, &l.Owner.ID, &l.Owner.Type, &l.Owner.Name, &l.SortOrder)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

func (r Repo) UpdateLane(ctx context.Context, tx *sql.Tx, l domain.Lane) error {
	res, err := tx.ExecContext(ctx, `UPDATE lanes SET name=?,type=?,owner_id=?,owner_type=?,owner_name=?,sort_order=? WHERE wedding_id=? AND id=?`,
		l.Name, l.Type, nullable(l.Owner.ID), nullable(l.Owner.Type), nullable(l.Owner.Name), l.SortOrder, l.WeddingID, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLane removes a lane after cascading its events, all inside the
// caller's transaction.
func (r Repo) DeleteLane(ctx context.Context, tx *sql.Tx, weddingID, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_events WHERE wedding_id=? AND lane_id=?`, weddingID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lanes WHERE wedding_id=? AND id=?`, weddingID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLanes orders by sort_order with id as the tie-breaker, which is the
// display contract.
func (r Repo) ListLanes(ctx context.Context, weddingID string) ([]domain.Lane, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+laneCols+` FROM lanes WHERE wedding_id=? ORDER BY sort_order ASC, id ASC`, weddingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Lane
	for rows.Next() {
		var l domain.Lane
		if err := rows.Scan(&l.ID, &l.WeddingID, &l.Name, &l.Type, &l.Owner.ID, &l.Owner.Type, &l.Owner.Name, &l.SortOrder); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// Timeline events. Instants are stored as RFC3339 UTC strings.

const eventCols = `id,wedding_id,lane_id,title,start_utc,end_utc,category,COALESCE(owner_id,''),COALESCE(owner_type,''),COALESCE(owner_name,''),status,locked,COALESCE(notes,''),COALESCE(location_label,''),lat,lng`

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var ev domain.Event
	var startStr, endStr string
	err := scan(&ev.ID, &ev.WeddingID, &ev.LaneID, &ev.Title, &startStr, &endStr, &ev.Category,
		&ev.Owner.ID, &ev.Owner.Type, &ev.Owner.Name, &ev.Status, &ev.Locked, &ev.Notes, &ev.LocationLabel, &ev.Lat, &ev.Lng)
	if err != nil {
		return ev, err
	}
	if ev.StartUTC, err = time.Parse(time.RFC3339, startStr); err != nil {
		return ev, fmt.Errorf("event %s start_utc: %w", ev.ID, err)
	}
	if ev.EndUTC, err = time.Parse(time.RFC3339, endStr); err != nil {
		return ev, fmt.Errorf("event %s end_utc: %w", ev.ID, err)
	}
	return ev, nil
}

func (r Repo) InsertEvent(ctx context.Context, tx *sql.Tx, ev domain.Event) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO timeline_events(id,wedding_id,lane_id,title,start_utc,end_utc,category,owner_id,owner_type,owner_name,status,locked,notes,location_label,lat,lng)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.WeddingID, ev.LaneID, ev.Title,
		ev.StartUTC.UTC().Format(time.RFC3339), ev.EndUTC.UTC().Format(time.RFC3339),
		ev.Category, nullable(ev.Owner.ID), nullable(ev.Owner.Type), nullable(ev.Owner.Name),
		ev.Status, ev.Locked, nullable(ev.Notes), nullable(ev.LocationLabel), ev.Lat, ev.Lng)
	return err
}

func (r Repo) GetEventTx(ctx context.Context, tx *sql.Tx, weddingID, id string) (domain.Event, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+eventCols+` FROM timeline_events WHERE wedding_id=? AND id=?`, weddingID, id)
	ev, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return ev, ErrNotFound
	}
	return ev, err
}

func (r Repo) UpdateEvent(ctx context.Context, tx *sql.Tx, ev domain.Event) error {
	res, err := tx.ExecContext(ctx, `UPDATE timeline_events SET lane_id=?,title=?,start_utc=?,end_utc=?,category=?,owner_id=?,owner_type=?,owner_name=?,status=?,locked=?,notes=?,location_label=?,lat=?,lng=? WHERE wedding_id=? AND id=?`,
		ev.LaneID, ev.Title,
		ev.StartUTC.UTC().Format(time.RFC3339), ev.EndUTC.UTC().Format(time.RFC3339),
		ev.Category, nullable(ev.Owner.ID), nullable(ev.Owner.Type), nullable(ev.Owner.Name),
		ev.Status, ev.Locked, nullable(ev.Notes), nullable(ev.LocationLabel), ev.Lat, ev.Lng,
		ev.WeddingID, ev.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteEvent(ctx context.Context, tx *sql.Tx, weddingID, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM timeline_events WHERE wedding_id=? AND id=?`, weddingID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListEvents(ctx context.Context, weddingID string) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+eventCols+` FROM timeline_events WHERE wedding_id=? ORDER BY start_utc ASC, id ASC`, weddingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}

// Background bands.

func (r Repo) ReplaceBands(ctx context.Context, tx *sql.Tx, weddingID string, bands []domain.BackgroundBand) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM background_bands WHERE wedding_id=?`, weddingID); err != nil {
		return err
	}
	for _, b := range bands {
		if _, err := tx.ExecContext(ctx, `INSERT INTO background_bands(id,wedding_id,type,start_utc,end_utc,label) VALUES (?,?,?,?,?,?)`,
			b.ID, weddingID, b.Type,
			b.StartUTC.UTC().Format(time.RFC3339), b.EndUTC.UTC().Format(time.RFC3339),
			nullable(b.Label)); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) ListBands(ctx context.Context, weddingID string) ([]domain.BackgroundBand, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,wedding_id,type,start_utc,end_utc,COALESCE(label,'') FROM background_bands WHERE wedding_id=? ORDER BY start_utc ASC, id ASC`, weddingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BackgroundBand
	for rows.Next() {
		var b domain.BackgroundBand
		var startStr, endStr string
		if err := rows.Scan(&b.ID, &b.WeddingID, &b.Type, &startStr, &endStr, &b.Label); err != nil {
			return nil, err
		}
		if b.StartUTC, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("band %s start_utc: %w", b.ID, err)
		}
		if b.EndUTC, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("band %s end_utc: %w", b.ID, err)
		}
		res = append(res, b)
	}
	return res, rows.Err()
}
