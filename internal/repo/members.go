package repo

import (
	"context"
	"database/sql"

	"vowline/internal/domain"
)

func (r Repo) EnsureActor(ctx context.Context, tx *sql.Tx, actorID string, now string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO actors(id, created_at) VALUES (?,?)`, actorID, now)
	return err
}

func (r Repo) InsertRole(ctx context.Context, tx *sql.Tx, id, desc string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO roles(id, description) VALUES (?,?)`, id, desc)
	return err
}

func (r Repo) InsertPermission(ctx context.Context, tx *sql.Tx, id, desc string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO permissions(id, description) VALUES (?,?)`, id, desc)
	return err
}

func (r Repo) AddRolePermission(ctx context.Context, tx *sql.Tx, roleID, permID string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO role_permissions(role_id, permission_id) VALUES (?,?)`, roleID, permID)
	return err
}

func (r Repo) AddMember(ctx context.Context, tx *sql.Tx, m domain.Member) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO members(wedding_id, actor_id, role_id, created_at) VALUES (?,?,?,?)`,
		m.WeddingID, m.ActorID, m.Role, m.CreatedAt)
	return err
}

func (r Repo) RemoveMember(ctx context.Context, tx *sql.Tx, weddingID, actorID, roleID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM members WHERE wedding_id=? AND actor_id=? AND role_id=?`, weddingID, actorID, roleID)
	return err
}

func (r Repo) ListMembers(ctx context.Context, weddingID string) ([]domain.Member, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT wedding_id, actor_id, role_id, created_at FROM members WHERE wedding_id=? ORDER BY created_at ASC, actor_id ASC`, weddingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.WeddingID, &m.ActorID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
