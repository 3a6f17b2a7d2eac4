// Package auth provides the capability gate consulted before any write:
// a boolean "may this actor do X on this wedding" check backed by SQL.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ForbiddenError indicates a missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// Service provides role/permission helpers backed by SQL.
type Service struct {
	DB *sql.DB
}

func (s Service) EnsureActor(ctx context.Context, tx *sql.Tx, actorID string) error {
	if actorID == "" {
		return errors.New("actor_id required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO actors(id, created_at) VALUES (?,?)`, actorID, now)
	return err
}

// ActorHasPermission reports whether an actor holds a permission on a
// wedding through any of their member roles.
func (s Service) ActorHasPermission(ctx context.Context, tx *sql.Tx, weddingID, actorID, perm string) (bool, error) {
	row := tx.QueryRowContext(ctx, `
SELECT 1 FROM members m
JOIN role_permissions rp ON rp.role_id=m.role_id
WHERE m.wedding_id=? AND m.actor_id=? AND rp.permission_id=? LIMIT 1`,
		weddingID, actorID, perm)
	var n int
	err := row.Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ActorRoles lists the roles an actor holds on a wedding.
func (s Service) ActorRoles(ctx context.Context, tx *sql.Tx, weddingID, actorID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT role_id FROM members WHERE wedding_id=? AND actor_id=?`, weddingID, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
