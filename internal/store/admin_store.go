package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Admin is an operator allowed onto the /admin routes. A super admin holds
// every role.
type Admin struct {
	UserID  string         `db:"user_id"`
	IsSuper bool           `db:"is_super"`
	Roles   pq.StringArray `db:"roles"`
}

func (a Admin) HasRole(role string) bool {
	if a.IsSuper || role == "" {
		return true
	}
	for _, granted := range a.Roles {
		if granted == role {
			return true
		}
	}
	return false
}

type AdminStore struct {
	db DB
}

func NewAdminStore(db DB) *AdminStore {
	return &AdminStore{db: db}
}

// Lookup returns the admin row for userID. The bool is false when the user is
// not an admin.
func (s *AdminStore) Lookup(ctx context.Context, userID string) (Admin, bool, error) {
	var row Admin
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, is_super, roles
		FROM admins
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Admin{}, false, nil
		}
		return Admin{}, false, err
	}
	return row, true, nil
}

// Upsert creates the admin or merges new roles into an existing one.
func (s *AdminStore) Upsert(ctx context.Context, tx Execer, userID string, isSuper bool, roles []string, createdBy *string) error {
	if roles == nil {
		roles = []string{}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO admins (user_id, is_super, roles, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET is_super = admins.is_super OR EXCLUDED.is_super,
		    roles = ARRAY(SELECT DISTINCT unnest(admins.roles || EXCLUDED.roles))
	`, userID, isSuper, pq.Array(roles), createdBy)
	return err
}

func (s *AdminStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM admins`)
	return count > 0, err
}
