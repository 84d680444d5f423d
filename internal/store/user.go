package store

import (
	"context"

	"clinic-booking/internal/model"
)

const userColumns = `id, username, email, password_hash, is_active, created_at`

func scanUser(row scanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
}

// CreateUser inserts an inactive account. A clash on username or email
// surfaces as model.ErrDuplicateUser.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3)
		 RETURNING id, is_active, created_at`,
		u.Username, u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.IsActive, &u.CreatedAt)
	return classify("store.CreateUser", err)
}

func (s *Store) UserExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		email, username,
	).Scan(&exists)
	return exists, classify("store.UserExists", err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err := scanUser(row, u); err != nil {
		return nil, classify("store.UserByEmail", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, active bool) ([]model.User, error) {
	const op = "store.ListUsers"
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active = $1 ORDER BY created_at, id`, active)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, classify(op, err)
		}
		out = append(out, u)
	}
	return out, classify(op, rows.Err())
}

func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	return classify("store.SetUserActive", err)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return classify("store.DeleteUser", err)
}
