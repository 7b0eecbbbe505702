package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRole marks the valid "no row" condition; callers map it to the
// default role rather than an error state.
var ErrNoRole = errors.New("no role assigned")

type StoreAPI interface {
	GetRole(ctx context.Context, userID string) (string, error)
	ListUsersWithRoles(ctx context.Context) ([]UserWithRole, error)
	UpsertRole(ctx context.Context, userID, role, assignedBy string) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, "SELECT role FROM user_roles WHERE user_id = $1", userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoRole
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (s *Store) ListUsersWithRoles(ctx context.Context) ([]UserWithRole, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.user_id, p.email, COALESCE(p.full_name, ''), COALESCE(r.role, 'user')
    FROM user_profiles p
    LEFT JOIN user_roles r ON r.user_id = p.user_id
    ORDER BY p.email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserWithRole
	for rows.Next() {
		var u UserWithRole
		if err := rows.Scan(&u.UserID, &u.Email, &u.FullName, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpsertRole keeps at most one row per user; the backend's upsert resolves
// concurrent writers.
func (s *Store) UpsertRole(ctx context.Context, userID, role, assignedBy string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (user_id, role, assigned_by, assigned_at)
    VALUES ($1,$2,$3,now())
    ON CONFLICT (user_id) DO UPDATE
      SET role = EXCLUDED.role,
          assigned_by = EXCLUDED.assigned_by,
          assigned_at = now()
  `, userID, role, assignedBy)
	return err
}
