package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("leave type not found")

type StoreAPI interface {
	List(ctx context.Context) ([]LeaveType, error)
	Get(ctx context.Context, id string) (LeaveType, error)
	Create(ctx context.Context, payload LeaveType) (string, error)
	Update(ctx context.Context, id string, payload LeaveType) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// List returns the catalog in insertion order; callers rely on it.
func (s *Store) List(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, label, color, requires_approval, annual_allowance, carry_forward_limit, description, created_at
    FROM leave_types
    ORDER BY created_at, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Label, &t.Color, &t.RequiresApproval, &t.AnnualAllowance, &t.CarryForwardLimit, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, label, color, requires_approval, annual_allowance, carry_forward_limit, description, created_at
    FROM leave_types
    WHERE id = $1
  `, id).Scan(&t.ID, &t.Label, &t.Color, &t.RequiresApproval, &t.AnnualAllowance, &t.CarryForwardLimit, &t.Description, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrNotFound
	}
	return t, err
}

func (s *Store) Create(ctx context.Context, payload LeaveType) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (label, color, requires_approval, annual_allowance, carry_forward_limit, description)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, payload.Label, payload.Color, payload.RequiresApproval, payload.AnnualAllowance, payload.CarryForwardLimit, payload.Description).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, id string, payload LeaveType) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_types
    SET label = $1, color = $2, requires_approval = $3, annual_allowance = $4, carry_forward_limit = $5, description = $6
    WHERE id = $7
  `, payload.Label, payload.Color, payload.RequiresApproval, payload.AnnualAllowance, payload.CarryForwardLimit, payload.Description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
