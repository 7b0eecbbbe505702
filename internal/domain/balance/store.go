package balance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StoreAPI interface {
	GetAllocation(ctx context.Context, userID, leaveTypeID string, year int) (allocated, used float64, err error)
	GetAdditionalWFH(ctx context.Context, userID string) (AdditionalWFH, bool, error)
	BookUsage(ctx context.Context, userID, leaveTypeID string, year int, days float64) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// GetAllocation treats an absent row as a valid never-allocated state.
func (s *Store) GetAllocation(ctx context.Context, userID, leaveTypeID string, year int) (float64, float64, error) {
	var allocated, used float64
	err := s.DB.QueryRow(ctx, `
    SELECT allocated, used
    FROM leave_balances
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
  `, userID, leaveTypeID, year).Scan(&allocated, &used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return allocated, used, nil
}

func (s *Store) GetAdditionalWFH(ctx context.Context, userID string) (AdditionalWFH, bool, error) {
	var out AdditionalWFH
	err := s.DB.QueryRow(ctx, `
    SELECT user_id, used_this_month, can_apply
    FROM additional_wfh_balances
    WHERE user_id = $1
  `, userID).Scan(&out.UserID, &out.UsedThisMonth, &out.CanApply)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdditionalWFH{}, false, nil
	}
	if err != nil {
		return AdditionalWFH{}, false, err
	}
	return out, true, nil
}

// BookUsage upserts on the (user, type, year) uniqueness; conflicts are
// resolved by the backend, not by application locking.
func (s *Store) BookUsage(ctx context.Context, userID, leaveTypeID string, year int, days float64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (user_id, leave_type_id, year, allocated, used)
    VALUES ($1,$2,$3,0,$4)
    ON CONFLICT (user_id, leave_type_id, year)
      DO UPDATE SET used = leave_balances.used + EXCLUDED.used, updated_at = now()
  `, userID, leaveTypeID, year, days)
	return err
}
