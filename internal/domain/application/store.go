package application

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("leave application not found")

type StoreAPI interface {
	Create(ctx context.Context, app Application) (string, error)
	Get(ctx context.Context, id string) (Application, error)
	ListByUser(ctx context.Context, userID string) ([]Application, error)
	UpdateStatus(ctx context.Context, id, status, approverID string) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, app Application) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_applications (user_id, leave_type_id, start_date, end_date, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, app.UserID, app.LeaveTypeID, app.StartDate, app.EndDate, app.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (Application, error) {
	var app Application
	var approvedBy *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, leave_type_id, start_date, end_date, status, approved_by, created_at
    FROM leave_applications
    WHERE id = $1
  `, id).Scan(&app.ID, &app.UserID, &app.LeaveTypeID, &app.StartDate, &app.EndDate, &app.Status, &approvedBy, &app.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}
	if approvedBy != nil {
		app.ApprovedBy = *approvedBy
	}
	return app, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]Application, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, leave_type_id, start_date, end_date, status, COALESCE(approved_by, ''), created_at
    FROM leave_applications
    WHERE user_id = $1
    ORDER BY created_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.UserID, &app.LeaveTypeID, &app.StartDate, &app.EndDate, &app.Status, &app.ApprovedBy, &app.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateStatus fires the leave_applications notify trigger, which feeds
// the change-notification bridge.
func (s *Store) UpdateStatus(ctx context.Context, id, status, approverID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_applications
    SET status = $1, approved_by = $2, updated_at = now()
    WHERE id = $3
  `, status, approverID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
