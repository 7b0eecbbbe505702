package application

import (
	"context"
	"errors"
	"time"

	"leavehub/internal/domain/balance"
	"leavehub/internal/domain/roles"
)

var (
	ErrNotEligible  = errors.New("no balance available for leave type")
	ErrInvalidState = errors.New("application is not pending")
)

type Service struct {
	store    StoreAPI
	balances *balance.Service
	roles    *roles.Service
}

func NewService(store StoreAPI, balances *balance.Service, rolesSvc *roles.Service) *Service {
	return &Service{store: store, balances: balances, roles: rolesSvc}
}

// Submit creates a pending application after checking the requester can
// still apply for the type in the start date's year.
func (s *Service) Submit(ctx context.Context, userID, leaveTypeID string, start, end time.Time) (string, error) {
	if userID == "" {
		return "", roles.ErrUnauthenticated
	}
	if _, err := Days(start, end); err != nil {
		return "", err
	}

	b, err := s.balances.Get(ctx, userID, leaveTypeID, start.Year(), "")
	if err != nil {
		return "", err
	}
	if !b.CanApply {
		return "", ErrNotEligible
	}

	return s.store.Create(ctx, Application{
		UserID:      userID,
		LeaveTypeID: leaveTypeID,
		StartDate:   start,
		EndDate:     end,
		Status:      StatusPending,
	})
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Application, error) {
	if userID == "" {
		return nil, roles.ErrUnauthenticated
	}
	return s.store.ListByUser(ctx, userID)
}

// Approve resolves a pending application and books the approved days
// against the requester's balance.
func (s *Service) Approve(ctx context.Context, callerID, id string) error {
	app, err := s.resolve(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, id, StatusApproved, callerID); err != nil {
		return err
	}

	days, err := Days(app.StartDate, app.EndDate)
	if err != nil {
		return err
	}
	return s.balances.BookUsage(ctx, app.UserID, app.LeaveTypeID, app.StartDate.Year(), days)
}

func (s *Service) Reject(ctx context.Context, callerID, id string) error {
	if _, err := s.resolve(ctx, callerID, id); err != nil {
		return err
	}
	return s.store.UpdateStatus(ctx, id, StatusRejected, callerID)
}

func (s *Service) resolve(ctx context.Context, callerID, id string) (Application, error) {
	if callerID == "" {
		return Application{}, roles.ErrUnauthenticated
	}
	role, err := s.roles.Current(ctx, callerID)
	if err != nil {
		return Application{}, err
	}
	if role != roles.RoleAdmin {
		return Application{}, roles.ErrForbidden
	}

	app, err := s.store.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Status != StatusPending {
		return Application{}, ErrInvalidState
	}
	return app, nil
}
