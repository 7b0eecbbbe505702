package application

import (
	"errors"
	"fmt"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Application struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	LeaveTypeID string    `json:"leaveTypeId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"`
	ApprovedBy  string    `json:"approvedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Days returns the inclusive day count between start and end.
func Days(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// DateRange formats the span for notification text.
func (a Application) DateRange() string {
	if a.StartDate.Equal(a.EndDate) {
		return a.StartDate.Format("Jan 2, 2006")
	}
	return fmt.Sprintf("%s - %s", a.StartDate.Format("Jan 2"), a.EndDate.Format("Jan 2, 2006"))
}
