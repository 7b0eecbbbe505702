package balance

import (
	"errors"
	"fmt"

	"leavehub/internal/domain/catalog"
)

var (
	ErrOptionDisabled = errors.New("leave type is not selectable")
	ErrUnknownOption  = errors.New("unknown leave type")
)

// Option is one selectable leave type with its balance summary.
type Option struct {
	LeaveTypeID      string `json:"leaveTypeId"`
	Label            string `json:"label"`
	BalanceText      string `json:"balanceText"`
	RequiresApproval bool   `json:"requiresApproval"`
	Disabled         bool   `json:"disabled"`
}

// Options builds the selector view. Catalog order is preserved as given; a
// type with nothing available is disabled unless it is unlimited.
func Options(types []catalog.LeaveType, balances map[string]Balance) []Option {
	options := make([]Option, 0, len(types))
	for _, t := range types {
		b := balances[t.ID]
		text := fmt.Sprintf("%g/%g", b.Available, b.Allocated)
		if t.Unlimited() {
			text = UnlimitedLabel
		}
		options = append(options, Option{
			LeaveTypeID:      t.ID,
			Label:            t.Label,
			BalanceText:      text,
			RequiresApproval: t.RequiresApproval,
			Disabled:         b.Available <= 0 && !t.Unlimited(),
		})
	}
	return options
}

// Selection tracks the currently chosen option. Selecting a disabled
// option leaves the selection unchanged and reports the rejection.
type Selection struct {
	current string
}

func (s *Selection) Current() string {
	return s.current
}

func (s *Selection) Select(options []Option, leaveTypeID string) error {
	for _, opt := range options {
		if opt.LeaveTypeID != leaveTypeID {
			continue
		}
		if opt.Disabled {
			return ErrOptionDisabled
		}
		s.current = leaveTypeID
		return nil
	}
	return ErrUnknownOption
}
