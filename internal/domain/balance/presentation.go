package balance

import (
	"fmt"

	"leavehub/internal/domain/catalog"
)

// UnlimitedLabel is rendered verbatim for sentinel allowances; a computed
// ratio is never shown for them.
const UnlimitedLabel = "Unlimited"

type RenderState int

const (
	StateLoading RenderState = iota
	StateError
	StateHidden
	StateCard
)

// CardState maps a fetch outcome to exactly one render state. Hidden covers
// both an absent balance and an ineligible one.
func CardState(loading bool, err error, b *Balance) RenderState {
	switch {
	case loading:
		return StateLoading
	case err != nil:
		return StateError
	case b == nil || !b.CanApply:
		return StateHidden
	default:
		return StateCard
	}
}

// Card is the populated view model for one leave-type balance.
type Card struct {
	LeaveTypeID   string  `json:"leaveTypeId"`
	Label         string  `json:"label"`
	Color         string  `json:"color"`
	Description   string  `json:"description"`
	Available     float64 `json:"available"`
	Allocated     float64 `json:"allocated"`
	AllowanceText string  `json:"allowanceText"`
}

func NewCard(t catalog.LeaveType, b Balance) Card {
	available := b.Available
	if available < 0 {
		available = 0
	}
	text := fmt.Sprintf("%g/%g", available, b.Allocated)
	if t.Unlimited() {
		text = UnlimitedLabel
	}
	return Card{
		LeaveTypeID:   t.ID,
		Label:         t.Label,
		Color:         t.Color,
		Description:   t.Description,
		Available:     available,
		Allocated:     b.Allocated,
		AllowanceText: text,
	}
}
