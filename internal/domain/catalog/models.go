package catalog

import "time"

// UnlimitedAllowance is the sentinel annual allowance meaning "no quota".
const UnlimitedAllowance = 999

type LeaveType struct {
	ID                string    `json:"id"`
	Label             string    `json:"label"`
	Color             string    `json:"color"`
	RequiresApproval  bool      `json:"requiresApproval"`
	AnnualAllowance   int       `json:"annualAllowance"`
	CarryForwardLimit int       `json:"carryForwardLimit"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (t LeaveType) Unlimited() bool {
	return t.AnnualAllowance == UnlimitedAllowance
}
