package balance

// Balance is the derived view of one user's allocation for a leave type
// and year. Available is clamped at zero: an administrative correction can
// push Used past Allocated, and the negative remainder must never reach a
// caller.
type Balance struct {
	UserID      string  `json:"userId"`
	LeaveTypeID string  `json:"leaveTypeId"`
	Year        int     `json:"year"`
	Allocated   float64 `json:"allocated"`
	Used        float64 `json:"used"`
	Available   float64 `json:"available"`
	CanApply    bool    `json:"canApply"`
	Unlimited   bool    `json:"unlimited"`
}

// AdditionalWFH is the variant balance with no fixed allocation. It is
// unlocked externally once the regular monthly quota is exhausted and is
// only ever presented while unlocked.
type AdditionalWFH struct {
	UserID        string  `json:"userId"`
	UsedThisMonth float64 `json:"usedThisMonth"`
	CanApply      bool    `json:"canApply"`
}
