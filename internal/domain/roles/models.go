package roles

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type UserRole struct {
	UserID     string    `json:"userId"`
	Role       string    `json:"role"`
	AssignedBy string    `json:"assignedBy"`
	AssignedAt time.Time `json:"assignedAt"`
}

// UserWithRole joins a profile with its at-most-one role row; an absent
// row lists as the default role.
type UserWithRole struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
