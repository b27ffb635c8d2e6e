package staff

import "time"

const (
	RoleStaff      = "staff"
	RoleManager    = "manager"
	RoleSuperAdmin = "super_admin"
)

type Staff struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id,omitempty"` // empty for super_admin
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is what the auth middleware hands to handlers: who is acting and
// which restaurant they may see.
type Session struct {
	Token        string    `json:"token"`
	StaffID      string    `json:"staff_id"`
	RestaurantID string    `json:"restaurant_id,omitempty"`
	Role         string    `json:"role"`
	ExpiresAt    time.Time `json:"expires_at"`
}
