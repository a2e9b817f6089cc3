package domain

import "time"

// Role is a capability level. Roles are ordered: admin > staff > user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleUser  Role = "user"
)

// rank returns the position of r in the capability order. Unknown roles rank 0
// and satisfy no minimum.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleStaff:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// AtLeast reports whether r grants at least the capabilities of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.rank() >= min.rank()
}

// Account is the stored user record consulted at login.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal returns the identity snapshot carried by a session.
func (a *Account) Principal() Principal {
	return Principal{UserID: a.ID, Username: a.Username, Role: a.Role}
}

// Principal models the authenticated actor for the lifetime of a session.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Session binds a session id to the principal as it was at login time.
type Session struct {
	ID        string    `json:"id"`
	Principal Principal `json:"principal"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
