package user

import "time"

// User is an account that can sign in to the API. Provider self-registration creates
// inactive users that become active once the activation link is followed.
type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	IsActive      bool       `json:"is_active"`
	IsStaff       bool       `json:"is_staff"`
	IsSuperuser   bool       `json:"is_superuser"`
	ActivationKey string     `json:"-"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ActivationPath is the path component of the user's activation link
func (u *User) ActivationPath() string {
	return "/api/activate/" + u.ActivationKey
}

// APIToken authenticates a user with "Authorization: Token <key>"
type APIToken struct {
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
