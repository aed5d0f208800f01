package dto

import (
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/user"
)

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// NewUserResponse converts a user
func NewUserResponse(u *user.User, urls URLs) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		URL:         urls.User(u.ID),
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		ActivatedAt: u.ActivatedAt,
	}
}
