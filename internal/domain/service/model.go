package service

import (
	"time"

	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
)

// Status is the approval state of a service
type Status string

const (
	StatusDraft    Status = "draft"
	StatusCurrent  Status = "current"
	StatusRejected Status = "rejected"
	StatusCanceled Status = "canceled"
	StatusArchived Status = "archived"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusCurrent, StatusRejected, StatusCanceled, StatusArchived:
		return true
	}
	return false
}

// ServiceType is a lookup value such as "Health" keyed by a stable number
type ServiceType struct {
	ID       int64     `json:"id"`
	Number   int       `json:"number"`
	Name     i18n.Text `json:"name"`
	Comments i18n.Text `json:"comments"`
}

// String returns the name in English
func (t *ServiceType) String() string {
	return t.Name.EN
}

// DisplayName returns the name in lang, falling back to English
func (t *ServiceType) DisplayName(lang string) string {
	return t.Name.In(lang)
}

// Service is something a provider offers within one service area
type Service struct {
	ID          int64     `json:"id"`
	ProviderID  int64     `json:"provider_id"`
	AreaID      int64     `json:"area_of_service_id"`
	TypeID      *int64    `json:"type_id,omitempty"`
	Name        i18n.Text `json:"name"`
	Description i18n.Text `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// String returns the English name
func (s *Service) String() string {
	return s.Name.EN
}
