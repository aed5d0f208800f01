package provider

import (
	"time"

	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
)

// ProviderType is a lookup value such as "Local NGO" keyed by a stable number
type ProviderType struct {
	ID     int64     `json:"id"`
	Number int       `json:"number"`
	Name   i18n.Text `json:"name"`
}

// String returns the name in English
func (t *ProviderType) String() string {
	return t.Name.EN
}

// DisplayName returns the name in lang, falling back to English
func (t *ProviderType) DisplayName(lang string) string {
	return t.Name.In(lang)
}

// Provider is an organization offering services. Each provider belongs to exactly one user.
type Provider struct {
	ID                           int64     `json:"id"`
	Name                         i18n.Text `json:"name"`
	TypeID                       int64     `json:"type_id"`
	PhoneNumber                  string    `json:"phone_number"`
	Website                      string    `json:"website,omitempty"`
	Description                  i18n.Text `json:"description"`
	Address                      i18n.Text `json:"address"`
	NumberOfMonthlyBeneficiaries *int      `json:"number_of_monthly_beneficiaries,omitempty"`
	UserID                       int64     `json:"user_id"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// String returns the English name
func (p *Provider) String() string {
	return p.Name.EN
}
