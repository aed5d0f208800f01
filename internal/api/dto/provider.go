package dto

import (
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
)

// ProviderTypeResponse represents a provider type. Name is localized to the request language.
type ProviderTypeResponse struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Number int    `json:"number"`
	Name   string `json:"name"`
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
	NameFR string `json:"name_fr"`
}

// NewProviderTypeResponse converts a provider type
func NewProviderTypeResponse(t *provider.ProviderType, lang string, urls URLs) ProviderTypeResponse {
	return ProviderTypeResponse{
		ID:     t.ID,
		URL:    urls.ProviderType(t.ID),
		Number: t.Number,
		Name:   t.DisplayName(lang),
		NameEN: t.Name.EN,
		NameAR: t.Name.AR,
		NameFR: t.Name.FR,
	}
}

// ProviderResponse represents a provider in API responses
type ProviderResponse struct {
	ID                           int64  `json:"id"`
	URL                          string `json:"url"`
	Name                         string `json:"name"`
	NameEN                       string `json:"name_en"`
	NameAR                       string `json:"name_ar"`
	NameFR                       string `json:"name_fr"`
	Type                         string `json:"type"`
	TypeID                       int64  `json:"type_id"`
	PhoneNumber                  string `json:"phone_number"`
	Website                      string `json:"website"`
	DescriptionEN                string `json:"description_en"`
	DescriptionAR                string `json:"description_ar"`
	DescriptionFR                string `json:"description_fr"`
	AddressEN                    string `json:"address_en"`
	AddressAR                    string `json:"address_ar"`
	AddressFR                    string `json:"address_fr"`
	NumberOfMonthlyBeneficiaries *int   `json:"number_of_monthly_beneficiaries"`
	User                         string `json:"user"`
	UserID                       int64  `json:"user_id"`
}

// NewProviderResponse converts a provider
func NewProviderResponse(p *provider.Provider, lang string, urls URLs) ProviderResponse {
	return ProviderResponse{
		ID:                           p.ID,
		URL:                          urls.Provider(p.ID),
		Name:                         p.Name.In(lang),
		NameEN:                       p.Name.EN,
		NameAR:                       p.Name.AR,
		NameFR:                       p.Name.FR,
		Type:                         urls.ProviderType(p.TypeID),
		TypeID:                       p.TypeID,
		PhoneNumber:                  p.PhoneNumber,
		Website:                      p.Website,
		DescriptionEN:                p.Description.EN,
		DescriptionAR:                p.Description.AR,
		DescriptionFR:                p.Description.FR,
		AddressEN:                    p.Address.EN,
		AddressAR:                    p.Address.AR,
		AddressFR:                    p.Address.FR,
		NumberOfMonthlyBeneficiaries: p.NumberOfMonthlyBeneficiaries,
		User:                         urls.User(p.UserID),
		UserID:                       p.UserID,
	}
}

// ProviderFields are the writable provider attributes
type ProviderFields struct {
	NameEN                       string `json:"name_en" validate:"required,max=256"`
	NameAR                       string `json:"name_ar,omitempty" validate:"max=256"`
	NameFR                       string `json:"name_fr,omitempty" validate:"max=256"`
	Type                         int64  `json:"type" validate:"required,gt=0"`
	PhoneNumber                  string `json:"phone_number" validate:"required,phone"`
	Website                      string `json:"website,omitempty" validate:"omitempty,url,max=200"`
	DescriptionEN                string `json:"description_en,omitempty"`
	DescriptionAR                string `json:"description_ar,omitempty"`
	DescriptionFR                string `json:"description_fr,omitempty"`
	AddressEN                    string `json:"address_en,omitempty"`
	AddressAR                    string `json:"address_ar,omitempty"`
	AddressFR                    string `json:"address_fr,omitempty"`
	NumberOfMonthlyBeneficiaries *int   `json:"number_of_monthly_beneficiaries,omitempty" validate:"omitempty,gte=0"`
}

// ToProvider converts the fields to a domain provider
func (f ProviderFields) ToProvider() provider.Provider {
	return provider.Provider{
		Name:                         i18n.Text{EN: f.NameEN, AR: f.NameAR, FR: f.NameFR},
		TypeID:                       f.Type,
		PhoneNumber:                  f.PhoneNumber,
		Website:                      f.Website,
		Description:                  i18n.Text{EN: f.DescriptionEN, AR: f.DescriptionAR, FR: f.DescriptionFR},
		Address:                      i18n.Text{EN: f.AddressEN, AR: f.AddressAR, FR: f.AddressFR},
		NumberOfMonthlyBeneficiaries: f.NumberOfMonthlyBeneficiaries,
	}
}

// CreateProviderRequest creates a provider for an existing user. User defaults to the caller.
type CreateProviderRequest struct {
	ProviderFields
	User int64 `json:"user,omitempty" validate:"omitempty,gt=0"`
}

// RegisterProviderRequest is the public self-registration payload
type RegisterProviderRequest struct {
	ProviderFields
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
