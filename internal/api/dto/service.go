package dto

import (
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
)

// ServiceTypeResponse represents a service type
type ServiceTypeResponse struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	Number     int    `json:"number"`
	Name       string `json:"name"`
	NameEN     string `json:"name_en"`
	NameAR     string `json:"name_ar"`
	NameFR     string `json:"name_fr"`
	CommentsEN string `json:"comments_en"`
	CommentsAR string `json:"comments_ar"`
	CommentsFR string `json:"comments_fr"`
}

// NewServiceTypeResponse converts a service type
func NewServiceTypeResponse(t *service.ServiceType, lang string, urls URLs) ServiceTypeResponse {
	return ServiceTypeResponse{
		ID:         t.ID,
		URL:        urls.ServiceType(t.ID),
		Number:     t.Number,
		Name:       t.DisplayName(lang),
		NameEN:     t.Name.EN,
		NameAR:     t.Name.AR,
		NameFR:     t.Name.FR,
		CommentsEN: t.Comments.EN,
		CommentsAR: t.Comments.AR,
		CommentsFR: t.Comments.FR,
	}
}

// ServiceAreaResponse represents a service area with its parent and children
type ServiceAreaResponse struct {
	ID       int64    `json:"id"`
	URL      string   `json:"url"`
	Name     string   `json:"name"`
	NameEN   string   `json:"name_en"`
	NameAR   string   `json:"name_ar"`
	NameFR   string   `json:"name_fr"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
}

// NewServiceAreaResponse converts an area node
func NewServiceAreaResponse(n *area.Node, lang string, urls URLs) ServiceAreaResponse {
	resp := ServiceAreaResponse{
		ID:       n.ID,
		URL:      urls.ServiceArea(n.ID),
		Name:     n.Name.In(lang),
		NameEN:   n.Name.EN,
		NameAR:   n.Name.AR,
		NameFR:   n.Name.FR,
		Children: make([]string, 0, len(n.ChildIDs)),
	}
	if n.ParentID != nil {
		parent := urls.ServiceArea(*n.ParentID)
		resp.Parent = &parent
	}
	for _, id := range n.ChildIDs {
		resp.Children = append(resp.Children, urls.ServiceArea(id))
	}
	return resp
}

// CreateServiceAreaRequest creates a service area
type CreateServiceAreaRequest struct {
	NameEN string `json:"name_en" validate:"required,max=256"`
	NameAR string `json:"name_ar,omitempty" validate:"max=256"`
	NameFR string `json:"name_fr,omitempty" validate:"max=256"`
	Parent *int64 `json:"parent,omitempty" validate:"omitempty,gt=0"`
}

// ToArea converts the request to a domain area
func (r CreateServiceAreaRequest) ToArea() *area.ServiceArea {
	return &area.ServiceArea{
		Name:     i18n.Text{EN: r.NameEN, AR: r.NameAR, FR: r.NameFR},
		ParentID: r.Parent,
	}
}

// ServiceResponse represents a service
type ServiceResponse struct {
	ID            int64     `json:"id"`
	URL           string    `json:"url"`
	Provider      string    `json:"provider"`
	AreaOfService string    `json:"area_of_service"`
	Type          *string   `json:"type"`
	Name          string    `json:"name"`
	NameEN        string    `json:"name_en"`
	NameAR        string    `json:"name_ar"`
	NameFR        string    `json:"name_fr"`
	DescriptionEN string    `json:"description_en"`
	DescriptionAR string    `json:"description_ar"`
	DescriptionFR string    `json:"description_fr"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewServiceResponse converts a service
func NewServiceResponse(s *service.Service, lang string, urls URLs) ServiceResponse {
	resp := ServiceResponse{
		ID:            s.ID,
		URL:           urls.Service(s.ID),
		Provider:      urls.Provider(s.ProviderID),
		AreaOfService: urls.ServiceArea(s.AreaID),
		Name:          s.Name.In(lang),
		NameEN:        s.Name.EN,
		NameAR:        s.Name.AR,
		NameFR:        s.Name.FR,
		DescriptionEN: s.Description.EN,
		DescriptionAR: s.Description.AR,
		DescriptionFR: s.Description.FR,
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.TypeID != nil {
		t := urls.ServiceType(*s.TypeID)
		resp.Type = &t
	}
	return resp
}

// CreateServiceRequest creates a draft service. Provider defaults to the caller's provider.
type CreateServiceRequest struct {
	Provider      int64  `json:"provider,omitempty" validate:"omitempty,gt=0"`
	AreaOfService int64  `json:"area_of_service" validate:"required,gt=0"`
	Type          *int64 `json:"type,omitempty" validate:"omitempty,gt=0"`
	NameEN        string `json:"name_en" validate:"required,max=256"`
	NameAR        string `json:"name_ar,omitempty" validate:"max=256"`
	NameFR        string `json:"name_fr,omitempty" validate:"max=256"`
	DescriptionEN string `json:"description_en,omitempty"`
	DescriptionAR string `json:"description_ar,omitempty"`
	DescriptionFR string `json:"description_fr,omitempty"`
}

// ToService converts the request to a domain service
func (r CreateServiceRequest) ToService() *service.Service {
	return &service.Service{
		ProviderID:  r.Provider,
		AreaID:      r.AreaOfService,
		TypeID:      r.Type,
		Name:        i18n.Text{EN: r.NameEN, AR: r.NameAR, FR: r.NameFR},
		Description: i18n.Text{EN: r.DescriptionEN, AR: r.DescriptionAR, FR: r.DescriptionFR},
	}
}

// SearchResponse lists the services matching a query
type SearchResponse struct {
	Query   string            `json:"query"`
	Count   int               `json:"count"`
	Results []ServiceResponse `json:"results"`
}
