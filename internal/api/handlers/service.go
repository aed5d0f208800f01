package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/serviceinfo/serviceinfo/internal/api/dto"
	"github.com/serviceinfo/serviceinfo/internal/api/middleware"
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
	"github.com/serviceinfo/serviceinfo/internal/pkg/validator"
)

// ServiceHandler serves services, service types and search
type ServiceHandler struct {
	service   service.Manager
	providers provider.Service
	search    search.Service
	urls      dto.URLs
	logger    *logger.Logger
	validator *validator.Validator
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(
	svc service.Manager,
	providers provider.Service,
	searchSvc search.Service,
	urls dto.URLs,
	log *logger.Logger,
	val *validator.Validator,
) *ServiceHandler {
	return &ServiceHandler{
		service:   svc,
		providers: providers,
		search:    searchSvc,
		urls:      urls,
		logger:    log,
		validator: val,
	}
}

// List returns services visible to the caller. Staff see all services; everyone else
// sees the services of their own provider.
// @Summary List services
// @Tags Services
// @Produce json
// @Param status query string false "Filter by status (draft, current, rejected, canceled, archived)"
// @Param provider query int false "Filter by provider (staff only)"
// @Param area_of_service query int false "Filter by service area"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} utils.PaginatedResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/services [get]
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetUser(r)
	p := utils.ParsePaginationParams(r)
	q := r.URL.Query()

	filter := service.Filter{Status: service.Status(q.Get("status"))}
	if v := q.Get("area_of_service"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid area_of_service"))
			return
		}
		filter.AreaID = id
	}

	if caller.IsStaff {
		if v := q.Get("provider"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				utils.WriteError(w, errors.BadRequest("Invalid provider"))
				return
			}
			filter.ProviderID = id
		}
	} else {
		own, err := h.providers.GetByUser(r.Context(), caller.ID)
		if err != nil {
			if errors.IsNotFound(err) {
				utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse([]dto.ServiceResponse{}, p, 0))
				return
			}
			utils.WriteErr(w, err, "Failed to list services")
			return
		}
		filter.ProviderID = own.ID
	}

	services, total, err := h.service.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err, "Failed to list services")
		return
	}

	results := make([]dto.ServiceResponse, 0, len(services))
	for _, s := range services {
		results = append(results, dto.NewServiceResponse(s, lang(r), h.urls))
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(results, p, total))
}

// Get returns one service
// @Summary Get service
// @Tags Services
// @Produce json
// @Param id path int true "Service ID"
// @Success 200 {object} dto.ServiceResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/services/{id} [get]
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, "Failed to get service")
		return
	}
	if !h.visible(r, s) {
		utils.WriteError(w, errors.NotFound("Service"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewServiceResponse(s, lang(r), h.urls))
}

// Create adds a draft service. Non-staff callers create services for their own provider.
// @Summary Create service
// @Tags Services
// @Accept json
// @Produce json
// @Param request body dto.CreateServiceRequest true "Service"
// @Success 201 {object} dto.ServiceResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/services [post]
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetUser(r)

	var req dto.CreateServiceRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	s := req.ToService()
	if !caller.IsStaff {
		own, err := h.providers.GetByUser(r.Context(), caller.ID)
		if err != nil {
			if errors.IsNotFound(err) {
				utils.WriteError(w, errors.Forbidden("You must register a provider before adding services"))
				return
			}
			utils.WriteErr(w, err, "Failed to create service")
			return
		}
		if s.ProviderID != 0 && s.ProviderID != own.ID {
			utils.WriteError(w, errors.Forbidden("You may only add services to your own provider"))
			return
		}
		s.ProviderID = own.ID
	} else if s.ProviderID == 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", []validator.ValidationError{
			{Field: "provider", Tag: "required", Message: "provider is required"},
		}))
		return
	}

	if err := h.service.Create(r.Context(), s); err != nil {
		utils.WriteErr(w, err, "Failed to create service")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.NewServiceResponse(s, lang(r), h.urls))
}

// Approve makes a draft service current
// @Summary Approve service
// @Tags Services
// @Produce json
// @Param id path int true "Service ID"
// @Success 200 {object} dto.ServiceResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "Service is not a draft"
// @Security BearerAuth
// @Router /api/services/{id}/approve [post]
func (h *ServiceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve, "Failed to approve service")
}

// Reject marks a draft service rejected
// @Summary Reject service
// @Tags Services
// @Produce json
// @Param id path int true "Service ID"
// @Success 200 {object} dto.ServiceResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "Service is not a draft"
// @Security BearerAuth
// @Router /api/services/{id}/reject [post]
func (h *ServiceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject, "Failed to reject service")
}

func (h *ServiceHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id int64) (*service.Service, error),
	failure string,
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s, err := fn(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, failure)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewServiceResponse(s, lang(r), h.urls))
}

// Search returns current services matching every word of q
// @Summary Search services
// @Tags Services
// @Produce json
// @Param q query string true "Search terms"
// @Param limit query int false "Maximum results (max 100)"
// @Param lang query string false "Language (en, ar, fr)"
// @Success 200 {object} dto.SearchResponse
// @Router /api/services/search [get]
func (h *ServiceHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ids, err := h.search.Search(r.Context(), query, limit)
	if err != nil {
		utils.WriteErr(w, err, "Search failed")
		return
	}

	results := make([]dto.ServiceResponse, 0, len(ids))
	for _, id := range ids {
		s, err := h.service.Get(r.Context(), id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			utils.WriteErr(w, err, "Search failed")
			return
		}
		if s.Status != service.StatusCurrent {
			continue
		}
		results = append(results, dto.NewServiceResponse(s, lang(r), h.urls))
	}

	utils.WriteSuccess(w, http.StatusOK, dto.SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

// ListTypes returns every service type
// @Summary List service types
// @Tags Service types
// @Produce json
// @Param lang query string false "Language (en, ar, fr)"
// @Success 200 {array} dto.ServiceTypeResponse
// @Router /api/servicetypes [get]
func (h *ServiceHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		utils.WriteErr(w, err, "Failed to list service types")
		return
	}

	results := make([]dto.ServiceTypeResponse, 0, len(types))
	for _, t := range types {
		results = append(results, dto.NewServiceTypeResponse(t, lang(r), h.urls))
	}
	utils.WriteSuccess(w, http.StatusOK, results)
}

// GetType returns one service type
// @Summary Get service type
// @Tags Service types
// @Produce json
// @Param id path int true "Service type ID"
// @Success 200 {object} dto.ServiceTypeResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/servicetypes/{id} [get]
func (h *ServiceHandler) GetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetType(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, "Failed to get service type")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewServiceTypeResponse(t, lang(r), h.urls))
}

// visible reports whether the caller may see s
func (h *ServiceHandler) visible(r *http.Request, s *service.Service) bool {
	caller, ok := middleware.GetUser(r)
	if !ok {
		return false
	}
	if caller.IsStaff {
		return true
	}
	own, err := h.providers.GetByUser(r.Context(), caller.ID)
	return err == nil && own.ID == s.ProviderID
}
