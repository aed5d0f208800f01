package handlers

import (
	"net/http"

	"github.com/serviceinfo/serviceinfo/internal/api/dto"
	"github.com/serviceinfo/serviceinfo/internal/api/middleware"
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
	"github.com/serviceinfo/serviceinfo/internal/pkg/validator"
)

// ProviderHandler serves providers and provider types
type ProviderHandler struct {
	service   provider.Service
	urls      dto.URLs
	logger    *logger.Logger
	validator *validator.Validator
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(service provider.Service, urls dto.URLs, log *logger.Logger, val *validator.Validator) *ProviderHandler {
	return &ProviderHandler{
		service:   service,
		urls:      urls,
		logger:    log,
		validator: val,
	}
}

// List returns a page of providers
// @Summary List providers
// @Tags Providers
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} utils.PaginatedResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/providers [get]
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)

	providers, total, err := h.service.List(r.Context(), p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err, "Failed to list providers")
		return
	}

	results := make([]dto.ProviderResponse, 0, len(providers))
	for _, pr := range providers {
		results = append(results, dto.NewProviderResponse(pr, lang(r), h.urls))
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(results, p, total))
}

// Get returns one provider
// @Summary Get provider
// @Tags Providers
// @Produce json
// @Param id path int true "Provider ID"
// @Success 200 {object} dto.ProviderResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/providers/{id} [get]
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	pr, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, "Failed to get provider")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewProviderResponse(pr, lang(r), h.urls))
}

// Create creates a provider for an existing user. Only staff may name another user.
// @Summary Create provider
// @Tags Providers
// @Accept json
// @Produce json
// @Param request body dto.CreateProviderRequest true "Provider"
// @Success 201 {object} dto.ProviderResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "User already has a provider"
// @Security BearerAuth
// @Router /api/providers [post]
func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetUser(r)

	var req dto.CreateProviderRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	pr := req.ToProvider()
	pr.UserID = caller.ID
	if req.User != 0 && req.User != caller.ID {
		if !caller.IsStaff {
			utils.WriteError(w, errors.Forbidden("You may only create a provider for yourself"))
			return
		}
		pr.UserID = req.User
	}

	if err := h.service.Create(r.Context(), &pr); err != nil {
		utils.WriteErr(w, err, "Failed to create provider")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.NewProviderResponse(&pr, lang(r), h.urls))
}

// Register is the public self-registration endpoint. It creates an inactive user and
// the provider, and emails the activation link.
// @Summary Register provider
// @Tags Providers
// @Accept json
// @Produce json
// @Param request body dto.RegisterProviderRequest true "Provider and account"
// @Success 201 {object} dto.ProviderResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "Email belongs to an activated account"
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/providers/create_provider/ [post]
func (h *ProviderHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterProviderRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	pr, u, err := h.service.Register(r.Context(), provider.Registration{
		Provider: req.ToProvider(),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.WriteErr(w, err, "Failed to register provider")
		return
	}

	middleware.AddLogField(w, "registered_user_id", u.ID)
	utils.WriteSuccess(w, http.StatusCreated, dto.NewProviderResponse(pr, lang(r), h.urls))
}

// ListTypes returns every provider type
// @Summary List provider types
// @Tags Provider types
// @Produce json
// @Param lang query string false "Language (en, ar, fr)"
// @Success 200 {array} dto.ProviderTypeResponse
// @Router /api/providertypes [get]
func (h *ProviderHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		utils.WriteErr(w, err, "Failed to list provider types")
		return
	}

	results := make([]dto.ProviderTypeResponse, 0, len(types))
	for _, t := range types {
		results = append(results, dto.NewProviderTypeResponse(t, lang(r), h.urls))
	}
	utils.WriteSuccess(w, http.StatusOK, results)
}

// GetType returns one provider type
// @Summary Get provider type
// @Tags Provider types
// @Produce json
// @Param id path int true "Provider type ID"
// @Success 200 {object} dto.ProviderTypeResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/providertypes/{id} [get]
func (h *ProviderHandler) GetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetType(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, "Failed to get provider type")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewProviderTypeResponse(t, lang(r), h.urls))
}
