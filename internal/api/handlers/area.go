package handlers

import (
	"net/http"

	"github.com/serviceinfo/serviceinfo/internal/api/dto"
	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
	"github.com/serviceinfo/serviceinfo/internal/pkg/validator"
)

// AreaHandler serves the service area hierarchy
type AreaHandler struct {
	service   area.Service
	urls      dto.URLs
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAreaHandler creates a new area handler
func NewAreaHandler(service area.Service, urls dto.URLs, log *logger.Logger, val *validator.Validator) *AreaHandler {
	return &AreaHandler{
		service:   service,
		urls:      urls,
		logger:    log,
		validator: val,
	}
}

// List returns a page of service areas
// @Summary List service areas
// @Tags Service areas
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Param lang query string false "Language (en, ar, fr)"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/serviceareas [get]
func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)

	nodes, total, err := h.service.List(r.Context(), p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err, "Failed to list service areas")
		return
	}

	results := make([]dto.ServiceAreaResponse, 0, len(nodes))
	for _, n := range nodes {
		results = append(results, dto.NewServiceAreaResponse(n, lang(r), h.urls))
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(results, p, total))
}

// Get returns one service area with its parent and children
// @Summary Get service area
// @Tags Service areas
// @Produce json
// @Param id path int true "Service area ID"
// @Success 200 {object} dto.ServiceAreaResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/serviceareas/{id} [get]
func (h *AreaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, "Failed to get service area")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewServiceAreaResponse(n, lang(r), h.urls))
}

// Create adds a service area
// @Summary Create service area
// @Tags Service areas
// @Accept json
// @Produce json
// @Param request body dto.CreateServiceAreaRequest true "Service area"
// @Success 201 {object} dto.ServiceAreaResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/serviceareas [post]
func (h *AreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateServiceAreaRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	a := req.ToArea()
	if err := h.service.Create(r.Context(), a); err != nil {
		utils.WriteErr(w, err, "Failed to create service area")
		return
	}

	n, err := h.service.Get(r.Context(), a.ID)
	if err != nil {
		utils.WriteErr(w, err, "Failed to load service area")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.NewServiceAreaResponse(n, lang(r), h.urls))
}
