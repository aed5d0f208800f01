package handlers

import (
	"net/http"

	"github.com/serviceinfo/serviceinfo/internal/api/dto"
	"github.com/serviceinfo/serviceinfo/internal/api/middleware"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
)

// UserHandler serves user accounts
type UserHandler struct {
	service user.Service
	urls    dto.URLs
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service user.Service, urls dto.URLs, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		urls:    urls,
		logger:  log,
	}
}

// List returns users. Non-staff callers only see themselves.
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} utils.PaginatedResponse
// @Security BearerAuth
// @Router /api/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetUser(r)
	p := utils.ParsePaginationParams(r)

	if !caller.IsStaff {
		results := []*dto.UserResponse{dto.NewUserResponse(caller, h.urls)}
		utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(results, p, 1))
		return
	}

	users, total, err := h.service.List(r.Context(), p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err, "Failed to list users")
		return
	}

	results := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, dto.NewUserResponse(u, h.urls))
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(results, p, total))
}

// Get returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetUser(r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if !caller.IsStaff && id != caller.ID {
		utils.WriteError(w, errors.NotFound("User"))
		return
	}

	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err, "Failed to get user")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserResponse(u, h.urls))
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserResponse(caller, h.urls))
}
