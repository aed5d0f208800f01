package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/metrics"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
)

// ActivationHandler handles activation links
type ActivationHandler struct {
	users       user.Service
	redirectURL string
	logger      *logger.Logger
}

// NewActivationHandler creates a new activation handler. redirectURL is where the
// browser lands after following a link.
func NewActivationHandler(users user.Service, redirectURL string, log *logger.Logger) *ActivationHandler {
	return &ActivationHandler{
		users:       users,
		redirectURL: redirectURL,
		logger:      log,
	}
}

// Activate activates the account owning the key and redirects
// @Summary Activate account
// @Tags Auth
// @Param key path string true "Activation key"
// @Success 302 "Redirect to the activation landing page"
// @Failure 404 {object} utils.ErrorResponse "Unknown activation key"
// @Router /api/activate/{key} [get]
func (h *ActivationHandler) Activate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	u, changed, err := h.users.Activate(r.Context(), key)
	if err != nil {
		if errors.IsNotFound(err) {
			metrics.RecordActivation("unknown")
		}
		utils.WriteErr(w, err, "Failed to activate account")
		return
	}

	outcome := "replayed"
	if changed {
		outcome = "activated"
	}
	metrics.RecordActivation(outcome)
	h.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"outcome": outcome,
	}).Info("Activation link followed")

	http.Redirect(w, r, h.redirectURL, http.StatusFound)
}
