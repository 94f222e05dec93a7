package httpHandler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"wattwise-server/apperr"
	"wattwise-server/entities"
	"wattwise-server/response"
	"wattwise-server/usecases"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	useCase *usecases.ProfileUseCase
}

func NewProfileHandler(useCase *usecases.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		useCase: useCase,
	}
}

// GetMe handles GET /api/v1/users/me
func (h *ProfileHandler) GetMe(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		c.Error(err)
		return
	}

	profile, err := h.useCase.GetProfile(c.Request.Context(), principal.Profile.ID)
	if err != nil {
		c.Error(err)
		return
	}

	response.JSON(c, http.StatusOK, "User profile fetched.", profile)
}

// UpdateMe handles PUT /api/v1/users/me
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		c.Error(err)
		return
	}

	var patch usecases.ProfilePatch
	if err := bindJSON(c, &patch); err != nil {
		c.Error(err)
		return
	}

	profile, err := h.useCase.UpdateProfile(c.Request.Context(), principal.Profile.ID, patch)
	if err != nil {
		c.Error(err)
		return
	}

	response.JSON(c, http.StatusOK, "Profile updated.", profile)
}

type appliancesRequest struct {
	Appliances json.RawMessage `json:"appliances"`
}

// UpdateAppliances handles PUT /api/v1/users/me/appliances
func (h *ProfileHandler) UpdateAppliances(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req appliancesRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	raw := bytes.TrimSpace(req.Appliances)
	if len(raw) == 0 || raw[0] != '[' {
		c.Error(apperr.Validationf("Appliances must be an array."))
		return
	}

	var appliances []entities.Appliance
	if err := json.Unmarshal(raw, &appliances); err != nil {
		c.Error(apperr.Wrap(err, apperr.Validation, "Appliances must be a list of appliance objects."))
		return
	}

	profile, err := h.useCase.ReplaceAppliances(c.Request.Context(), principal.Profile.ID, appliances)
	if err != nil {
		c.Error(err)
		return
	}

	response.JSON(c, http.StatusOK, "Appliances updated.", profile)
}
