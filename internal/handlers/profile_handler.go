package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type ProfileHandler struct {
	BaseHandler
	service services.ProfileService
}

func NewProfileHandler(service services.ProfileService, logger utils.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetProfile returns the caller's profile, creating it on first access
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies the non-null fields of the request
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req models.ProfileUpdateRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	profile, err := h.service.Update(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UploadAvatar stores the multipart "avatar" file and links it to the profile
// @Accept multipart/form-data
// @Router /profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Avatar file is required", err.Error())
		return
	}
	if header.Size > services.MaxAvatarSize {
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Avatar exceeds the 5MB limit", nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unable to read avatar file", err.Error())
		return
	}
	defer file.Close()

	h.LogRequest(c, "Uploading avatar", "size", header.Size)

	profile, err := h.service.UploadAvatar(c.Request.Context(), userID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
