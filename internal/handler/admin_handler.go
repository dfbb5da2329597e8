package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classweek/classweek-api/internal/models"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
	"github.com/classweek/classweek-api/pkg/response"
)

type adminService interface {
	Grant(ctx context.Context, userID, addedBy string) (*models.AdminFlag, error)
	Revoke(ctx context.Context, userID string) error
	List(ctx context.Context) ([]models.AdminFlag, error)
}

// AdminHandler manages the allow-list itself; its routes sit behind the
// admin gate like every other write.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service adminService) *AdminHandler {
	return &AdminHandler{service: service}
}

type grantAdminRequest struct {
	UserID string `json:"user_id"`
}

// List godoc
// @Summary List admin flags
// @Tags Admins
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	flags, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, flags)
}

// Grant godoc
// @Summary Add a user to the admin allow-list
// @Tags Admins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body grantAdminRequest true "User to grant"
// @Success 201 {object} response.Envelope
// @Router /admins [post]
func (h *AdminHandler) Grant(c *gin.Context) {
	var req grantAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	addedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		addedBy = claims.UserID
	}

	flag, err := h.service.Grant(c.Request.Context(), req.UserID, addedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, flag)
}

// Revoke godoc
// @Summary Remove a user from the admin allow-list
// @Tags Admins
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204 {object} nil
// @Router /admins/{id} [delete]
func (h *AdminHandler) Revoke(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		response.Error(c, appErrors.Validation("id", "user id is required"))
		return
	}
	if err := h.service.Revoke(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
