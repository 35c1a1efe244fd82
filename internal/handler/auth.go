package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"horizon/internal/apperr"
	"horizon/internal/middleware"
	"horizon/internal/model"
	"horizon/internal/service"
	"horizon/pkg/util"
)

// AuthHandler handles registration, login and session scoping.
type AuthHandler struct {
	auth        *service.AuthService
	users       *service.UserService
	memberships *service.MembershipService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService, memberships *service.MembershipService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, memberships: memberships}
}

// RegisterOwner handles POST /auth/register-owner.
func (h *AuthHandler) RegisterOwner(c *gin.Context) {
	var req model.RegisterOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	result, err := h.auth.RegisterOwner(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse("Registered", result))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Logged in", result))
}

// CompleteSetup handles POST /auth/complete-setup/:token.
func (h *AuthHandler) CompleteSetup(c *gin.Context) {
	var req model.CompleteSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	result, err := h.auth.CompleteSetup(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Account activated", result))
}

// SwitchOrg handles POST /auth/set-active-organization.
func (h *AuthHandler) SwitchOrg(c *gin.Context) {
	var req model.SwitchOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	orgID, err := util.ParseObjectID(req.OrganizationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid organization id", string(apperr.KindValidation)))
		return
	}
	result, err := h.auth.SwitchOrg(c.Request.Context(), middleware.CurrentUser(c), orgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Active organization updated", result))
}

// Me handles GET /auth/me. Reachable by inactive principals so they can see
// their own setup state.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	memberships, err := h.memberships.ListActiveForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	payload := gin.H{
		"user":        user.ToResponse(),
		"memberships": memberships,
	}
	if org := middleware.CurrentOrg(c); org != nil {
		payload["organization"] = org
		payload["role"] = middleware.CurrentRole(c)
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", payload))
}

// UpdatePreferences handles PUT /auth/me/preferences.
func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	var req model.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	user := middleware.CurrentUser(c)
	prefs := model.UserPreferences{
		Theme:              req.Theme,
		Locale:             req.Locale,
		EmailNotifications: req.EmailNotifications,
		InAppNotifications: req.InAppNotifications,
	}
	if err := h.users.UpdatePreferences(c.Request.Context(), user.ID, prefs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Preferences updated", prefs))
}

// RequestPasswordReset handles POST /auth/request-password-reset. The
// response never reveals whether the email exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req model.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	if _, _, err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, model.NewSuccessResponse("If the account exists, a reset link has been issued", nil))
}

// ResetPassword handles POST /auth/reset-password/:token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.CompleteSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	result, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Password updated", result))
}
