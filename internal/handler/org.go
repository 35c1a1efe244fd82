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

// OrgHandler handles the active organization and its member registry.
type OrgHandler struct {
	orgs        *service.OrgService
	memberships *service.MembershipService
}

func NewOrgHandler(orgs *service.OrgService, memberships *service.MembershipService) *OrgHandler {
	return &OrgHandler{orgs: orgs, memberships: memberships}
}

// Get handles GET /organizations/my.
func (h *OrgHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, model.NewSuccessResponse("", middleware.CurrentOrg(c)))
}

// Update handles PUT /organizations/my.
func (h *OrgHandler) Update(c *gin.Context) {
	var req model.UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	updated, err := h.orgs.Update(c.Request.Context(), org.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Organization updated", updated))
}

// ListMembers handles GET /organizations/my/members.
func (h *OrgHandler) ListMembers(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	members, err := h.memberships.ListOrgMembers(c.Request.Context(), org.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("", members))
}

// ProvisionMember handles POST /organizations/my/members/provision.
func (h *OrgHandler) ProvisionMember(c *gin.Context) {
	var req model.ProvisionMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)
	result, err := h.memberships.Provision(c.Request.Context(), user.ID, org.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse("Member provisioned", result))
}

// ChangeMemberRole handles PUT /organizations/my/members/:principalId/role.
func (h *OrgHandler) ChangeMemberRole(c *gin.Context) {
	targetID, err := util.ParseObjectID(c.Param("principalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid principal id", string(apperr.KindValidation)))
		return
	}
	var req model.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	if err := h.memberships.ChangeRole(c.Request.Context(), org.ID, targetID, req.NewRole); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Role updated", nil))
}

// RemoveMember handles DELETE /organizations/my/members/:principalId.
func (h *OrgHandler) RemoveMember(c *gin.Context) {
	targetID, err := util.ParseObjectID(c.Param("principalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid principal id", string(apperr.KindValidation)))
		return
	}
	org := middleware.CurrentOrg(c)
	if err := h.memberships.Remove(c.Request.Context(), org.ID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Member removed", nil))
}
