package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tourindo/tourism_api/internal/middleware"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/service"
	"github.com/tourindo/tourism_api/internal/utils"
)

// AdminHandler handles admin directory, approval, hierarchy and
// invitation HTTP endpoints.
type AdminHandler struct {
	directoryService  *service.DirectoryService
	approvalService   *service.ApprovalService
	hierarchyService  *service.HierarchyService
	invitationService *service.InvitationService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(
	directoryService *service.DirectoryService,
	approvalService *service.ApprovalService,
	hierarchyService *service.HierarchyService,
	invitationService *service.InvitationService,
) *AdminHandler {
	return &AdminHandler{
		directoryService:  directoryService,
		approvalService:   approvalService,
		hierarchyService:  hierarchyService,
		invitationService: invitationService,
	}
}

// ListPending handles GET /v1/admin/registrations/pending
func (h *AdminHandler) ListPending(c *gin.Context) {
	pending, err := h.directoryService.ListPending(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Pending registrations retrieved", gin.H{
		"registrations": pending,
		"total":         len(pending),
	})
}

// Approve handles POST /v1/admin/registrations/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	approved, err := h.approvalService.Approve(c.Request.Context(), c.Param("id"), admin.ID)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Registration approved", approved)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /v1/admin/registrations/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.approvalService.Reject(c.Request.Context(), c.Param("id"), admin.ID, req.Reason); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Registration rejected", nil)
}

// ListOrganizationAdmins handles GET /v1/admin/organizations
func (h *AdminHandler) ListOrganizationAdmins(c *gin.Context) {
	admins, err := h.directoryService.ListOrganizationAdmins(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Organization admins retrieved", gin.H{
		"admins": admins,
		"total":  len(admins),
	})
}

// DeleteOrganizationAdmin handles DELETE /v1/admin/organizations/:id
//
// Removes the organization admin together with every staff member under
// it. The count of removed staff comes back so the dashboard can report
// the cascade.
func (h *AdminHandler) DeleteOrganizationAdmin(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	result, err := h.hierarchyService.DeleteOrganizationAdmin(c.Request.Context(), c.Param("id"), admin.ID)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Organization admin deleted", result)
}

// ListStaff handles GET /v1/admin/staff
//
// An organization admin sees its own staff. A super admin may pass
// ?parentId= to inspect any organization.
func (h *AdminHandler) ListStaff(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	parentID := admin.ID
	if requested := c.Query("parentId"); requested != "" && requested != admin.ID {
		if admin.Role != models.RoleSuperAdmin {
			utils.Fail(c, utils.ErrNotAuthorized)
			return
		}
		parentID = requested
	}

	staff, err := h.directoryService.ListStaff(c.Request.Context(), parentID)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Staff retrieved", gin.H{
		"staff": staff,
		"total": len(staff),
	})
}

type inviteStaffRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// InviteStaff handles POST /v1/admin/staff/invite
func (h *AdminHandler) InviteStaff(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	var req inviteStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.invitationService.InviteStaff(c.Request.Context(), admin.ID, admin.ID, req.Email, req.FullName)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	// The temporary password appears in this response and nowhere else.
	utils.Success(c, 201, "Staff member invited", result)
}

// DeleteStaff handles DELETE /v1/admin/staff/:id
func (h *AdminHandler) DeleteStaff(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	if err := h.hierarchyService.DeleteStaffMember(c.Request.Context(), c.Param("id"), admin.ID); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Staff member deleted", nil)
}
