package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tourindo/tourism_api/internal/service"
	"github.com/tourindo/tourism_api/internal/utils"
)

// ActivityHandler exposes the audit trail.
type ActivityHandler struct {
	auditService *service.AuditService
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(auditService *service.AuditService) *ActivityHandler {
	return &ActivityHandler{auditService: auditService}
}

// Recent handles GET /v1/admin/activity
//
// Optional filters: ?adminId= narrows to one actor, ?limit= caps the
// page size.
func (h *ActivityHandler) Recent(c *gin.Context) {
	var adminID *string
	if id := c.Query("adminId"); id != "" {
		adminID = &id
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.Error(c, 400, "INVALID_LIMIT", "Limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.auditService.Recent(c.Request.Context(), adminID, limit)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Activity retrieved", gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}
