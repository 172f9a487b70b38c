package relations

import (
	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/pkg/response"
)

// Handler handles relationship toggle endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a relations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Toggle returns a handler that adds (or removes) rel from the :user_id
// path parameter to the target named by targetParam.
func (h *Handler) Toggle(rel models.Relation, targetParam string, add bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := response.IDParam(c, "user_id")
		if !ok {
			return
		}
		targetID, ok := response.IDParam(c, targetParam)
		if !ok {
			return
		}
		if add {
			response.FromResult(c, h.svc.Mark(c.Request.Context(), rel, targetID, userID))
			return
		}
		response.FromResult(c, h.svc.Unmark(c.Request.Context(), rel, targetID, userID))
	}
}

// AddRole handles POST /organizations/:org_id/roles/:role/:user_id.
func (h *Handler) AddRole(c *gin.Context) {
	orgID, userID, ok := orgAndUser(c)
	if !ok {
		return
	}
	response.FromResult(c, h.svc.AddRole(c.Request.Context(), models.Relation(c.Param("role")), orgID, userID))
}

// RemoveRole handles DELETE /organizations/:org_id/roles/:role/:user_id.
func (h *Handler) RemoveRole(c *gin.Context) {
	orgID, userID, ok := orgAndUser(c)
	if !ok {
		return
	}
	response.FromResult(c, h.svc.RemoveRole(c.Request.Context(), models.Relation(c.Param("role")), orgID, userID))
}

func orgAndUser(c *gin.Context) (int64, int64, bool) {
	orgID, ok := response.IDParam(c, "org_id")
	if !ok {
		return 0, 0, false
	}
	userID, ok := response.IDParam(c, "user_id")
	if !ok {
		return 0, 0, false
	}
	return orgID, userID, true
}

// RoleHolders handles GET /organizations/:org_id/roles/:role.
func (h *Handler) RoleHolders(c *gin.Context) {
	orgID, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.RoleHolders(c.Request.Context(), orgID, models.Relation(c.Param("role"))))
}

// UserOrganizations handles GET /users/:user_id/organizations/:role.
func (h *Handler) UserOrganizations(c *gin.Context) {
	userID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.OrganizationsFor(c.Request.Context(), userID, models.Relation(c.Param("role"))))
}

// Followers handles GET /accounts/:account_id/followers.
func (h *Handler) Followers(c *gin.Context) {
	id, ok := response.IDParam(c, "account_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Followers(c.Request.Context(), id))
}

// Following handles GET /users/:user_id/following.
func (h *Handler) Following(c *gin.Context) {
	id, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Following(c.Request.Context(), id))
}
