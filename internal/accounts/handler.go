package accounts

import (
	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// Handler handles user and organization HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an accounts handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// LoginRequest is the body for POST /users/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest is the body for PUT /users/:user_id/password.
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// CreateUser handles POST /users.
func (h *Handler) CreateUser(c *gin.Context) {
	var body CreateUserInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "username and password required")
		return
	}
	response.FromResult(c, h.svc.CreateUser(c.Request.Context(), body))
}

// Login handles POST /users/login. It verifies credentials only.
func (h *Handler) Login(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "username and password required")
		return
	}
	response.FromResult(c, h.svc.Authenticate(c.Request.Context(), body.Username, body.Password))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.GetUser(c.Request.Context(), id))
}

// UpdateUser handles PUT /users/:user_id.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	var body UpdateUserInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	response.FromResult(c, h.svc.UpdateUser(c.Request.Context(), id, body))
}

// ChangePassword handles PUT /users/:user_id/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	var body ChangePasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "password required")
		return
	}
	response.FromResult(c, h.svc.ChangePassword(c.Request.Context(), id, body.Password))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.DeleteUser(c.Request.Context(), id))
}

// CreateOrganization handles POST /organizations.
func (h *Handler) CreateOrganization(c *gin.Context) {
	var body OrganizationInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	response.FromResult(c, h.svc.CreateOrganization(c.Request.Context(), body))
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.GetOrganization(c.Request.Context(), id))
}

// UpdateOrganization handles PUT /organizations/:org_id.
func (h *Handler) UpdateOrganization(c *gin.Context) {
	id, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	var body UpdateOrganizationInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	response.FromResult(c, h.svc.UpdateOrganization(c.Request.Context(), id, body))
}

func (h *Handler) DeleteOrganization(c *gin.Context) {
	id, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.DeleteOrganization(c.Request.Context(), id))
}

// Children handles GET /organizations/:org_id/children. Descendants at every depth are returned.
func (h *Handler) Children(c *gin.Context) {
	id, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Children(c.Request.Context(), id))
}

// ChildIDs handles GET /organizations/:org_id/children/ids.
func (h *Handler) ChildIDs(c *gin.Context) {
	id, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.ChildIDs(c.Request.Context(), id))
}
