package content

import (
	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// Handler handles post and event HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a content handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(c *gin.Context) {
	var body PostInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "author_id required")
		return
	}
	response.FromResult(c, h.svc.CreatePost(c.Request.Context(), body))
}

func (h *Handler) GetPost(c *gin.Context) {
	id, ok := response.IDParam(c, "post_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.GetPost(c.Request.Context(), id))
}

func (h *Handler) UpdatePost(c *gin.Context) {
	id, ok := response.IDParam(c, "post_id")
	if !ok {
		return
	}
	var body UpdatePostInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	response.FromResult(c, h.svc.UpdatePost(c.Request.Context(), id, body))
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := response.IDParam(c, "post_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.DeletePost(c.Request.Context(), id))
}

// UserPosts handles GET /users/:user_id/posts.
func (h *Handler) UserPosts(c *gin.Context) {
	id, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.PostsByAuthor(c.Request.Context(), id))
}

// OrganizationPosts handles GET /organizations/:org_id/posts.
func (h *Handler) OrganizationPosts(c *gin.Context) {
	id, ok := response.IDParam(c, "org_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.PostsByAuthor(c.Request.Context(), id))
}

// CreateEvent handles POST /events. Times are RFC 3339.
func (h *Handler) CreateEvent(c *gin.Context) {
	var body EventInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "author_id, title, start_time and end_time required")
		return
	}
	response.FromResult(c, h.svc.CreateEvent(c.Request.Context(), body))
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := response.IDParam(c, "event_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.GetEvent(c.Request.Context(), id))
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := response.IDParam(c, "event_id")
	if !ok {
		return
	}
	var body UpdateEventInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	response.FromResult(c, h.svc.UpdateEvent(c.Request.Context(), id, body))
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := response.IDParam(c, "event_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.DeleteEvent(c.Request.Context(), id))
}
