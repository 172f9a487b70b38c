package comments

import (
	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// DefaultPageSize applies when a listing omits limit.
const DefaultPageSize = 20

// Handler handles comment endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a comments handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// WriteRequest is the body for creating a comment or reply.
type WriteRequest struct {
	AuthorID int64  `json:"author_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
	ParentID int64  `json:"parent_id"`
}

// UpdateRequest is the body for PUT /comments/:comment_id.
type UpdateRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create handles POST /posts/:post_id/comments.
func (h *Handler) Create(c *gin.Context) {
	postID, ok := response.IDParam(c, "post_id")
	if !ok {
		return
	}
	var body WriteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "author_id and content required")
		return
	}
	response.FromResult(c, h.svc.Create(c.Request.Context(), CreateInput{
		PostID:   postID,
		ParentID: body.ParentID,
		AuthorID: body.AuthorID,
		Content:  body.Content,
	}))
}

// Reply handles POST /comments/:comment_id/replies.
func (h *Handler) Reply(c *gin.Context) {
	parentID, ok := response.IDParam(c, "comment_id")
	if !ok {
		return
	}
	var body WriteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "author_id and content required")
		return
	}
	response.FromResult(c, h.svc.Reply(c.Request.Context(), parentID, body.AuthorID, body.Content))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := response.IDParam(c, "comment_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Get(c.Request.Context(), id))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := response.IDParam(c, "comment_id")
	if !ok {
		return
	}
	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "content required")
		return
	}
	response.FromResult(c, h.svc.Update(c.Request.Context(), id, body.Content))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := response.IDParam(c, "comment_id")
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Delete(c.Request.Context(), id))
}

// List handles GET /users/:user_id/posts/:post_id/comments.
func (h *Handler) List(c *gin.Context) {
	viewerID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	postID, ok := response.IDParam(c, "post_id")
	if !ok {
		return
	}
	offset, limit, ok := response.Page(c, DefaultPageSize)
	if !ok {
		return
	}
	response.FromResult(c, h.svc.List(c.Request.Context(), viewerID, postID, offset, limit))
}

// Replies handles GET /users/:user_id/comments/:comment_id/replies.
func (h *Handler) Replies(c *gin.Context) {
	viewerID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	commentID, ok := response.IDParam(c, "comment_id")
	if !ok {
		return
	}
	offset, limit, ok := response.Page(c, DefaultPageSize)
	if !ok {
		return
	}
	response.FromResult(c, h.svc.Replies(c.Request.Context(), viewerID, commentID, offset, limit))
}
