package feedback

import (
	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// Handler handles the feedback endpoint.
type Handler struct {
	svc *Service
}

// NewHandler creates a feedback handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SubmitRequest is the body for POST /users/:user_id/feedback.
type SubmitRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) Submit(c *gin.Context) {
	userID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	var body SubmitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "content required")
		return
	}
	response.FromResult(c, h.svc.Submit(c.Request.Context(), userID, body.Content))
}
