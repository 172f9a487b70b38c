package feed

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// Handler handles the feed endpoint.
type Handler struct {
	svc *Service
}

// NewHandler creates a feed handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Get handles GET /users/:user_id/feed?offset=&limit=. An absent or zero
// limit means the default page size; larger limits are capped. X-Total-Count
// carries the size of the whole timeline.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := response.IDParam(c, "user_id")
	if !ok {
		return
	}
	offset, limit, ok := response.Page(c, h.svc.defaultLimit)
	if !ok {
		return
	}
	if limit == 0 {
		limit = h.svc.defaultLimit
	}
	out := h.svc.Get(c.Request.Context(), userID, offset, h.svc.pageLimit(limit))
	if out.Success {
		if total := h.svc.Total(c.Request.Context()); total.Success {
			c.Header("X-Total-Count", strconv.Itoa(total.Data))
		}
	}
	response.FromResult(c, out)
}
