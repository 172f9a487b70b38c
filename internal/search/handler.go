package search

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/response"
)

// Handler handles the search endpoint.
type Handler struct {
	svc *Service
}

// NewHandler creates a search handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Search handles GET /search?q=&users=&organizations=&posts=&events=.
// Kind flags default to true.
func (h *Handler) Search(c *gin.Context) {
	opts := All
	for name, dst := range map[string]*bool{
		"users":         &opts.Users,
		"organizations": &opts.Organizations,
		"posts":         &opts.Posts,
		"events":        &opts.Events,
	} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "invalid "+name)
			return
		}
		*dst = b
	}
	response.FromResult(c, h.svc.Search(c.Request.Context(), c.Query("q"), opts))
}
