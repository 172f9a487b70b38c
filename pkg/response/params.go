package response

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// IDParam parses a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func IDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Page parses offset and limit query parameters. Missing values fall back to
// 0 and defaultLimit; malformed ones write a 400 response.
func Page(c *gin.Context, defaultLimit int) (offset, limit int, ok bool) {
	offset, limit = 0, defaultLimit
	var err error
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			BadRequest(c, "invalid offset")
			return 0, 0, false
		}
	}
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			BadRequest(c, "invalid limit")
			return 0, 0, false
		}
	}
	return offset, limit, true
}
