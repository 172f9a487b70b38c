package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onechurch/backend/pkg/result"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Kind    result.Kind `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FromResult writes an operation result: 200 when it succeeded, 401 otherwise.
// Clients must not read 401 as an authentication failure.
func FromResult[T any](c *gin.Context, r result.Result[T]) {
	status := http.StatusOK
	if !r.Success {
		status = http.StatusUnauthorized
	}
	body := Body{Success: r.Success, Message: r.Message, Kind: r.Kind}
	if r.Success {
		body.Data = r.Data
	} else {
		body.Error = r.Message
	}
	c.JSON(status, body)
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Kind: result.KindValidation, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Kind: result.KindNotFound, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Kind: result.KindInternal, Error: err})
}
