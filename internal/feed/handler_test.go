package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serveFeed(t *testing.T, f fixture, query string) (*httptest.ResponseRecorder, []json.RawMessage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users/:user_id/feed", NewHandler(f.svc).Get)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/users/%d/feed%s", f.user.ID, query), nil)
	r.ServeHTTP(w, req)

	var body struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body.Data
}

func TestHandlerAppliesDefaultAndCap(t *testing.T) {
	f := setup(t, WithLimits(2, 3))
	for i := 0; i < 5; i++ {
		f.post(t, "p")
	}

	w, items := serveFeed(t, f, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, items, 2)
	require.Equal(t, "5", w.Header().Get("X-Total-Count"))

	_, items = serveFeed(t, f, "?limit=0")
	require.Len(t, items, 2)

	_, items = serveFeed(t, f, "?limit=50")
	require.Len(t, items, 3)

	_, items = serveFeed(t, f, "?offset=4&limit=3")
	require.Len(t, items, 1)
}
