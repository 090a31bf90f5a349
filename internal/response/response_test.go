package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, debug bool, h gin.HandlerFunc, header map[string]string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	r := gin.New()
	r.Use(RequestIDMiddleware(), ExposeErrorDetail(debug))
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestFailWithErrorHidesDetailOutsideDevelopment(t *testing.T) {
	h := func(c *gin.Context) {
		FailWithError(c, http.StatusInternalServerError, ErrInternal, errors.New("pq: connection refused"))
	}

	_, body := serve(t, false, h, nil)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrInternal, body.Error.Code)
	assert.Equal(t, GetMessage(ErrInternal), body.Message)
	assert.Empty(t, body.Error.Detail)

	_, body = serve(t, true, h, nil)
	assert.Equal(t, "pq: connection refused", body.Error.Detail)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"ok": true}) }

	rec, body := serve(t, false, h, map[string]string{HeaderRequestID: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-123", body.Metadata.RequestID)
	assert.Nil(t, body.Error)

	rec, _ = serve(t, false, h, map[string]string{HeaderRequestID: strings.Repeat("x", 100)})
	assert.NotEqual(t, strings.Repeat("x", 100), rec.Header().Get(HeaderRequestID))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 5).TotalPages)
}
