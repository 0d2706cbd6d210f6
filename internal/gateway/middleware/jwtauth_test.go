package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kerani-system/internal/utils"
)

var testSecret = []byte("test-secret")

func newAuthRouter(captured *int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.GET("/ping", func(c *gin.Context) {
		*captured = CallerID(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	token, _, err := utils.GenerateToken(testSecret, 42, "ayu", time.Hour)
	require.NoError(t, err)

	var callerID int64
	r := newAuthRouter(&callerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), callerID)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	var callerID int64
	r := newAuthRouter(&callerID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsNonBearerHeader(t *testing.T) {
	var callerID int64
	r := newAuthRouter(&callerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	token, _, err := utils.GenerateToken(testSecret, 42, "ayu", -time.Minute)
	require.NoError(t, err)

	var callerID int64
	r := newAuthRouter(&callerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	token, _, err := utils.GenerateToken([]byte("other-secret"), 42, "ayu", time.Hour)
	require.NoError(t, err)

	var callerID int64
	r := newAuthRouter(&callerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
