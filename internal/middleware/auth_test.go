package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalia/clinic-api/pkg/auth"
)

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func pingRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	token, _, err := jwtSvc.GenerateToken(1, "dra.garcia", "admin")
	require.NoError(t, err)

	m := NewAuthMiddleware(jwtSvc)
	router := pingRouter(m.Authenticate())

	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.authorization)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCronSecretEmptySecretFailsClosed(t *testing.T) {
	router := pingRouter(CronSecret(""))

	// A bare "Bearer " header carries an empty token; it must not match an
	// unset secret.
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	token, _, err := auth.NewJWTService("other-secret", time.Hour).GenerateToken(1, "dra.garcia", "admin")
	require.NoError(t, err)

	m := NewAuthMiddleware(auth.NewJWTService("test-secret", time.Hour))
	router := pingRouter(m.Authenticate())

	w := serve(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	m := NewAuthMiddleware(jwtSvc)
	router := pingRouter(m.Authenticate(), m.RequireAdmin())

	adminToken, _, err := jwtSvc.GenerateToken(1, "dra.garcia", "admin")
	require.NoError(t, err)
	staffToken, _, err := jwtSvc.GenerateToken(2, "recepcion", "staff")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(router, "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "Bearer "+staffToken).Code)
}

func TestCronSecret(t *testing.T) {
	router := pingRouter(CronSecret("s3cret"))

	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{"correct secret", "Bearer s3cret", http.StatusOK},
		{"wrong secret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.authorization)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
