package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"vision-board-backend/internal/middleware"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return tokenString
}

func newRouter(verifier middleware.TokenVerifier, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AuthMiddleware(verifier, zap.NewNop()))
	router.GET("/test", func(c *gin.Context) {
		*reached = true
		userID, ok := middleware.GetUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID.String()})
	})
	return router
}

func doRequest(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/test", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)

	w := doRequest(router, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "missing authorization header")
	assert.False(t, reached)
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)

	w := doRequest(router, "Token abc")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid authorization header format")
	assert.False(t, reached)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)

	w := doRequest(router, "Bearer invalid-token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)
	token := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "another-secret")

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token signature is invalid")
	assert.False(t, reached)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)
	token := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	}, testSecret)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token has expired")
	assert.False(t, reached)
}

func TestAuthMiddleware_MissingExpiry(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)
	token := signToken(t, jwt.MapClaims{"sub": uuid.NewString()}, testSecret)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthMiddleware_NonUUIDSubject(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)
	token := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid user id in token")
	assert.False(t, reached)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	reached := false
	router := newRouter(middleware.NewJWTVerifier(testSecret), &reached)
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.True(t, reached)
}

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) Verify(context.Context, string) (string, error) {
	return s.userID, s.err
}

func TestAuthMiddleware_RemoteVerifier(t *testing.T) {
	userID := uuid.New()

	reached := false
	router := newRouter(stubVerifier{userID: userID.String()}, &reached)
	w := doRequest(router, "Bearer a.b.c")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)

	reached = false
	router = newRouter(stubVerifier{err: errors.New("session not found")}, &reached)
	w = doRequest(router, "Bearer a.b.c")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
	assert.False(t, reached)
}
