package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/review_platform/internal/pkg/logger"
)

const testSecret = "test-secret"

func protectedHandler(t *testing.T) http.Handler {
	auth := JWTAuth(testSecret, logger.New("test"))
	return auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func signedToken(t *testing.T, secret string, expiry time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "test-user",
		"exp": time.Now().Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTAuth_ValidToken(t *testing.T) {
	handler := protectedHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/123", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, time.Hour))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	handler := protectedHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/123", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	handler := protectedHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/123", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	handler := protectedHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/123", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", time.Hour))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	handler := protectedHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/123", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, -time.Hour))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
