package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokens map[string]string
}

func (r *testResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if tenantID, ok := r.tokens[token]; ok {
		return tenantID, nil
	}
	return "", ErrUnauthorized
}

func authedHandler(t *testing.T) http.Handler {
	t.Helper()
	resolver := &testResolver{tokens: map[string]string{"valid-token": "tenant1"}}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := TenantFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(tenantID))
	})
	return AuthMiddleware(resolver)(inner)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	authedHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	authedHandler(t).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	authedHandler(t).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tenant1", rec.Body.String())
}

func TestTenantFromContext_Absent(t *testing.T) {
	_, ok := TenantFromContext(context.Background())
	require.False(t, ok)
}
