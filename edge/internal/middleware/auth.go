package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/telhawk-systems/telhawk-edge/common/httputil"
	"github.com/telhawk-systems/telhawk-edge/edge/pkg/tokens"
)

type contextKey string

// DeviceIDKey is the context key for the authenticated device identity.
const DeviceIDKey contextKey = "device_id"

// AuthMiddleware guards the ingest endpoint with device bearer tokens.
// Auth failures answer 401, which the sender classifies as terminal.
type AuthMiddleware struct {
	manager *tokens.Manager
}

func NewAuthMiddleware(manager *tokens.Manager) *AuthMiddleware {
	return &AuthMiddleware{manager: manager}
}

func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := m.manager.Validate(parts[1])
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), DeviceIDKey, claims.DeviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetDeviceID extracts the authenticated device identity from the context.
func GetDeviceID(ctx context.Context) string {
	if id, ok := ctx.Value(DeviceIDKey).(string); ok {
		return id
	}
	return ""
}
