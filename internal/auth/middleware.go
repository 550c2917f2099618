package auth

import (
	"net/http"
	"strings"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
)

// Middleware guards admin endpoints with bearer token authentication.
type Middleware struct {
	Service *Service
}

// RequireAdmin rejects requests without a valid admin token and attaches the
// token subject to the request context for downstream handlers.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusInternalServerError, common.CodeConfig, "auth not configured", nil)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, common.CodeAuth, "missing or invalid token", nil)
			return
		}
		subject, err := m.Service.ParseToken(token)
		if err != nil {
			if appErr, ok := common.AsAppError(err); ok && appErr.HTTPStatus != 0 {
				common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			} else {
				common.JSONError(w, http.StatusUnauthorized, common.CodeAuth, "missing or invalid token", nil)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithAdminSubject(r.Context(), subject)))
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
