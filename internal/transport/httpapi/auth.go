package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// TokenAuthenticator сверяет bearer-токен с единственным токеном администратора.
// Пустой настроенный токен закрывает административные маршруты полностью.
type TokenAuthenticator struct {
	token string
}

// NewTokenAuthenticator создаёт проверку по статическому токену.
func NewTokenAuthenticator(token string) *TokenAuthenticator {
	return &TokenAuthenticator{token: strings.TrimSpace(token)}
}

// Authenticate сравнивает токены за постоянное время.
func (a *TokenAuthenticator) Authenticate(_ context.Context, token string) error {
	if a == nil || a.token == "" || token == "" {
		return domain.ErrUnauthenticated
	}
	if subtle.ConstantTimeCompare([]byte(a.token), []byte(token)) != 1 {
		return domain.ErrUnauthenticated
	}
	return nil
}

var _ domain.Authenticator = (*TokenAuthenticator)(nil)

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if err := h.auth.Authenticate(r.Context(), token); err != nil {
			h.logger.WithField("path", r.URL.Path).Warn("admin request rejected")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
