package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/castellan-io/backoffice/api/responses"
	pkgAuth "github.com/castellan-io/backoffice/pkg/auth"
	"github.com/castellan-io/backoffice/pkg/config"
	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
	"github.com/castellan-io/backoffice/pkg/logger"
)

// SessionCookieName is the cookie the browser client stores its token in.
const SessionCookieName = "token"

// Auth validates a session token and seeds the request context with the claims.
// The Authorization header wins; the session cookie is the fallback for the
// browser admin panel.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(SessionCookieName); err == nil {
					token = strings.TrimSpace(cookie.Value)
				}
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					message = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, message))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxEmail, claims.Email)
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
