package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/utils"
)

const SessionCookieName = "tc_session"

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier func(token string) (*utils.SessionClaims, error)

// Authenticate attaches the session of a valid token to the request context. Requests without a
// valid token pass through anonymously; RequireSession and RequireRole decide whether identity is
// required. A session cookie that fails verification is cleared.
func Authenticate(verify TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verify(token)
			if err != nil {
				if fromCookie {
					ClearSessionCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			role, _ := models.ParseRole(claims.Role)
			ctx := session.WithSession(r.Context(), session.Session{
				UID:   claims.Subject,
				Role:  role,
				Email: claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie stores token in the session cookie for maxAge.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, sessionCookie(token, int(maxAge.Seconds())))
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie("", -1))
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// RequireSession rejects anonymous requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			utils.RespondError(w, nil, http.StatusUnauthorized, "You must be logged in to perform this action.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects sessions whose role is not one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			if !ok {
				utils.RespondError(w, nil, http.StatusUnauthorized, "You must be logged in to perform this action.", nil)
				return
			}
			for _, role := range roles {
				if s.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.RespondError(w, nil, http.StatusForbidden, "Forbidden", nil)
		})
	}
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer "), false
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}
