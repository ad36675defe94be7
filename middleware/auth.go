package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-storefront/store"
	"go-storefront/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// WithClaims returns a copy of ctx carrying the session claims.
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// ClaimsFromContext returns the claims attached by Identify, if any.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok && claims != nil
}

// sessionToken reads the token from the Authorization header or the session cookie.
func sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(utils.TokenCookieName); err == nil && cookie.Value != "none" {
		return cookie.Value
	}
	return ""
}

// Identify attaches the session claims to the context when a valid token is
// present. It never rejects a request; AuthMiddleware does that.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr := sessionToken(r); tokenStr != "" {
			if claims, err := utils.ParseJWT(tokenStr); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticator guards routes that need a signed-in user.
type Authenticator struct {
	Users store.UserStore
}

// AuthMiddleware rejects requests without a valid session. The account is reloaded
// so role changes and removed users take effect before the token expires.
func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			utils.RespondError(w, utils.NewError(utils.KindUnauthenticated, "Not authorized to access this route"))
			return
		}
		userID, err := claims.ObjectID()
		if err != nil {
			utils.RespondError(w, utils.NewError(utils.KindUnauthenticated, "Not authorized to access this route"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		user, err := a.Users.FindByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, utils.NewError(utils.KindUnauthenticated, "Not authorized to access this route"))
			return
		}
		if err != nil {
			utils.RespondError(w, err)
			return
		}

		fresh := *claims
		fresh.Role = user.Role
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), &fresh)))
	})
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			utils.RespondError(w, utils.NewError(utils.KindForbidden, "User role is not authorized to access this route"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
