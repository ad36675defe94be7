package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"go-storefront/store"
	"go-storefront/utils"
)

const (
	maintenanceMessage     = "System is under maintenance. Only administrators can access the system at this time."
	maintenanceAuthMessage = "System is under maintenance. Only administrator login is allowed at this time."
	maxLoginBody           = 1 << 20
)

// MaintenanceGate blocks traffic while settings.maintenanceMode is on. Failures
// while reading the flag let the request through so a fault cannot lock everyone out.
type MaintenanceGate struct {
	Settings store.SettingsStore
	Users    store.UserStore
}

func respondMaintenance(w http.ResponseWriter, message string) {
	utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"success":         false,
		"message":         message,
		"error":           utils.KindServiceUnavailable,
		"maintenanceMode": true,
	})
}

func (g *MaintenanceGate) enabled(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	settings, err := g.Settings.Get(ctx)
	if err != nil {
		log.Printf("Error in maintenance mode middleware: %v", err)
		return false
	}
	return settings.MaintenanceMode
}

// sessionIsAdmin checks the role of the account behind the session, not the role
// the token was issued with. Lookup failures other than a missing account let
// the request through, like a failed settings read.
func (g *MaintenanceGate) sessionIsAdmin(ctx context.Context, claims *utils.Claims) bool {
	userID, err := claims.ObjectID()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	user, err := g.Users.FindByID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return false
	case err != nil:
		log.Printf("Error in maintenance mode middleware: %v", err)
		return true
	}
	return user.IsAdmin()
}

// Middleware lets only admin routes and admin sessions through during maintenance.
func (g *MaintenanceGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.Contains(r.URL.Path, "/admin") {
			next.ServeHTTP(w, r)
			return
		}
		if claims, ok := ClaimsFromContext(r.Context()); ok && g.sessionIsAdmin(r.Context(), claims) {
			next.ServeHTTP(w, r)
			return
		}
		respondMaintenance(w, maintenanceMessage)
	})
}

// AuthMiddleware guards the public credential routes. During maintenance only a
// login for an account that currently has the admin role proceeds.
func (g *MaintenanceGate) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/login") {
			respondMaintenance(w, maintenanceAuthMessage)
			return
		}

		email, err := peekLoginEmail(r)
		if err != nil || email == "" {
			respondMaintenance(w, maintenanceAuthMessage)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		user, err := g.Users.FindByEmail(ctx, strings.ToLower(email))
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondMaintenance(w, maintenanceAuthMessage)
		case err != nil:
			log.Printf("Error in maintenance mode auth middleware: %v", err)
			next.ServeHTTP(w, r)
		case user.IsAdmin():
			next.ServeHTTP(w, r)
		default:
			respondMaintenance(w, maintenanceAuthMessage)
		}
	})
}

// peekLoginEmail reads the email from a JSON login body and restores the body
// for the handler.
func peekLoginEmail(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", errors.New("empty body")
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	var login struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		return "", err
	}
	return strings.TrimSpace(login.Email), nil
}
