package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-storefront/middleware"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 5 * time.Second

// requestContext bounds the store calls a handler makes.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// currentUser returns the session claims and the user id they carry.
func currentUser(r *http.Request) (*utils.Claims, primitive.ObjectID, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, primitive.NilObjectID, utils.NewError(utils.KindUnauthenticated, "Not authorized to access this route")
	}
	id, err := claims.ObjectID()
	if err != nil {
		return nil, primitive.NilObjectID, utils.NewError(utils.KindUnauthenticated, "Not authorized to access this route")
	}
	return claims, id, nil
}

// pathID parses the named route variable. Malformed ids are reported as notFound
// since no document can have them.
func pathID(r *http.Request, name string, notFound *utils.APIError) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}

// notFoundAs replaces store.ErrNotFound with apiErr and passes other errors through.
func notFoundAs(err error, apiErr *utils.APIError) error {
	if errors.Is(err, store.ErrNotFound) {
		return apiErr
	}
	return err
}

// linkBase is the origin used in emailed links.
func linkBase(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimSuffix(publicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

type listResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}

// NotFound answers unknown routes in the API's JSON envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusNotFound, utils.Response{
		Success: false,
		Message: "Route " + r.URL.RequestURI() + " not found",
		Error:   utils.KindNotFound,
	})
}

// HealthCheck reports that the server is up.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
