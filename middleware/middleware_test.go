package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSettings struct{}

func (brokenSettings) Get(context.Context) (*models.Settings, error) {
	return nil, errors.New("database unavailable")
}

func (brokenSettings) Update(context.Context, *models.Settings) error {
	return errors.New("database unavailable")
}

// echoHandler answers 200 with the request body so tests can see it survived.
var echoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
})

func newUser(t *testing.T, s *store.Store, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, Role: role, IsEmailVerified: true}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func enableMaintenance(t *testing.T, s *store.Store) {
	t.Helper()
	settings, err := s.Settings.Get(context.Background())
	require.NoError(t, err)
	settings.MaintenanceMode = true
	require.NoError(t, s.Settings.Update(context.Background(), settings))
}

func bearer(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := utils.GenerateJWT(u.ID, u.Role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestIdentifyReadsHeaderAndCookie(t *testing.T) {
	s := store.NewMemoryStore()
	u := newUser(t, s, "ann@example.com", models.RoleUser)

	var seen *utils.Claims
	h := Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, u))
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID.Hex(), seen.UserID)

	token, err := utils.GenerateJWT(u.ID, u.Role)
	require.NoError(t, err)
	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: utils.TokenCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, seen)
}

func TestAuthAndAdminMiddleware(t *testing.T) {
	s := store.NewMemoryStore()
	auth := &Authenticator{Users: s.Users}
	user := newUser(t, s, "ann@example.com", models.RoleUser)
	admin := newUser(t, s, "boss@example.com", models.RoleAdmin)

	protected := Identify(auth.AuthMiddleware(echoHandler))
	adminOnly := Identify(auth.AuthMiddleware(AdminMiddleware(echoHandler)))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, user))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, admin))
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareUsesCurrentRole(t *testing.T) {
	s := store.NewMemoryStore()
	auth := &Authenticator{Users: s.Users}
	admin := newUser(t, s, "boss@example.com", models.RoleAdmin)
	header := bearer(t, admin)

	admin.Role = models.RoleUser
	require.NoError(t, s.Users.Update(context.Background(), admin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	Identify(auth.AuthMiddleware(AdminMiddleware(echoHandler))).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMaintenanceGateBlocksNonAdmins(t *testing.T) {
	s := store.NewMemoryStore()
	gate := &MaintenanceGate{Settings: s.Settings, Users: s.Users}
	h := Identify(gate.Middleware(echoHandler))
	user := newUser(t, s, "ann@example.com", models.RoleUser)
	admin := newUser(t, s, "boss@example.com", models.RoleAdmin)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	enableMaintenance(t, s)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", bearer(t, user))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["maintenanceMode"])
	assert.Equal(t, false, body["success"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", bearer(t, admin))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMaintenanceAuthGateAllowsOnlyAdminLogin(t *testing.T) {
	s := store.NewMemoryStore()
	gate := &MaintenanceGate{Settings: s.Settings, Users: s.Users}
	h := gate.AuthMiddleware(echoHandler)
	newUser(t, s, "ann@example.com", models.RoleUser)
	newUser(t, s, "boss@example.com", models.RoleAdmin)
	enableMaintenance(t, s)

	login := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
		return rec
	}

	assert.Equal(t, http.StatusServiceUnavailable, login(`{"email":"ann@example.com","password":"x"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, login(`{"email":"nobody@example.com","password":"x"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, login(`not json`).Code)

	body := `{"email":"BOSS@example.com","password":"x"}`
	rec := login(body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, rec.Body.String(), "handler must still see the login body")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMaintenanceGatesFailOpen(t *testing.T) {
	gate := &MaintenanceGate{Settings: brokenSettings{}, Users: store.NewMemoryStore().Users}

	rec := httptest.NewRecorder()
	gate.Middleware(echoHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	gate.AuthMiddleware(echoHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMaintenanceGateUsesCurrentRole(t *testing.T) {
	s := store.NewMemoryStore()
	gate := &MaintenanceGate{Settings: s.Settings, Users: s.Users}
	h := Identify(gate.Middleware(echoHandler))
	admin := newUser(t, s, "boss@example.com", models.RoleAdmin)
	header := bearer(t, admin)

	admin.Role = models.RoleUser
	require.NoError(t, s.Users.Update(context.Background(), admin))
	enableMaintenance(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// An account promoted after its token was issued gets through.
	user := newUser(t, s, "ann@example.com", models.RoleUser)
	header = bearer(t, user)
	user.Role = models.RoleAdmin
	require.NoError(t, s.Users.Update(context.Background(), user))

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", header)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
