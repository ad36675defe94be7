package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/routes"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []utils.EmailMessage
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg utils.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) last(t *testing.T) utils.EmailMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	return m.sent[len(m.sent)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mapCache is an in-process utils.Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v interface{}, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type testEnv struct {
	router http.Handler
	store  *store.Store
	mailer *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, utils.NopCache{})
}

// newTestEnvWithCache wires cache into the product and order controllers.
func newTestEnvWithCache(t *testing.T, cache utils.Cache) *testEnv {
	t.Helper()
	db := store.NewMemoryStore()
	mailer := &recordingMailer{}
	emailService := utils.NewEmailService(mailer, "Goodluck Fashion")
	uploads := t.TempDir()
	images := utils.NewLocalImageStore(uploads, "/uploads")

	router := routes.NewRouter(routes.Handlers{
		Users:       controllers.NewUserController(db.Users, emailService, "http://shop.test"),
		AdminUsers:  controllers.NewAdminUserController(db.Users),
		Products:    controllers.NewProductController(db.Products, db.Users, images, cache, time.Minute),
		Cart:        controllers.NewCartController(db.Carts, db.Products),
		Orders:      controllers.NewOrderController(db.Orders, db.Products, db.Carts, db.Users, emailService, cache),
		Wishlist:    controllers.NewWishlistController(db.Wishlists, db.Products),
		Settings:    controllers.NewSettingsController(db.Settings),
		Auth:        &middleware.Authenticator{Users: db.Users},
		Maintenance: &middleware.MaintenanceGate{Settings: db.Settings, Users: db.Users},
		UploadDir:   uploads,
		UploadURL:   "/uploads",
	})
	return &testEnv{router: router, store: db, mailer: mailer}
}

// do sends a JSON request, authenticated when token is not empty.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// createUser stores an account directly and returns it with a session token.
func (e *testEnv) createUser(t *testing.T, email, password, role string, verified bool) (*models.User, string) {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Name: "Test " + role, Email: email, Password: hashed, Role: role, IsEmailVerified: verified}
	require.NoError(t, e.store.Users.Create(context.Background(), user))
	token, err := utils.GenerateJWT(user.ID, user.Role)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createProduct(t *testing.T, p *models.Product) *models.Product {
	t.Helper()
	if p.Category == "" {
		p.Category = "men"
	}
	require.NoError(t, e.store.Products.Create(context.Background(), p))
	return p
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}

// decodeInto decodes the whole response body, for endpoints with fields beside data.
func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

var linkToken = regexp.MustCompile(`/(?:verify-email|resetpassword)/([0-9a-f]+)`)

// tokenFromEmail extracts the raw token from the link in the last email.
func (e *testEnv) tokenFromEmail(t *testing.T) string {
	t.Helper()
	m := linkToken.FindStringSubmatch(e.mailer.last(t).Text)
	require.Len(t, m, 2, "no token link in email")
	return m[1]
}
