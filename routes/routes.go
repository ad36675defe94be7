package routes

import (
	"net/http"

	"go-storefront/controllers"
	"go-storefront/middleware"

	"github.com/gorilla/mux"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Users       *controllers.UserController
	AdminUsers  *controllers.AdminUserController
	Products    *controllers.ProductController
	Cart        *controllers.CartController
	Orders      *controllers.OrderController
	Wishlist    *controllers.WishlistController
	Settings    *controllers.SettingsController
	Auth        *middleware.Authenticator
	Maintenance *middleware.MaintenanceGate
	// UploadDir is served under UploadURL when set.
	UploadDir string
	UploadURL string
}

// NewRouter sets up all the routes for the application
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Identify)
	router.NotFoundHandler = http.HandlerFunc(controllers.NotFound)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", controllers.HealthCheck).Methods(http.MethodGet)

	registerAuthRoutes(api, h)
	registerUserRoutes(api, h)
	registerProductRoutes(api, h)
	registerCartRoutes(api, h)
	registerOrderRoutes(api, h)
	registerWishlistRoutes(api, h)
	registerSettingsRoutes(api, h)

	if h.UploadDir != "" && h.UploadURL != "" {
		prefix := h.UploadURL + "/"
		router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(h.UploadDir))))
	}
	return router
}

func registerAuthRoutes(api *mux.Router, h Handlers) {
	// Credential routes: during maintenance only an admin login passes.
	public := api.PathPrefix("/auth").Subrouter()
	public.Use(h.Maintenance.AuthMiddleware)
	public.HandleFunc("/register", h.Users.Register).Methods(http.MethodPost)
	public.HandleFunc("/login", h.Users.Login).Methods(http.MethodPost)
	public.HandleFunc("/logout", h.Users.Logout).Methods(http.MethodGet)
	public.HandleFunc("/forgotpassword", h.Users.ForgotPassword).Methods(http.MethodPost)
	public.HandleFunc("/resetpassword/{token}", h.Users.ResetPassword).Methods(http.MethodPut)
	public.HandleFunc("/verify-email/{token}", h.Users.VerifyEmail).Methods(http.MethodGet)
	public.HandleFunc("/resend-verification", h.Users.ResendVerification).Methods(http.MethodPost)

	// Self-service routes need a session.
	self := api.PathPrefix("/auth").Subrouter()
	self.Use(h.Maintenance.Middleware, h.Auth.AuthMiddleware)
	self.HandleFunc("/me", h.Users.GetMe).Methods(http.MethodGet)
	self.HandleFunc("/updatedetails", h.Users.UpdateDetails).Methods(http.MethodPut)
	self.HandleFunc("/updatepassword", h.Users.UpdatePassword).Methods(http.MethodPut)
}

func registerUserRoutes(api *mux.Router, h Handlers) {
	admin := api.PathPrefix("/users").Subrouter()
	admin.Use(h.Maintenance.Middleware, h.Auth.AuthMiddleware, middleware.AdminMiddleware)
	admin.HandleFunc("", h.AdminUsers.GetUsers).Methods(http.MethodGet)
	admin.HandleFunc("/{id}/role", h.AdminUsers.UpdateUserRole).Methods(http.MethodPatch, http.MethodPut)
}

func registerProductRoutes(api *mux.Router, h Handlers) {
	products := api.PathPrefix("/products").Subrouter()
	products.Use(h.Maintenance.Middleware)

	// Fixed paths are registered before /{id} so they are not taken for ids.
	admin := products.NewRoute().Subrouter()
	admin.Use(h.Auth.AuthMiddleware, middleware.AdminMiddleware)
	admin.HandleFunc("/inactive", h.Products.GetInactiveProducts).Methods(http.MethodGet)

	products.HandleFunc("/search", h.Products.SearchProducts).Methods(http.MethodGet)
	products.HandleFunc("/category/{category}", h.Products.GetProductsByCategory).Methods(http.MethodGet)
	products.HandleFunc("", h.Products.GetProducts).Methods(http.MethodGet)
	products.HandleFunc("/{id}", h.Products.GetProduct).Methods(http.MethodGet)

	admin.HandleFunc("", h.Products.CreateProduct).Methods(http.MethodPost)
	admin.HandleFunc("/{id}", h.Products.UpdateProduct).Methods(http.MethodPut)
	admin.HandleFunc("/{id}", h.Products.DeleteProduct).Methods(http.MethodDelete)

	reviews := products.NewRoute().Subrouter()
	reviews.Use(h.Auth.AuthMiddleware)
	reviews.HandleFunc("/{id}/reviews", h.Products.CreateReview).Methods(http.MethodPost)
}

func registerCartRoutes(api *mux.Router, h Handlers) {
	cart := api.PathPrefix("/cart").Subrouter()
	cart.Use(h.Maintenance.Middleware, h.Auth.AuthMiddleware)
	cart.HandleFunc("", h.Cart.GetCart).Methods(http.MethodGet)
	cart.HandleFunc("", h.Cart.AddToCart).Methods(http.MethodPost)
	cart.HandleFunc("", h.Cart.ClearCart).Methods(http.MethodDelete)
	cart.HandleFunc("/{itemId}", h.Cart.UpdateCartItem).Methods(http.MethodPut)
	cart.HandleFunc("/{itemId}", h.Cart.RemoveFromCart).Methods(http.MethodDelete)
}

func registerOrderRoutes(api *mux.Router, h Handlers) {
	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(h.Maintenance.Middleware, h.Auth.AuthMiddleware)

	admin := orders.NewRoute().Subrouter()
	admin.Use(middleware.AdminMiddleware)

	orders.HandleFunc("", h.Orders.CreateOrder).Methods(http.MethodPost)
	admin.HandleFunc("", h.Orders.GetAllOrders).Methods(http.MethodGet)
	orders.HandleFunc("/myorders", h.Orders.GetMyOrders).Methods(http.MethodGet)
	orders.HandleFunc("/{id}/cancel", h.Orders.CancelOrder).Methods(http.MethodPut)
	orders.HandleFunc("/{id}", h.Orders.GetOrder).Methods(http.MethodGet)
	admin.HandleFunc("/{id}", h.Orders.UpdateOrder).Methods(http.MethodPut)
	admin.HandleFunc("/{id}", h.Orders.DeleteOrder).Methods(http.MethodDelete)
}

func registerWishlistRoutes(api *mux.Router, h Handlers) {
	wishlist := api.PathPrefix("/wishlist").Subrouter()
	wishlist.Use(h.Maintenance.Middleware, h.Auth.AuthMiddleware)
	wishlist.HandleFunc("", h.Wishlist.GetWishlist).Methods(http.MethodGet)
	wishlist.HandleFunc("", h.Wishlist.AddToWishlist).Methods(http.MethodPost)
	wishlist.HandleFunc("", h.Wishlist.ClearWishlist).Methods(http.MethodDelete)
	wishlist.HandleFunc("/{productId}", h.Wishlist.RemoveFromWishlist).Methods(http.MethodDelete)
}

func registerSettingsRoutes(api *mux.Router, h Handlers) {
	settings := api.PathPrefix("/settings").Subrouter()
	settings.HandleFunc("/maintenance", h.Settings.GetMaintenanceMode).Methods(http.MethodGet)
	settings.HandleFunc("", h.Settings.GetSettings).Methods(http.MethodGet)

	admin := settings.NewRoute().Subrouter()
	admin.Use(h.Auth.AuthMiddleware, middleware.AdminMiddleware)
	admin.HandleFunc("", h.Settings.UpdateSettings).Methods(http.MethodPut)
}
