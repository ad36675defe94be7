package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go-storefront/config"
	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/routes"
	"go-storefront/store"
	"go-storefront/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Session token settings
	if cfg.JWTSecret != "" {
		utils.JwtKey = []byte(cfg.JWTSecret)
	} else {
		log.Println("JWT_SECRET not set. Using the development signing key.")
	}
	utils.JwtExpiry = cfg.JWTExpire
	utils.CookieExpiry = time.Duration(cfg.CookieExpireDays) * 24 * time.Hour
	utils.SecureCookies = cfg.IsProduction()

	// Initialize EmailService
	mailer, err := utils.NewMailer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	emailService := utils.NewEmailService(mailer, cfg.Mail.FromName)

	ctx := context.Background()

	var db *store.Store
	if cfg.MongoURI == "" {
		log.Println("MONGO_URI not set. Using the in-memory store; data is lost on restart.")
		db = store.NewMemoryStore()
	} else {
		client, err := utils.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Println(err)
			}
		}()
		database := client.Database(cfg.Database)
		if err := store.EnsureIndexes(ctx, database); err != nil {
			log.Fatal(err)
		}
		db = store.NewMongoStore(database)
	}

	var cache utils.Cache = utils.NopCache{}
	if cfg.Redis.Addr != "" {
		redisCache, err := utils.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Database)
		if err != nil {
			log.Printf("Redis unavailable, caching disabled: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}
	settings := store.NewCachedSettings(db.Settings, cache, cfg.Redis.TTL)

	images := utils.NewLocalImageStore(cfg.UploadDir, cfg.PublicURL+cfg.UploadURL)

	// Initialize controllers
	router := routes.NewRouter(routes.Handlers{
		Users:       controllers.NewUserController(db.Users, emailService, cfg.PublicURL),
		AdminUsers:  controllers.NewAdminUserController(db.Users),
		Products:    controllers.NewProductController(db.Products, db.Users, images, cache, cfg.Redis.TTL),
		Cart:        controllers.NewCartController(db.Carts, db.Products),
		Orders:      controllers.NewOrderController(db.Orders, db.Products, db.Carts, db.Users, emailService, cache),
		Wishlist:    controllers.NewWishlistController(db.Wishlists, db.Products),
		Settings:    controllers.NewSettingsController(settings),
		Auth:        &middleware.Authenticator{Users: db.Users},
		Maintenance: &middleware.MaintenanceGate{Settings: settings, Users: db.Users},
		UploadDir:   cfg.UploadDir,
		UploadURL:   cfg.UploadURL,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Server is running in %s mode on port %s", cfg.Env, cfg.Port)
	log.Fatal(server.ListenAndServe())
}
