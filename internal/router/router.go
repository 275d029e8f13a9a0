package router

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"firebase.google.com/go/v4/auth"
	"github.com/civiclens/app/internal/comments"
	"github.com/civiclens/app/internal/composer"
	"github.com/civiclens/app/internal/gamification"
	"github.com/civiclens/app/internal/geo"
	"github.com/civiclens/app/internal/handlers"
	"github.com/civiclens/app/internal/media"
	"github.com/civiclens/app/internal/middleware"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
	"github.com/civiclens/app/internal/storage"
	"github.com/civiclens/app/internal/stream"
	"github.com/civiclens/app/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, firebaseAuthClient *auth.Client) {
	mongoDB := db.Mongo.Database("civiclens")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(mongoDB)
	postRepo := repositories.NewMongoPostRepository(db.Mongo, mongoDB)
	commentRepo := repositories.NewMongoCommentRepository(mongoDB)
	followRepo := repositories.NewMongoFollowRepository(mongoDB)
	gamificationRepo := repositories.NewMongoGamificationRepository(mongoDB)

	sessions := session.NewManager(userRepo, followRepo, firebaseAuthClient, cfg.JWTSecret)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(sessions)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	authHandler.RegisterSignOutRoute(api)
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(sessions, userRepo, postRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(sessions, postRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Composition routes
	store := imageStore(cfg)
	submitter := composer.NewSubmitter(postRepo, gamificationRepo, store)
	camera := media.NewSnapshotCamera(cfg.CameraSnapshotURL, nil)
	resolver := geoResolver(cfg)
	composeHandler := handlers.NewComposeHandler(sessions, submitter, camera, resolver)
	composeHandler.RegisterComposeRoutes(api)
	log.Println("Composition routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(sessions, userRepo, followRepo)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Comment routes
	var localCache *comments.LocalCache
	if db.LocalCache != nil {
		var err error
		localCache, err = comments.NewLocalCache(db.LocalCache)
		if err != nil {
			log.Fatalf("Failed to migrate local comment cache: %v", err)
		}
	}
	commentHandler := handlers.NewCommentHandler(sessions, commentRepo, postRepo, localCache, stream.NewHub())
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Gamification routes
	widget := gamification.NewWidget(gamificationRepo, userRepo)
	gamificationHandler := handlers.NewGamificationHandler(sessions, widget)
	gamificationHandler.RegisterGamificationRoutes(api)
	log.Println("Gamification routes configured.")

	// Geo routes
	geoHandler := handlers.NewGeoHandler(sessions, geo.NewRouter(cfg.RouterBaseURL, nil))
	geoHandler.RegisterGeoRoutes(api)
	log.Println("Geo routes configured.")

	log.Println("All routes configured.")
}

// imageStore selects object storage when R2 is configured, falling back to
// inline data URIs otherwise.
func imageStore(cfg *config.Config) storage.ImageStore {
	r2 := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicURL:       cfg.R2PublicURL,
	}
	if !r2.Configured() {
		log.Println("R2 not configured, storing post images inline.")
		return storage.InlineStore{}
	}

	store, err := storage.NewR2Store(context.Background(), r2)
	if err != nil {
		log.Printf("R2 store unavailable, storing post images inline: %v", err)
		return storage.InlineStore{}
	}
	log.Println("R2 image store configured.")
	return store
}

// geoResolver builds the post geo-tag resolver from the configured device
// position. Without a position, posts are created untagged.
func geoResolver(cfg *config.Config) composer.GeoResolver {
	source := geo.StaticPosition{}
	if lat, err := strconv.ParseFloat(cfg.DeviceLat, 64); err == nil {
		if lng, err := strconv.ParseFloat(cfg.DeviceLng, 64); err == nil {
			source = geo.StaticPosition{Lat: lat, Lng: lng, Set: true}
		}
	}

	return &geo.DeviceResolver{
		Source:   source,
		Geocoder: geo.NewReverseGeocoder(cfg.GeocoderBaseURL, &http.Client{}),
	}
}
