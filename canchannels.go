// Package canchannels is the content-publishing backend for the Can Channels
// editorial site: posts with categories, embedded links and media, related-
// content recommendation, position-targeted advertisements with fallback,
// and a role-based authorization layer gating every write surface.
package canchannels

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const subActorRetryDelay = time.Second

// App wires together the store, blob store, services, gate, handlers, and
// middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Log    *Logger

	Store         *Store
	Blobs         BlobStore
	Content       *ContentRepository
	Recommender   *Recommender
	Ads           *AdService
	Images        *ImageService
	Notifications *NotificationService
	Gate          *Gate
	SubActors     *SubActorAdmin
	Deleter       *Deleter
	Cache         *PostCache

	loginLimiter *LoginLimiter
}

// New validates the configuration and wires a ready-to-start App.
func New(cfg SiteConfig) (*App, error) {
	cfg.setDefaults()
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("canchannels: SessionSecret is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("canchannels: TokenSecret is required")
	}

	log, err := NewLogger(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("canchannels: init logger: %w", err)
	}

	store, err := NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("canchannels: init store: %w", err)
	}

	blobs, err := NewLocalBlobStore(cfg.StaticDir, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("canchannels: init blob store: %w", err)
	}

	identity := NewLocalIdentityStore(store, cfg.TokenSecret, cfg.TokenTTL)
	content := NewContentRepository(store, log)

	a := &App{
		Config:        cfg,
		Echo:          echo.New(),
		Log:           log,
		Store:         store,
		Blobs:         blobs,
		Content:       content,
		Recommender:   NewRecommender(store, log),
		Ads:           NewAdService(store, log),
		Images:        NewImageService(store, blobs, log),
		Notifications: NewNotificationService(store, log),
		Gate:          NewGate(identity, store, log, cfg.SessionTimeout),
		SubActors:     NewSubActorAdmin(identity, store, log, subActorRetryDelay),
		Deleter:       NewDeleter(store, blobs, log),
		Cache:         NewPostCache(content, cfg.PostCacheTTL),
		loginLimiter:  NewLoginLimiter(5, time.Minute),
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := a.ensureSeedAdmin(identity); err != nil {
			return nil, fmt.Errorf("canchannels: seed admin: %w", err)
		}
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// ensureSeedAdmin creates the configured admin account when no admin-level
// profile exists yet, so a fresh deployment can sign in.
func (a *App) ensureSeedAdmin(identity IdentityStore) error {
	profiles, err := a.Store.ListAdminProfiles()
	if err != nil {
		return err
	}
	if len(profiles) > 0 {
		return nil
	}
	actorID, err := identity.CreateAccount(context.Background(), a.Config.AdminEmail, a.Config.AdminPassword)
	if err != nil {
		return err
	}
	if err := a.Store.UpdateProfileAccess(actorID, RoleAdmin, DefaultPermissions(RoleAdmin)); err != nil {
		return err
	}
	a.Log.Info("seeded initial admin account", "email", a.Config.AdminEmail)
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)

	api := e.Group("/api")
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/featured", a.handleFeaturedPosts)
	api.GET("/posts/search", a.handleSearchPosts)
	api.GET("/posts/category/:category", a.handlePostsByCategory)
	api.GET("/posts/:id", a.handleGetPost)
	api.GET("/posts/:id/related", a.handleRelatedPosts)
	api.GET("/ads/:position", a.handleResolveAd)
	api.GET("/notifications", a.handleListNotifications)

	admin := api.Group("/admin")
	admin.POST("/login", a.handleLogin)
	admin.POST("/logout", a.handleLogout)
	admin.GET("/session", a.handleSession)

	admin.GET("/stats", a.handleStats)
	admin.POST("/posts", a.handleCreatePost)
	admin.PUT("/posts/:id", a.handleUpdatePost)
	admin.DELETE("/posts/:id", a.handleDeletePost)

	admin.GET("/ads", a.handleListAds)
	admin.POST("/ads", a.handleCreateAd)
	admin.PUT("/ads/:id", a.handleUpdateAd)
	admin.PATCH("/ads/:id/active", a.handleToggleAd)
	admin.DELETE("/ads/:id", a.handleDeleteAd)

	admin.GET("/notifications", a.handleAdminNotifications)
	admin.POST("/notifications", a.handleCreateNotification)
	admin.PUT("/notifications/:id", a.handleUpdateNotification)
	admin.DELETE("/notifications/:id", a.handleDeleteNotification)

	admin.GET("/users", a.handleListSubActors)
	admin.POST("/users", a.handleCreateSubActor)
	admin.PUT("/users/:id/role", a.handleUpdateSubActorRole)
	admin.DELETE("/users/:id", a.handleDeleteSubActor)

	admin.GET("/images", a.handleListImages)
	admin.POST("/images", a.handleUploadImage)
	admin.DELETE("/images/:filename", a.handleDeleteImage)
}

// Start runs the HTTP server until it is shut down.
func (a *App) Start() error {
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.Log.Sync()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
