package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"melodex/cache"
	"melodex/config"
	"melodex/core/auth"
	"melodex/core/music"
	"melodex/core/playlist"
	"melodex/core/user"
	"melodex/db"
	"melodex/logger"
	"melodex/repository"
)

// Start initializes dependencies and runs the HTTP server until SIGINT or
// SIGTERM.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	// The playlist cache is an optimization; run without it if Redis is down.
	var playlistCache *cache.PlaylistCache
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, running without playlist cache", logger.ErrorField(err))
		playlistCache = cache.NewPlaylistCache(nil)
	} else {
		defer cache.CloseRedis()
		playlistCache = cache.NewPlaylistCache(cache.RedisClient)
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	musicRepo := repository.NewMySQLMusicRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	resolver := auth.NewResolver(tokens, userRepo)

	userManager := user.NewManager(userRepo, musicRepo, playlistRepo, playlistCache)
	musicManager := music.NewManager(musicRepo, userRepo, playlistRepo, playlistCache)
	playlistManager := playlist.NewManager(playlistRepo, musicRepo, playlistCache)

	apiHandler := NewAPIHandler(userManager, musicManager, playlistManager, tokens, resolver, cfg)
	router := NewRouter(apiHandler)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}

// NewRouter builds the API route table.
func NewRouter(apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(CORSMiddleware)
	router.Use(RequestIDMiddleware)

	// User endpoints
	router.HandleFunc("/api/users", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/users", apiHandler.ListUsersHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me", apiHandler.RequireAuth(apiHandler.MeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id:[0-9]+}", apiHandler.GetUserHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id:[0-9]+}", apiHandler.RequireAuth(apiHandler.UpdateUserHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/users/{id:[0-9]+}", apiHandler.RequireAuth(apiHandler.DeleteUserHandler)).Methods(http.MethodDelete)

	// Music endpoints
	router.HandleFunc("/api/music", apiHandler.RequireAuth(apiHandler.AddMusicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/music/all", apiHandler.ListMusicsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/music/user/{userId:[0-9]+}", apiHandler.ListUserMusicsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/music/{id:[0-9]+}", apiHandler.GetMusicHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/music/{id:[0-9]+}", apiHandler.RequireAuth(apiHandler.UpdateMusicHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/music/{id:[0-9]+}", apiHandler.RequireAuth(apiHandler.DeleteMusicHandler)).Methods(http.MethodDelete)

	// Playlist endpoints
	router.HandleFunc("/api/playlist", apiHandler.RequireAuth(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/from-user/{userId:[0-9]+}", apiHandler.OptionalAuth(apiHandler.ListUserPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/{id:[0-9]+}/musics", apiHandler.OptionalAuth(apiHandler.GetPlaylistMusicsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/{id:[0-9]+}/music/{musicId:[0-9]+}", apiHandler.RequireAuth(apiHandler.AddMusicToPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/{id:[0-9]+}/music/{musicId:[0-9]+}", apiHandler.RequireAuth(apiHandler.RemoveMusicFromPlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlist/{id:[0-9]+}", apiHandler.RequireAuth(apiHandler.UpdatePlaylistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlist/{id:[0-9]+}", apiHandler.RequireAuth(apiHandler.DeletePlaylistHandler)).Methods(http.MethodDelete)

	return router
}
