package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundvault/config"
	"soundvault/core/auth"
	"soundvault/core/media"
	"soundvault/db"
	"soundvault/logger"
	"soundvault/repository"
	"soundvault/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until an
// interrupt or termination signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(os.Getenv("LOG_LEVEL")),
		OutputPath: os.Getenv("LOG_PATH"),
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.Configure(cfg.JWTSecret, cfg.JWTExpiry)

	if err := db.Connect(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("failed to migrate database schema", logger.ErrorField(err))
	}

	// Redis only backs the trending cache; the cache fails open, so a
	// missing Redis is not fatal.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, trending cache disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	// Object storage only backs the converted-audio archive; without it
	// every conversion runs the extraction tool.
	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("object storage unavailable, conversion archive disabled", logger.ErrorField(err))
	}

	userRepo := repository.NewUserRepository(db.DB)
	trackRepo := repository.NewTrackRepository(db.DB)
	playlistRepo := repository.NewPlaylistRepository(db.DB)
	recentRepo := repository.NewRecentPlayRepository(db.DB)
	converter := media.NewConverter(cfg)

	h := NewAPIHandler(userRepo, trackRepo, playlistRepo, recentRepo, converter, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware(cfg.CORSOrigin))

	registerRoutes(router, h)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // conversions stream large files
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

// corsMiddleware allows the configured frontend origin to send
// credentialed requests and short-circuits preflights.
func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func registerRoutes(router *mux.Router, h *APIHandler) {
	// Auth and user endpoints
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", h.RegisterHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.LoginHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", h.LogoutHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/profile", h.AuthMiddleware(h.ProfileHandler)).Methods(http.MethodGet)
	authRouter.HandleFunc("/saveToFavorites", h.AuthMiddleware(h.SaveToFavoritesHandler)).Methods(http.MethodPost)
	authRouter.HandleFunc("/removeFavourites", h.AuthMiddleware(h.RemoveFavouritesHandler)).Methods(http.MethodPost)
	authRouter.HandleFunc("/isFavourite", h.AuthMiddleware(h.IsFavouriteHandler)).Methods(http.MethodGet)
	authRouter.HandleFunc("/users", h.AuthMiddleware(h.RequireAdmin(h.GetAllUsersHandler))).Methods(http.MethodGet)
	authRouter.HandleFunc("/user/{id}", h.AuthMiddleware(h.RequireAdmin(h.DeleteUserHandler))).Methods(http.MethodDelete)
	authRouter.HandleFunc("/user/{id}", h.AuthMiddleware(h.RequireAdmin(h.UpdateUserHandler))).Methods(http.MethodPut)

	// Track endpoints; fixed paths registered before the {id} routes.
	trackRouter := router.PathPrefix("/api/tracks").Subrouter()
	trackRouter.HandleFunc("", h.AuthMiddleware(h.CreateTrackHandler)).Methods(http.MethodPost)
	trackRouter.HandleFunc("", h.GetTracksHandler).Methods(http.MethodGet)
	trackRouter.HandleFunc("/trendingTracks", h.AuthMiddleware(h.TrendingTracksHandler)).Methods(http.MethodGet)
	trackRouter.HandleFunc("/getTracksByUser", h.AuthMiddleware(h.GetTracksByUserHandler)).Methods(http.MethodGet)
	trackRouter.HandleFunc("/search", h.AuthMiddleware(h.SearchTracksHandler)).Methods(http.MethodGet)
	trackRouter.HandleFunc("/updateCount/{id}", h.AuthMiddleware(h.UpdateCountHandler)).Methods(http.MethodPut)
	trackRouter.HandleFunc("/{id}", h.AuthMiddleware(h.GetTrackHandler)).Methods(http.MethodGet)
	trackRouter.HandleFunc("/{id}", h.AuthMiddleware(h.UpdateTrackHandler)).Methods(http.MethodPut)
	trackRouter.HandleFunc("/{id}", h.AuthMiddleware(h.DeleteTrackHandler)).Methods(http.MethodDelete)

	// Playlist endpoints
	playlistRouter := router.PathPrefix("/api/playlists").Subrouter()
	playlistRouter.HandleFunc("", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	playlistRouter.HandleFunc("", h.AuthMiddleware(h.GetPlaylistsHandler)).Methods(http.MethodGet)
	playlistRouter.HandleFunc("/getUserPlaylists", h.AuthMiddleware(h.GetUserPlaylistsHandler)).Methods(http.MethodGet)
	playlistRouter.HandleFunc("/allPublicPlaylists", h.AllPublicPlaylistsHandler).Methods(http.MethodGet)
	playlistRouter.HandleFunc("/checkIsPublic", h.AuthMiddleware(h.CheckIsPublicHandler)).Methods(http.MethodGet)
	playlistRouter.HandleFunc("/addTrackToPlaylist", h.AuthMiddleware(h.AddTrackToPlaylistHandler)).Methods(http.MethodPost)
	playlistRouter.HandleFunc("/changePrivacy/{id}", h.AuthMiddleware(h.ChangePrivacyHandler)).Methods(http.MethodPut)
	playlistRouter.HandleFunc("/{id}", h.GetPlaylistHandler).Methods(http.MethodGet)
	playlistRouter.HandleFunc("/{id}", h.AuthMiddleware(h.UpdatePlaylistHandler)).Methods(http.MethodPut)
	playlistRouter.HandleFunc("/{id}", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)

	// Recent play log
	recentRouter := router.PathPrefix("/api/recents").Subrouter()
	recentRouter.HandleFunc("", h.AuthMiddleware(h.AddRecentPlayHandler)).Methods(http.MethodPost)
	recentRouter.HandleFunc("", h.AuthMiddleware(h.GetRecentPlaysHandler)).Methods(http.MethodGet)

	// Audio conversion gateway
	router.HandleFunc("/api/convert", h.ConvertHandler).Methods(http.MethodGet)
}
